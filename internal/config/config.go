package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/helpdock/helpdock/internal/splitter"
)

type Config struct {
	Port          int               `json:"port"`
	LogConfig     logger.LogConfig  `json:"log_config"`
	CORSAllowlist []string          `json:"cors_allowlist"`
	Admin         AdminConfig       `json:"admin"`
	AI            AIConfig          `json:"ai"`
	VectorStore   VectorStoreConfig `json:"vector_store"`
	FileStore     FileStoreConfig   `json:"file_store"`
	Ingest        IngestConfig      `json:"ingest"`
	Chat          ChatConfig        `json:"chat"`
	Jobs          JobsConfig        `json:"jobs"`
}

type AdminConfig struct {
	PasswordHash string `json:"password_hash"`
	JWTSecret    string `json:"jwt_secret"`
	JWTTTLHours  int    `json:"jwt_ttl_hours"`
}

type AIConfig struct {
	Provider        string      `json:"provider"`
	Args            interface{} `json:"args"`
	Model           string      `json:"model"`
	EmbedModel      string      `json:"embed_model"`
	Timeout         int         `json:"timeout"`
	MaxInputChars   int         `json:"max_input_chars"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLMinutes int         `json:"cache_ttl_minutes"`
}

type VectorStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type IngestConfig struct {
	ChunkSize     int `json:"chunk_size"`
	ChunkOverlap  int `json:"chunk_overlap"`
	ScrapeTimeout int `json:"scrape_timeout"`
}

type CommerceConfig struct {
	Domain      string `json:"domain"`
	AccessToken string `json:"access_token"`
}

type TicketingConfig struct {
	Subdomain string `json:"subdomain"`
	Email     string `json:"email"`
	APIToken  string `json:"api_token"`
}

type ChatConfig struct {
	TopK             int             `json:"top_k"`
	Threshold        float64         `json:"threshold"`
	RateLimitSeconds int             `json:"rate_limit_seconds"`
	Commerce         CommerceConfig  `json:"commerce"`
	Ticketing        TicketingConfig `json:"ticketing"`
}

type JobsConfig struct {
	OrphanSweepSpec   string `json:"orphan_sweep_spec"`
	SweepGraceMinutes int    `json:"sweep_grace_minutes"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Admin.PasswordHash == "" {
		return nil, fmt.Errorf("admin.password_hash is required")
	}
	if cfg.Admin.JWTSecret == "" {
		return nil, fmt.Errorf("admin.jwt_secret is required")
	}
	if cfg.Admin.JWTTTLHours == 0 {
		cfg.Admin.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 30
	}
	if cfg.VectorStore.Type == "" {
		return nil, fmt.Errorf("vector_store.type is required")
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = splitter.DefaultChunkSize
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = splitter.DefaultOverlap
	}
	if cfg.Ingest.ChunkOverlap >= cfg.Ingest.ChunkSize {
		return nil, fmt.Errorf("ingest.chunk_overlap must be smaller than ingest.chunk_size")
	}
	if cfg.Ingest.ScrapeTimeout == 0 {
		cfg.Ingest.ScrapeTimeout = 20
	}
	if cfg.Chat.TopK == 0 {
		cfg.Chat.TopK = 4
	}
	if cfg.Chat.Threshold == 0 {
		cfg.Chat.Threshold = 0.55
	}
	if cfg.Chat.Commerce.Domain != "" && cfg.Chat.Commerce.AccessToken == "" {
		return nil, fmt.Errorf("chat.commerce.access_token is required when a domain is set")
	}
	if cfg.Chat.Ticketing.Subdomain != "" && (cfg.Chat.Ticketing.Email == "" || cfg.Chat.Ticketing.APIToken == "") {
		return nil, fmt.Errorf("chat.ticketing.email and api_token are required when a subdomain is set")
	}
	if cfg.Jobs.OrphanSweepSpec == "" {
		cfg.Jobs.OrphanSweepSpec = "0 * * * *"
	}
	if cfg.Jobs.SweepGraceMinutes == 0 {
		cfg.Jobs.SweepGraceMinutes = 30
	}
	return &cfg, nil
}
