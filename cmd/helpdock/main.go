package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/helpdock/helpdock/internal/ai"
	"github.com/helpdock/helpdock/internal/commerce"
	"github.com/helpdock/helpdock/internal/config"
	"github.com/helpdock/helpdock/internal/embedcache"
	"github.com/helpdock/helpdock/internal/filestore"
	"github.com/helpdock/helpdock/internal/handler"
	"github.com/helpdock/helpdock/internal/job"
	"github.com/helpdock/helpdock/internal/middleware"
	"github.com/helpdock/helpdock/internal/normalizer"
	"github.com/helpdock/helpdock/internal/schedule"
	"github.com/helpdock/helpdock/internal/service"
	"github.com/helpdock/helpdock/internal/ticketing"
	"github.com/helpdock/helpdock/internal/vectorstore"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "helpdock",
		Short: "helpdock support backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run helpdock server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("vector_store", cfg.VectorStore.Type),
	)

	providerArgs := cfg.AI.Args
	if providerArgs == nil {
		providerArgs = cfg.AI
	}
	aiProvider, err := ai.NewProvider(cfg.AI.Provider, providerArgs)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.AI.Model)
	embedder := ai.NewEmbedder(aiProvider, cfg.AI.EmbedModel)
	if cfg.AI.CacheSize > 0 {
		embedder = embedcache.WrapLRU(embedder, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLMinutes)*time.Minute)
	}
	manager := ai.NewManager(generator, embedder, ai.ManagerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
	})

	store, err := vectorstore.New(cfg.VectorStore)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	var files filestore.Store
	if cfg.FileStore.Type != "" {
		files, err = filestore.New(cfg.FileStore)
		if err != nil {
			return fmt.Errorf("init file store: %w", err)
		}
	}

	scrapeClient := &http.Client{Timeout: time.Duration(cfg.Ingest.ScrapeTimeout) * time.Second}
	norm := normalizer.New(scrapeClient)

	var orders service.OrderFinder
	if cfg.Chat.Commerce.Domain != "" {
		orders = commerce.New(cfg.Chat.Commerce.Domain, cfg.Chat.Commerce.AccessToken, nil)
	}
	var tickets service.TicketCreator
	if cfg.Chat.Ticketing.Subdomain != "" {
		tickets = ticketing.New(cfg.Chat.Ticketing.Subdomain, cfg.Chat.Ticketing.Email, cfg.Chat.Ticketing.APIToken, nil)
	}

	ingestService := service.NewIngestService(manager, store, files, norm, service.IngestOptions{
		ChunkSize:    cfg.Ingest.ChunkSize,
		ChunkOverlap: cfg.Ingest.ChunkOverlap,
	})
	contentService := service.NewContentService(store)
	chatService := service.NewChatService(manager, manager, store, orders, tickets, service.ChatOptions{
		TopK:      cfg.Chat.TopK,
		Threshold: float32(cfg.Chat.Threshold),
	})
	authService := service.NewAuthService(
		cfg.Admin.PasswordHash,
		[]byte(cfg.Admin.JWTSecret),
		time.Hour*time.Duration(cfg.Admin.JWTTTLHours),
	)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Content:       handler.NewContentHandler(ingestService, contentService),
		Chat:          handler.NewChatHandler(chatService),
		JWTSecret:     []byte(cfg.Admin.JWTSecret),
		ChatRateLimit: time.Duration(cfg.Chat.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	sweep := job.NewOrphanSweepJob(store, time.Duration(cfg.Jobs.SweepGraceMinutes)*time.Minute)
	if err := scheduler.AddJob(sweep, cfg.Jobs.OrphanSweepSpec); err != nil {
		return fmt.Errorf("schedule orphan sweep: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
