package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Embedding task type hints passed through to providers that support them.
const (
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    = "RETRIEVAL_QUERY"
)

type ManagerConfig struct {
	Timeout       int
	MaxInputChars int
}

// Manager owns the prompt templates and applies the call timeout; services
// talk to it instead of raw providers.
type Manager struct {
	generator IGenerator
	embedder  IEmbedder
	cfg       ManagerConfig
}

func NewManager(generator IGenerator, embedder IEmbedder, cfg ManagerConfig) *Manager {
	return &Manager{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
	}
}

func (m *Manager) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("embedder not configured")
	}
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	return m.embedder.Embed(ctx, text, taskType)
}

// Answer builds a grounded support reply from retrieved knowledge snippets.
// With no snippets the model is told to answer from general knowledge and to
// say so when it cannot.
func (m *Manager) Answer(ctx context.Context, question string, contextBlocks []string) (string, error) {
	if m.generator == nil {
		return "", fmt.Errorf("generator not configured")
	}
	var prompt string
	if len(contextBlocks) > 0 {
		prompt = fmt.Sprintf(`You are a customer support assistant.
Answer the customer's question using ONLY the knowledge below.
- Be concise and friendly.
- If the knowledge does not cover the question, say you don't know and suggest contacting support.
- Do not invent policies, prices, or dates.

KNOWLEDGE:
%s

QUESTION:
%s`, strings.Join(contextBlocks, "\n---\n"), question)
	} else {
		prompt = fmt.Sprintf(`You are a customer support assistant.
Answer the customer's question briefly and politely.
- If you are not sure, say so and suggest contacting support.

QUESTION:
%s`, question)
	}
	return m.generateText(ctx, prompt)
}

func (m *Manager) generateText(ctx context.Context, prompt string) (string, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}

func (m *Manager) MaxInputChars() int {
	return m.cfg.MaxInputChars
}

// ModelName reports the embedding model in use; Manager satisfies IEmbedder
// so callers get the call timeout applied transparently.
func (m *Manager) ModelName() string {
	if m.embedder == nil {
		return ""
	}
	return m.embedder.ModelName()
}
