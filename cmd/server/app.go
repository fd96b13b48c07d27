package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/todmy/doc-checker/internal/anthropic"
	"github.com/todmy/doc-checker/internal/config"
	"github.com/todmy/doc-checker/internal/llm"
	"github.com/todmy/doc-checker/internal/openai"
	"github.com/todmy/doc-checker/internal/registry"
	"github.com/todmy/doc-checker/internal/resilience"
	"github.com/todmy/doc-checker/internal/workflow"
	"github.com/todmy/doc-checker/pkg/models"
)

// app wires the clients, the registry and the workflow from config.
type app struct {
	store      *registry.SQLStore
	openai     *openai.Client
	controller *workflow.Controller
	assistant  *llm.Assistant
	uploader   *registry.Uploader
}

func newApp(ctx context.Context, c *config.Config) (*app, error) {
	if c.OpenAI.Key == "" {
		return nil, eris.New("openai.key is not set (DOCCHECK_OPENAI_KEY or OPENAI_API_KEY)")
	}

	retry := resilience.NewPolicy(c.Retry.MaxAttempts, c.Retry.InitialBackoffMs, c.Retry.MaxBackoffMs)
	oa := openai.NewClient(c.OpenAI.Key,
		openai.WithBaseURL(c.OpenAI.BaseURL),
		openai.WithModel(c.OpenAI.Model),
		openai.WithTimeout(time.Duration(c.OpenAI.TimeoutSecs)*time.Second),
		openai.WithRateLimit(c.OpenAI.RequestsPerSecond),
		openai.WithRetry(retry),
	)

	store, err := registry.Open(ctx, registry.MemoryDSN)
	if err != nil {
		return nil, err
	}
	if err := registry.Seed(ctx, store, seedCollections(c.Collections)); err != nil {
		store.Close()
		return nil, err
	}

	runner := workflow.NewRunner(oa, chatter(c, oa), workflow.WithParallelExtractions(c.Workflow.ParallelExtractions))

	return &app{
		store:      store,
		openai:     oa,
		controller: workflow.NewController(runner, store, nil),
		assistant:  llm.NewAssistant(oa),
		uploader:   registry.NewUploader(store, oa),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// chatter picks the backend for comparison, classification and explanation calls
func chatter(c *config.Config, oa *openai.Client) llm.Chatter {
	if c.LLM.ChatProvider == "anthropic" {
		zap.L().Info("using anthropic for chat calls", zap.String("model", c.Anthropic.Model))
		return anthropic.NewClient(c.Anthropic.Key, c.Anthropic.Model, c.Anthropic.MaxTokens)
	}
	return oa
}

// seedCollections falls back to the built-in collections when none are configured
func seedCollections(cc []config.CollectionConfig) []models.Collection {
	if len(cc) == 0 {
		return registry.DefaultCollections()
	}
	out := make([]models.Collection, 0, len(cc))
	for _, c := range cc {
		out = append(out, models.Collection{
			ID:            c.ID,
			Name:          c.Name,
			Description:   c.Description,
			VectorStoreID: c.VectorStoreID,
			Documents:     []models.Document{},
			IsDefault:     true,
			Enabled:       true,
		})
	}
	return out
}
