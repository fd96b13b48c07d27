package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/todmy/doc-checker/internal/facts"
	"github.com/todmy/doc-checker/pkg/models"
)

// ErrNoSources is returned when no document collection is enabled.
var ErrNoSources = eris.New("workflow: no enabled document sources")

// SourceProvider lists the enabled vector store IDs in priority order.
type SourceProvider interface {
	EnabledVectorStoreIDs(ctx context.Context) ([]string, error)
}

// Input is the free-text request that started the workflow
type Input struct {
	Text string
}

// Controller runs the Runner once per fact type, strictly in order.
type Controller struct {
	runner  *Runner
	sources SourceProvider
	configs []facts.Config
}

// NewController creates a Controller. A nil configs slice means facts.Defaults().
func NewController(runner *Runner, sources SourceProvider, configs []facts.Config) *Controller {
	if configs == nil {
		configs = facts.Defaults()
	}
	return &Controller{runner: runner, sources: sources, configs: configs}
}

// Run resolves the sources once and analyses every fact type. The first
// failure aborts the run and no results are returned.
func (c *Controller) Run(ctx context.Context, in Input, onStep StepFunc) ([]models.WorkflowResult, error) {
	runID := uuid.NewString()
	logger := zap.L().With(zap.String("run_id", runID))
	start := time.Now()

	ids, err := c.sources.EnabledVectorStoreIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "workflow: resolve sources")
	}
	if len(ids) == 0 {
		return nil, ErrNoSources
	}

	logger.Info("workflow started", zap.String("input", in.Text), zap.Int("sources", len(ids)))

	results := make([]models.WorkflowResult, 0, len(c.configs))
	for _, cfg := range c.configs {
		res, err := c.runner.RunSingle(ctx, cfg, ids, onStep)
		if err != nil {
			logger.Error("analysis failed", zap.String("analysis_id", cfg.ID), zap.Error(err))
			return nil, err
		}
		logger.Info("analysis completed",
			zap.String("analysis_id", cfg.ID),
			zap.String("value", res.Value),
			zap.Float64("confidence", res.Confidence),
		)
		results = append(results, *res)
	}

	logger.Info("workflow finished", zap.Int("results", len(results)), zap.Duration("elapsed", time.Since(start)))
	return results, nil
}
