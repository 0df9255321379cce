// Package analyze turns blocks of log text into human-readable summaries
// and root cause analyses. A remote language model is tried first when one
// is configured; a local heuristic strategy always stands behind it, so
// analysis never fails outright for valid input.
package analyze

import (
	"context"
	"errors"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/logops-io/logops/internal/domain"
)

// Strategy produces an analysis body for one request. Implementations
// report the service tier and model name they answer as.
type Strategy interface {
	Service() domain.Service
	ModelName(intent domain.Intent) string
	Analyze(ctx context.Context, req domain.AnalysisRequest) (string, error)
}

// Engine dispatches analysis requests across an ordered strategy chain.
type Engine struct {
	strategies []Strategy
	clk        clock.Clock
	logger     *zap.Logger
}

// NewEngine builds an engine trying the given strategies in order. The
// last strategy is expected to be infallible for non-empty input.
func NewEngine(logger *zap.Logger, strategies ...Strategy) *Engine {
	return NewEngineWith(clock.New(), logger, strategies...)
}

// NewEngineWith creates an Engine with an explicit clock
func NewEngineWith(clk clock.Clock, logger *zap.Logger, strategies ...Strategy) *Engine {
	return &Engine{strategies: strategies, clk: clk, logger: logger}
}

// Run executes the request against the strategy chain and returns the
// first successful result. Empty or placeholder-only input short-circuits
// before any strategy runs.
func (e *Engine) Run(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Empty() {
		return domain.AnalysisResult{
			Body:        emptyBody(req.Intent),
			ServiceUsed: domain.ServiceNone,
			GeneratedAt: e.clk.Now(),
		}, nil
	}

	var lastErr error
	attempted := 0
	for _, s := range e.strategies {
		if req.RemoteOptOut && s.Service() == domain.ServiceRemoteModel {
			continue
		}
		attempted++
		body, err := s.Analyze(ctx, req)
		if err != nil {
			lastErr = err
			e.logger.Warn("analysis strategy failed, trying next",
				zap.String("service", string(s.Service())),
				zap.String("intent", string(req.Intent)),
				zap.Error(err))
			continue
		}
		return domain.AnalysisResult{
			Body:        body,
			ServiceUsed: s.Service(),
			ModelName:   s.ModelName(req.Intent),
			GeneratedAt: e.clk.Now(),
		}, nil
	}
	if attempted == 0 {
		return domain.AnalysisResult{}, errors.New("no analysis strategy available")
	}
	return domain.AnalysisResult{}, lastErr
}

func emptyBody(intent domain.Intent) string {
	if intent == domain.IntentRootCause {
		return "No logs available for root cause analysis."
	}
	return "No logs available to analyze."
}
