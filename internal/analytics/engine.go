package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/cohortlens/internal/model"
)

// Engine runs the three analytical models over two periods and compares them.
type Engine struct {
	now     func() time.Time
	weights Weights
	clv     CLVParams
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWeights sets the RFM composite weights.
func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithCLVParams sets the CLV projection parameters. A zero EvaluatedAt is
// replaced by the engine clock at run time.
func WithCLVParams(p CLVParams) Option {
	return func(e *Engine) { e.clv = p }
}

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine with default weights and CLV parameters.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:     time.Now,
		weights: DefaultWeights(),
		clv:     DefaultCLVParams(time.Time{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// params resolves the CLV parameters for a run evaluated at the given instant.
func (e *Engine) params(at time.Time) CLVParams {
	p := e.clv
	if p.EvaluatedAt.IsZero() {
		p.EvaluatedAt = at
	}
	return p
}

// Validate checks the engine configuration without running anything.
func (e *Engine) Validate() error {
	if err := e.weights.Validate(); err != nil {
		return err
	}
	return e.params(e.now()).Validate()
}

// Analyze runs RFM, CLV, concentration and segment statistics for the
// customers active in one period. The RFM reference date is the period end.
func (e *Engine) Analyze(ctx context.Context, customers []model.Customer, period model.Period) (*PeriodResult, error) {
	return e.analyze(ctx, customers, period, e.params(e.now()))
}

func (e *Engine) analyze(ctx context.Context, customers []model.Customer, period model.Period, params CLVParams) (*PeriodResult, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("invalid period %q: %w", period.Label, err)
	}

	active := model.FilterByPeriod(customers, period)

	scored, err := ScoreRFM(active, period.End, e.weights)
	if err != nil {
		return nil, fmt.Errorf("failed to score rfm: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	valued, err := ProjectCLV(active, params)
	if err != nil {
		return nil, fmt.Errorf("failed to project clv: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	concentration := AnalyzeConcentration(active)
	revenue := 0.0
	for _, r := range concentration.CustomerRevenues {
		revenue += r.Revenue
	}

	slog.Debug("Analyzed period",
		"period", period.Label,
		"customers", len(active),
		"pareto_ratio", concentration.ParetoRatio)

	return &PeriodResult{
		Period:        period,
		RFM:           scored,
		CLV:           valued,
		Segments:      SegmentStats(scored),
		Concentration: concentration,
		CustomerCount: len(active),
		Revenue:       revenue,
	}, nil
}

// Run analyzes both periods concurrently and compares them. Configuration
// errors are returned before any work starts.
func (e *Engine) Run(ctx context.Context, customers []model.Customer, current, previous model.Period, progress ProgressCallback) (*Report, error) {
	if progress == nil {
		progress = func(string, int) {} // no-op
	}
	var progressMu sync.Mutex
	report := func(stage string, percent int) {
		progressMu.Lock()
		defer progressMu.Unlock()
		progress(stage, percent)
	}

	generatedAt := e.now()
	params := e.params(generatedAt)
	if err := e.weights.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	report("Analyzing periods", 10)

	var currentResult, previousResult *PeriodResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		currentResult, err = e.analyze(gctx, customers, current, params)
		if err != nil {
			return fmt.Errorf("current period: %w", err)
		}
		report("Analyzed current period", 45)
		return nil
	})
	g.Go(func() error {
		var err error
		previousResult, err = e.analyze(gctx, customers, previous, params)
		if err != nil {
			return fmt.Errorf("previous period: %w", err)
		}
		report("Analyzed previous period", 45)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report("Comparing periods", 80)
	comparison := Comparison{
		RFM:           CompareRFM(currentResult.RFM, previousResult.RFM),
		CLV:           CompareCLV(currentResult.CLV, previousResult.CLV),
		Concentration: CompareConcentration(&currentResult.Concentration, &previousResult.Concentration),
	}

	result := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: generatedAt,
		Weights:     e.weights,
		CLVParams:   params,
		Current:     *currentResult,
		Previous:    *previousResult,
		Comparison:  comparison,
	}

	slog.Info("Analysis complete",
		"report_id", result.ID,
		"current_customers", currentResult.CustomerCount,
		"previous_customers", previousResult.CustomerCount,
		"new_customers", len(result.NewCustomers()),
		"lost_customers", len(result.LostCustomers()))

	report("Analysis complete", 100)
	return result, nil
}
