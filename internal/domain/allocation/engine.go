package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/logger"
	"github.com/okian/vacancy/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithVerify makes every recompute check its own output.
func WithVerify(enabled bool) Option {
	return func(e *Engine) {
		e.verify = enabled
	}
}

// Engine wraps Allocate with logging, metrics and optional self-checks.
type Engine struct {
	logger logger.Logger
	verify bool
}

// NewEngine creates an engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Get().Named("allocation")
	}
	return e
}

// RecomputeAll runs a full pass over in. This is the only authoritative way
// to produce an assignment. An error is returned only when verification is
// enabled and the output breaks an invariant.
func (e *Engine) RecomputeAll(ctx context.Context, in Input, reason string) (Result, error) {
	start := time.Now()
	res := Allocate(in)
	elapsed := time.Since(start)
	metrics.RecordRecompute(reason, float64(elapsed.Microseconds())/1000)

	e.logger.Debug(ctx, "recomputed assignment",
		logger.String("reason", reason),
		logger.Int("candidates", len(in.Order)),
		logger.Int("assigned", len(res.Assignment)),
		logger.Int("unassigned", len(res.Unassigned)),
		logger.Duration("elapsed", elapsed),
	)

	if e.verify {
		if err := Verify(in, res.Assignment); err != nil {
			metrics.RecordInvariantViolation()
			e.logger.Error(ctx, "assignment failed verification", logger.Error(err))
			return res, err
		}
	}
	return res, nil
}

// OnPreferenceOrRankChange is the entry point for a single-candidate edit.
// It checks that id is ranked and then recomputes everything.
func (e *Engine) OnPreferenceOrRankChange(ctx context.Context, in Input, id string) (Result, error) {
	found := false
	for _, c := range in.Order {
		if c == id {
			found = true
			break
		}
	}
	if !found {
		return Result{}, fmt.Errorf("%w: %q", model.ErrUnknownCandidate, id)
	}
	return e.RecomputeAll(ctx, in, "candidate")
}
