package simulation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeebo/xxh3"

	service "github.com/okian/vacancy/internal/app"
	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/logger"
)

// tallySink counts revisions instead of shipping them anywhere.
type tallySink struct {
	published atomic.Int64
	highest   atomic.Int64
}

func (t *tallySink) HighestVersion(context.Context) (int64, error) { return t.highest.Load(), nil }

func (t *tallySink) Name() string { return "simulation" }

func (t *tallySink) Publish(_ context.Context, r model.Revision) error { //nolint:gocritic // hugeParam
	t.published.Add(1)
	for {
		cur := t.highest.Load()
		if r.Version <= cur || t.highest.CompareAndSwap(cur, r.Version) {
			return nil
		}
	}
}

// Run generates a population and an edit script from cfg.Seed, computes the
// expected assignment offline and then replays the script cfg.Orders times
// concurrently, each replay through its own coordinator with a different
// interleaving. It fails with ErrDiverged if any replay ends elsewhere.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}
	log := logger.Get().Named("simulation")
	start := time.Now()

	rng := newRNG(cfg.Seed)
	pop := GeneratePopulation(cfg, rng)
	script, err := GenerateScript(cfg, pop, rng)
	if err != nil {
		return Report{}, fmt.Errorf("generate script: %w", err)
	}
	in, want, rejected, err := Expected(pop, script)
	if err != nil {
		return Report{}, fmt.Errorf("expected pass: %w", err)
	}
	expected := want.Assignment.Digest()

	report := Report{
		Candidates: len(pop.Candidates),
		Slots:      len(pop.Slots),
		Edits:      len(script),
		Expected:   expected,
		Assigned:   len(want.Assignment),
		Unassigned: len(want.Unassigned),
		Replays:    make([]Replay, cfg.Orders),
	}
	for _, c := range in.Capacities {
		report.Capacity += c
	}

	log.Info(ctx, "simulation started",
		logger.Int("candidates", report.Candidates),
		logger.Int("slots", report.Slots),
		logger.Int("capacity", report.Capacity),
		logger.Int("edits", report.Edits),
		logger.Int("expected_rejections", rejected),
		logger.String("expected_digest", expected),
	)

	orders := make([][]Edit, cfg.Orders)
	for i := range orders {
		orders[i] = Interleave(script, rng)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for i := range orders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, rev, err := replay(ctx, cfg, pop, orders[i], log)
			r.Order = i
			if err == nil {
				err = Check(in, expected, rev)
			}
			if err == nil && r.Rejected != rejected {
				err = fmt.Errorf("%w: %d rejections, expected %d", ErrDiverged, r.Rejected, rejected)
			}
			report.Replays[i] = r
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("order %d: %w", i, err))
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	report.Duration = time.Since(start)

	if err := errors.Join(errs...); err != nil {
		log.Error(ctx, "simulation failed", logger.Error(err))
		return report, err
	}
	log.Info(ctx, "simulation converged",
		logger.Int("orders", cfg.Orders),
		logger.String("digest", expected),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

func replay(ctx context.Context, cfg Config, pop model.Population, edits []Edit, log logger.Logger) (Replay, model.Revision, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	start := time.Now()

	tally := &tallySink{}
	svc, err := service.New(pop,
		service.WithLogger(log.Named("coordinator")),
		service.WithSink(tally),
		service.WithVerify(true),
	)
	if err != nil {
		return Replay{}, model.Revision{}, err
	}
	if err := svc.Start(ctx); err != nil {
		return Replay{}, model.Revision{}, err
	}
	defer svc.Stop()

	// A candidate always lands on the same worker so its edits keep their order.
	queues := make([][]Edit, cfg.Workers)
	for _, e := range edits {
		w := xxh3.HashString(e.Candidate) % uint64(cfg.Workers)
		queues[w] = append(queues[w], e)
	}

	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
		rejected atomic.Int64
		failed   atomic.Pointer[error]
	)
	for _, q := range queues {
		wg.Add(1)
		go func(q []Edit) {
			defer wg.Done()
			for _, e := range q {
				if ctx.Err() != nil {
					return
				}
				_, err := svc.SetPreferences(ctx, e.Candidate, e.Slots)
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, model.ErrInvalidPreferenceList):
					rejected.Add(1)
				default:
					failed.CompareAndSwap(nil, &err)
					return
				}
			}
		}(q)
	}
	wg.Wait()

	r := Replay{
		Accepted: int(accepted.Load()),
		Rejected: int(rejected.Load()),
	}
	if p := failed.Load(); p != nil {
		return r, model.Revision{}, *p
	}
	if err := ctx.Err(); err != nil {
		return r, model.Revision{}, err
	}

	rev, err := svc.Await(ctx, svc.Generation())
	if err != nil {
		return r, model.Revision{}, err
	}
	stats := svc.GetStats()
	r.Recomputes = stats.Recomputes
	r.Coalesced = stats.CoalescedEdits
	r.Version = rev.Version
	r.Digest = rev.Digest

	svc.Stop()
	r.Published = tally.published.Load()
	r.Duration = time.Since(start)
	if last, final := tally.highest.Load(), svc.Current().Version; last != final {
		return r, rev, fmt.Errorf("%w: last published version %d, committed %d", ErrDiverged, last, final)
	}
	return r, rev, nil
}
