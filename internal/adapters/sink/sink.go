// Package sink publishes committed assignments to downstream collaborators.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/vacancy/internal/domain/model"
	"github.com/okian/vacancy/pkg/logger"
)

// Sink receives every committed revision.
type Sink interface {
	Name() string
	Publish(ctx context.Context, r model.Revision) error
}

// Versioned sinks remember what they published, so a restarted coordinator
// can keep versions increasing.
type Versioned interface {
	HighestVersion(ctx context.Context) (int64, error)
}

// LogSink writes a one-line summary of each revision to the logger.
type LogSink struct {
	logger logger.Logger
}

// NewLogSink creates a log sink. A nil logger uses the global one.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.Get().Named("sink")
	}
	return &LogSink{logger: l}
}

// Name implements Sink.
func (s *LogSink) Name() string { return "log" }

// Publish implements Sink.
func (s *LogSink) Publish(ctx context.Context, r model.Revision) error { //nolint:gocritic // hugeParam
	s.logger.Info(ctx, "assignment published",
		logger.Int64("version", r.Version),
		logger.Uint64("generation", r.Generation),
		logger.String("reason", r.Reason),
		logger.String("digest", r.Digest),
		logger.Int("assigned", len(r.Assignment)),
	)
	return nil
}

// Multi fans a revision out to several sinks. Every sink is attempted; the
// joined failures are wrapped in model.ErrPublication.
type Multi struct {
	sinks []Sink
}

// NewMulti combines sinks, skipping nil ones.
func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Name implements Sink.
func (m *Multi) Name() string { return "multi" }

// Publish implements Sink.
func (m *Multi) Publish(ctx context.Context, r model.Revision) error { //nolint:gocritic // hugeParam
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", model.ErrPublication, errors.Join(errs...))
}

// HighestVersion returns the highest version any versioned member reports.
func (m *Multi) HighestVersion(ctx context.Context) (int64, error) {
	var highest int64
	for _, s := range m.sinks {
		v, ok := s.(Versioned)
		if !ok {
			continue
		}
		n, err := v.HighestVersion(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", s.Name(), err)
		}
		highest = max(highest, n)
	}
	return highest, nil
}
