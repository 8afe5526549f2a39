package orchestrator

import (
	"context"
	"log/slog"
)

// compensator reverses one completed custody-moving step.
type compensator struct {
	name string
	fn   func(ctx context.Context) error
}

// saga records the compensating calls for the custody moves a flow has made
// so far. The two venues are separate remote services with no shared atomic
// commit, so a mid-flow failure triggers explicit reversal calls instead of
// assuming free rollback.
type saga struct {
	comps  []compensator
	logger *slog.Logger
}

func newSaga(logger *slog.Logger) *saga {
	return &saga{logger: logger}
}

// push registers a compensating call for a step that just completed.
func (s *saga) push(name string, fn func(ctx context.Context) error) {
	s.comps = append(s.comps, compensator{name: name, fn: fn})
}

// clear drops all registered compensators. Called once a flow crosses its
// point of no return: from an order placement onward the earlier custody
// moves have been consumed and reversing them would corrupt state.
func (s *saga) clear() {
	s.comps = nil
}

// unwind runs the registered compensators in reverse order. Compensation
// failures are logged and skipped, never retried; the remaining
// compensators still run so as much custody state as possible is restored.
func (s *saga) unwind(ctx context.Context) {
	for i := len(s.comps) - 1; i >= 0; i-- {
		c := s.comps[i]
		s.logger.WarnContext(ctx, "compensating step", slog.String("step", c.name))
		if err := c.fn(ctx); err != nil {
			s.logger.ErrorContext(ctx, "compensation failed",
				slog.String("step", c.name),
				slog.String("error", err.Error()),
			)
		}
	}
	s.comps = nil
}
