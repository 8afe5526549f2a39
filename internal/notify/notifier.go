// Package notify alerts the operator about executed and failed
// opportunities. Notifications are dispatched to all registered senders and
// filtered by event type.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// Event types the engine emits.
const (
	EventOpportunityExecuted = "opportunity_executed"
	EventOpportunityFailed   = "opportunity_failed"
	EventError               = "error"
)

// Sender is the interface each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender.
	Name() string
}

// Notifier dispatches notifications to one or more Senders, forwarding only
// messages whose event type is in the allowed set. An empty set allows all.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier delivering to the given senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		allowed[strings.TrimSpace(e)] = true
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// EmitResult implements the orchestrator's ResultSink: every emitted record
// becomes an operator notification. Delivery failures are logged, never
// surfaced; notification is a best-effort observer.
func (n *Notifier) EmitResult(ctx context.Context, res domain.OpportunityResult) {
	event := EventOpportunityExecuted
	title := "Opportunity executed"
	if !res.Succeeded {
		event = EventOpportunityFailed
		title = "Opportunity failed"
	}

	message := fmt.Sprintf("flow=%s token=%s in=%s returned=%s",
		res.Flow, res.Token.Hex(), res.AmountIn, res.AmountReturned)
	if res.Reason != "" {
		message += " reason=" + res.Reason
	}

	if err := n.Notify(ctx, event, title, message); err != nil {
		n.logger.WarnContext(ctx, "result notification failed", slog.String("error", err.Error()))
	}
}

// dispatch iterates over all senders. Errors from individual senders are
// collected into a combined error; one failure does not prevent delivery to
// the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
