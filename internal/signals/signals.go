// Package signals implements a small in-process event fan-out: a named event
// maps to an ordered list of handlers, each executed sequentially with its
// failure isolated so one broken handler does not block the rest.
package signals

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Event names a fan-out trigger.
type Event string

const (
	// EventRegistration fires after a user account is created.
	EventRegistration Event = "registration"
	// EventRegistrationComplete fires after a user confirms their registration.
	EventRegistrationComplete Event = "registration_complete"
)

// HandlerFunc reacts to an event for one user.
type HandlerFunc func(ctx context.Context, userID int64) error

type registration struct {
	name string
	fn   HandlerFunc
}

// Registry holds ordered handlers per event.
type Registry struct {
	handlers map[Event][]registration
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		handlers: make(map[Event][]registration),
		logger:   logger,
	}
}

// On registers a named handler for an event. Handlers run in registration order.
func (r *Registry) On(ev Event, name string, fn HandlerFunc) {
	r.handlers[ev] = append(r.handlers[ev], registration{name: name, fn: fn})
}

// Fire runs all handlers for the event sequentially. A handler error or panic
// is logged and the remaining handlers still run. Firing an event with no
// handlers is a no-op.
func (r *Registry) Fire(ctx context.Context, ev Event, userID int64) {
	for _, h := range r.handlers[ev] {
		if err := r.runOne(ctx, h, userID); err != nil {
			r.logger.Warn("signal handler failed",
				zap.String("event", string(ev)),
				zap.String("handler", h.name),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
	}
}

func (r *Registry) runOne(ctx context.Context, h registration, userID int64) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return h.fn(ctx, userID)
}
