// Package events publishes domain events to downstream consumers.
package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Publisher delivers an event payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Emit wraps payload in an Envelope and publishes it. Failures are logged
// and swallowed: events never fail the operation that raised them.
func Emit(ctx context.Context, p Publisher, eventType string, payload any) {
	if p == nil {
		return
	}
	env := Envelope{Type: eventType, OccurredAt: time.Now().UTC(), Data: payload}
	if err := p.Publish(ctx, eventType, env); err != nil {
		zap.L().Warn("event publish failed", zap.String("type", eventType), zap.Error(err))
	}
}

// Noop logs events instead of delivering them. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(_ context.Context, routingKey string, _ any) error {
	zap.L().Debug("event not published: no broker", zap.String("routing_key", routingKey))
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Envelope
}

func (r *Recorder) Publish(_ context.Context, routingKey string, payload any) error {
	env, ok := payload.(Envelope)
	if !ok {
		env = Envelope{Type: routingKey, Data: payload}
	}
	r.mu.Lock()
	r.events = append(r.events, env)
	r.mu.Unlock()
	return nil
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

// Events returns a copy of the recorded envelopes.
func (r *Recorder) Events() []Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Envelope(nil), r.events...)
}
