// Package events publishes domain events on subjects of the form
// <prefix>.<entity>.<action>.<id>, for example consulto.booking.accepted.<uuid>.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const DefaultPrefix = "consulto"

type Event struct {
	Entity  string         `json:"entity"`
	Action  string         `json:"action"`
	ID      uuid.UUID      `json:"id"`
	ActorID uuid.UUID      `json:"actor_id"`
	At      time.Time      `json:"at"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e Event) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s.%s.%s", prefix, e.Entity, e.Action, e.ID)
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// NATS publishes events as JSON on core NATS subjects.
type NATS struct {
	nc     *nats.Conn
	prefix string
}

func NewNATS(nc *nats.Conn, prefix string) *NATS {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &NATS{nc: nc, prefix: prefix}
}

func (p *NATS) Publish(_ context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.nc.Publish(e.Subject(p.prefix), data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Subject(p.prefix), err)
	}
	return nil
}

// Wildcard returns the subscription subject for every action on entity.
func (p *NATS) Wildcard(entity string) string {
	return p.prefix + "." + entity + ".>"
}

// Subscribe decodes each event on subject and hands it to fn.
func (p *NATS) Subscribe(subject string, fn func(context.Context, Event)) (*nats.Subscription, error) {
	return p.nc.Subscribe(subject, func(msg *nats.Msg) {
		var e Event
		if err := json.Unmarshal(msg.Data, &e); err != nil {
			slog.Warn("events: undecodable message", "subject", msg.Subject, "err", err)
			return
		}
		fn(context.Background(), e)
	})
}

// Nop drops every event. Used when no NATS URL is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// PublishLogged publishes e and logs, rather than returns, a failure. Events
// go out after commit, so a broker outage must not fail the request.
func PublishLogged(ctx context.Context, p Publisher, e Event) {
	if err := p.Publish(ctx, e); err != nil {
		slog.Warn("event publish failed", "entity", e.Entity, "action", e.Action, "id", e.ID, "err", err)
	}
}
