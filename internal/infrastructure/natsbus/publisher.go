// Package natsbus publishes alert-eligible mentions as JSON events on a NATS subject.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"MentionMonitor/internal/domain"
	"MentionMonitor/internal/ports"
)

const defaultSubject = "mentions.alerts"

// AlertEvent is the wire form of one alert.
type AlertEvent struct {
	MentionID   string    `json:"mention_id"`
	EntityID    string    `json:"entity_id"`
	EntityName  string    `json:"entity_name"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	PublishedAt time.Time `json:"published_at,omitzero"`
	Confidence  float64   `json:"confidence"`
	Sentiment   string    `json:"sentiment"`
	Severity    string    `json:"severity"`
	Category    string    `json:"category"`
	Summary     []string  `json:"summary"`
	Rationale   string    `json:"rationale,omitempty"`
	Provenance  string    `json:"provenance"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewAlertEvent flattens a mention into its event form.
func NewAlertEvent(entity domain.MonitoredEntity, m domain.Mention) AlertEvent {
	raw := m.Candidate.Raw
	c := m.Classification
	return AlertEvent{
		MentionID:   m.ID,
		EntityID:    entity.ID,
		EntityName:  entity.FullName,
		URL:         raw.URL,
		Title:       raw.Title,
		Source:      raw.Source,
		PublishedAt: raw.PublishedAt,
		Confidence:  m.Match.Confidence,
		Sentiment:   string(c.Sentiment),
		Severity:    string(c.Severity),
		Category:    string(c.Category),
		Summary:     c.Summary,
		Rationale:   c.Rationale,
		Provenance:  string(c.Provenance),
		CreatedAt:   m.CreatedAt,
	}
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher implements ports.Notifier over NATS core subjects.
type Publisher struct {
	nc      conn
	close   func()
	subject string
}

var _ ports.Notifier = (*Publisher)(nil)

// Connect dials the server; reconnects are retried forever.
func Connect(url, subject string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	nc, err := nats.Connect(url,
		nats.Name("mentionmonitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	p := newPublisher(nc, subject)
	p.close = nc.Close
	return p, nil
}

func newPublisher(nc conn, subject string) *Publisher {
	if subject == "" {
		subject = defaultSubject
	}
	return &Publisher{nc: nc, subject: subject}
}

// NotifyAlert publishes the alert event.
func (p *Publisher) NotifyAlert(ctx context.Context, entity domain.MonitoredEntity, m domain.Mention) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewAlertEvent(entity, m))
	if err != nil {
		return fmt.Errorf("encode alert event: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish alert: %w", err)
	}
	return nil
}

// Close drops the server connection.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}
