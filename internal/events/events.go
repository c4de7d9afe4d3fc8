// Package events publishes resume lifecycle events to a RabbitMQ exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/jonathan/resume-guard/internal/types"
)

// RoutingKeyVersionCommitted is used for every committed version.
const RoutingKeyVersionCommitted = "resume.version.committed"

// DefaultExchange is used when no exchange is configured.
const DefaultExchange = "resume-guard"

// PatchSummary describes one applied patch without its text.
type PatchSummary struct {
	Section    string            `json:"section"`
	Action     types.PatchAction `json:"action"`
	RoleID     string            `json:"role_id,omitempty"`
	Skill      string            `json:"skill,omitempty"`
	Provenance types.Provenance  `json:"provenance,omitempty"`
}

// VersionCommitted is the body of a resume.version.committed message.
type VersionCommitted struct {
	ResumeID  string         `json:"resume_id"`
	Version   int            `json:"version"`
	CreatedAt time.Time      `json:"created_at"`
	Patches   []PatchSummary `json:"patches"`
}

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends events on a fresh channel per message.
type Publisher struct {
	exchange string
	open     func() (Channel, error)
	closer   func() error
}

// Dial connects to the broker at url and declares exchange as a durable
// topic exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	p := NewPublisher(exchange, func() (Channel, error) { return conn.Channel() })
	p.closer = conn.Close

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}
	return p, nil
}

// NewPublisher builds a publisher over an arbitrary channel source.
func NewPublisher(exchange string, open func() (Channel, error)) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{exchange: exchange, open: open}
}

// AfterCommit publishes a VersionCommitted event for doc. The broker client
// takes no context, so a publish still running when ctx ends is abandoned.
func (p *Publisher) AfterCommit(ctx context.Context, doc *types.ResumeDocument, applied []types.PatchOperation) error {
	done := make(chan error, 1)
	go func() {
		done <- p.Publish(RoutingKeyVersionCommitted, NewVersionCommitted(doc, applied))
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("publish %s for %s v%d: %w", RoutingKeyVersionCommitted, doc.ResumeID, doc.Version, ctx.Err())
	}
}

// Publish sends body as JSON under key.
func (p *Publisher) Publish(key string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	ch, err := p.open()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(
		p.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         payload,
		},
	)
}

// Close closes the broker connection, if the publisher owns one.
func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// NewVersionCommitted summarizes a commit.
func NewVersionCommitted(doc *types.ResumeDocument, applied []types.PatchOperation) VersionCommitted {
	ev := VersionCommitted{
		ResumeID:  doc.ResumeID,
		Version:   doc.Version,
		CreatedAt: doc.CreatedAt,
		Patches:   make([]PatchSummary, 0, len(applied)),
	}
	for _, op := range applied {
		ev.Patches = append(ev.Patches, PatchSummary{
			Section:    op.Section,
			Action:     op.Action,
			RoleID:     op.RoleID,
			Skill:      op.Skill,
			Provenance: op.Provenance,
		})
	}
	return ev
}
