// Package events publishes workflow completion events to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Drain() error
}

// Publisher implements arium.EventPublisher on top of a NATS connection.
type Publisher struct {
	conn   Conn
	logger arium.Logger
	flush  bool
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used for connection state changes.
func WithLogger(logger arium.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFlush makes Publish wait until the server has received the event.
func WithFlush(flush bool) Option {
	return func(p *Publisher) {
		p.flush = flush
	}
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, opts ...Option) *Publisher {
	publisher := &Publisher{
		conn:   conn,
		logger: arium.NoopLogger{},
	}

	for _, opt := range opts {
		opt(publisher)
	}

	return publisher
}

// NewNATSPublisher connects to the NATS server at url. The deadline of ctx,
// if any, bounds the connection attempt.
func NewNATSPublisher(ctx context.Context, url string, opts ...Option) (*Publisher, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	publisher := NewPublisher(nil, opts...)

	natsOpts := []nats.Option{
		nats.Name(constants.DefaultUserAgent),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				publisher.logger.Warn("Workflow events disconnected", map[string]interface{}{"error": err.Error()})
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			publisher.logger.Info("Workflow events reconnected", map[string]interface{}{"url": conn.ConnectedUrlRedacted()})
		}),
	}

	if deadline, ok := ctx.Deadline(); ok {
		natsOpts = append(natsOpts, nats.Timeout(time.Until(deadline)))
	}

	conn, err := nats.Connect(url, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}

	publisher.conn = conn

	return publisher, nil
}

// Subject returns the subject events of kind are published to.
func Subject(kind arium.WorkflowKind) string {
	return constants.EventSubjectPrefix + string(kind)
}

// Publish implements arium.EventPublisher.
func (p *Publisher) Publish(ctx context.Context, event arium.WorkflowEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding workflow event: %w", err)
	}

	subject := Subject(event.Kind)

	err = p.conn.Publish(subject, data)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	if p.flush {
		err = p.conn.FlushWithContext(ctx)
		if err != nil {
			return fmt.Errorf("flushing %s: %w", subject, err)
		}
	}

	p.logger.Debug("Published workflow event", map[string]interface{}{
		"subject": subject,
		"id":      event.ID,
		"state":   event.State,
	})

	return nil
}

// Close drains the connection so buffered events are delivered.
func (p *Publisher) Close() error {
	err := p.conn.Drain()
	if err != nil {
		return fmt.Errorf("draining workflow events: %w", err)
	}

	return nil
}

var _ arium.EventPublisher = (*Publisher)(nil)
