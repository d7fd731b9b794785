package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/admin-platform/internal/logging"
	"github.com/iliyamo/admin-platform/internal/queue"
)

// EventPublisher hands auth events to whoever delivers them.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// NopPublisher drops every event.  Used when AMQP is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.AuthEvent) error { return nil }

// ErrPublishQueueFull is returned by AsyncPublisher when its buffer is full.
var ErrPublishQueueFull = errors.New("auth event queue full")

// AsyncPublisher buffers events for a background worker, so request
// handlers never wait on the broker.  Run must be started for events to be
// delivered.
type AsyncPublisher struct {
	next    EventPublisher
	events  chan queue.AuthEvent
	timeout time.Duration
	log     logging.Logger
}

// NewAsyncPublisher wraps next.  Each delivery gets its own timeout,
// independent of the request that produced the event.
func NewAsyncPublisher(next EventPublisher, buffer int, timeout time.Duration, log logging.Logger) *AsyncPublisher {
	if log == nil {
		log = logging.Nop{}
	}
	if buffer < 1 {
		buffer = 1
	}
	return &AsyncPublisher{next: next, events: make(chan queue.AuthEvent, buffer), timeout: timeout, log: log}
}

// Publish enqueues ev without blocking.
func (p *AsyncPublisher) Publish(_ context.Context, ev queue.AuthEvent) error {
	select {
	case p.events <- ev:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Run delivers queued events until ctx is cancelled.  A delivery already
// in flight is allowed to finish within its timeout.
func (p *AsyncPublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			p.deliver(ctx, ev)
		}
	}
}

func (p *AsyncPublisher) deliver(ctx context.Context, ev queue.AuthEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.next.Publish(ctx, ev); err != nil {
		p.log.Warn(ctx, "deliver auth event failed", "type", ev.Type, "user_id", ev.UserID, "error", err)
	}
}

// AMQPPublisher publishes events to a durable queue on the default
// exchange.  Each call dials its own connection, which keeps the publisher
// stateless; auth events are rare enough for that to be fine.
type AMQPPublisher struct {
	URL         string
	Queue       string
	DialTimeout time.Duration // bounds TCP connect and the AMQP handshake
}

func NewAMQPPublisher(url, queueName string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: queueName, DialTimeout: 2 * time.Second}
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if timeout <= 0 {
		return fmt.Errorf("rabbitmq dial: %w", context.DeadlineExceeded)
	}
	conn, err := amqp.DialConfig(p.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.Queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}
