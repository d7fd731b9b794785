package queue

// The consumer listens to the auth events queue and appends one line per
// event to logs/auth.log.  It is the bundled stand-in for a mail delivery
// worker.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/admin-platform/internal/logging"
)

// ConsumerConfig says where to read from and where to write.
type ConsumerConfig struct {
	URL     string
	Queue   string
	LogPath string // defaults to logs/auth.log
}

// StartAuthEventConsumer connects to the broker, declares the queue
// (durable) and consumes until ctx is cancelled.  Connection failures are
// retried with exponential backoff capped at 30s.  A message that cannot be
// handled is rejected without requeue so that it cannot loop.
func StartAuthEventConsumer(ctx context.Context, cfg ConsumerConfig, log logging.Logger) error {
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join("logs", "auth.log")
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			log.Warn(ctx, "auth-consumer: dial failed", "error", err, "retry_in", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn(ctx, "auth-consumer: consume loop ended; reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, log logging.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn(ctx, "auth-consumer: set QoS failed", "error", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := HandleMessage(d.Body, cfg.LogPath); err != nil {
				log.Error(ctx, "auth-consumer: handle message failed", "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one AuthEvent and appends its log line to path.
func HandleMessage(body []byte, path string) error {
	var ev AuthEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single human-readable line.  The token is
// left out on purpose.
func FormatLine(ev AuthEvent) string {
	at := ev.OccurredAt.UTC().Format(time.RFC3339)
	switch ev.Type {
	case EventPasswordResetRequested:
		return fmt.Sprintf("[%s] Password reset requested | user_id=%s | email=%q | expires_at=%s\n",
			at, ev.UserID, ev.Email, ev.ExpiresAt.UTC().Format(time.RFC3339))
	case EventUserLoggedOut:
		return fmt.Sprintf("[%s] User logged out | user_id=%s\n", at, ev.UserID)
	}
	return fmt.Sprintf("[%s] %s | user_id=%s\n", at, ev.Type, ev.UserID)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
