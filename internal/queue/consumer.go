package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	prefetch       = 50
)

// Handler processes one appointment event.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, ev AppointmentRequestedEvent) error

// StartConsumer connects to RabbitMQ, declares the appointment.requested
// queue and feeds every delivery to handle.  Broker failures are retried with
// exponential backoff; the function returns only when ctx is cancelled.
func StartConsumer(ctx context.Context, url string, handle Handler, log *zap.Logger) error {
	if url == "" {
		return ErrNoBroker
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("queue", AppointmentRequestedQueue))

	backoff := initialBackoff
	for {
		conn, err := dial(ctx, url)
		if err != nil {
			log.Warn("appointment-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		err = consumeLoop(ctx, conn, handle, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("appointment-consumer: consume loop ended; reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
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

func consumeLoop(ctx context.Context, conn *amqp.Connection, handle Handler, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.Warn("appointment-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(AppointmentRequestedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AppointmentRequestedQueue, "", false, false, false, false, nil)
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
			if err := handleMessage(ctx, d.Body, handle); err != nil {
				log.Error("appointment-consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // no requeue
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, handle Handler) error {
	var ev AppointmentRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.AppointmentID == "" {
		return errors.New("event without appointment id")
	}
	return handle(ctx, ev)
}
