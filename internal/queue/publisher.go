package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/recoverykneads/booking/internal/model"
)

// ErrNoBroker is returned by a Publisher without a broker URL.
var ErrNoBroker = errors.New("queue: no broker configured")

// Publisher sends appointment events to RabbitMQ.  It dials per publish.
type Publisher struct {
	url string
	log *zap.Logger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log}
}

// PublishAppointmentRequested implements booking.Publisher.
func (p *Publisher) PublishAppointmentRequested(ctx context.Context, appt model.Appointment) error {
	return p.Publish(ctx, AppointmentRequestedQueue, NewAppointmentRequestedEvent(appt))
}

// Publish marshals event and sends it as a persistent message to the named
// queue, declaring the queue first.  Errors are logged and returned.
func (p *Publisher) Publish(ctx context.Context, queue string, event any) error {
	if p.url == "" {
		return ErrNoBroker
	}
	body, err := json.Marshal(event)
	if err != nil {
		p.log.Error("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	conn, err := dial(ctx, p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", zap.String("queue", queue), zap.Error(err))
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		p.log.Warn("rabbitmq: publish failed", zap.String("queue", queue), zap.Error(err))
		return err
	}
	return nil
}
