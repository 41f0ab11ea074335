package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/crewpay/internal/domain/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrPublisherClosed is returned by publishes after Close.
var ErrPublisherClosed = errors.New("amqp publisher closed")

// Publisher sends events to a durable queue on the default exchange. A lost
// connection or channel is redialed on the next publish.
type Publisher struct {
	mu     sync.Mutex
	uri    string
	conn   *amqp.Connection
	ch     *amqp.Channel
	lost   chan *amqp.Error
	closed bool
	queue  string
	log    *zap.Logger
}

// NewPublisher dials uri and declares queue.
func NewPublisher(uri, queue string, logger *zap.Logger) (*Publisher, error) {
	p := &Publisher{uri: uri, queue: queue, log: logger}
	if err := p.connect(); err != nil {
		return nil, err
	}
	logger.Info("review queue ready", zap.String("queue", queue))
	return p, nil
}

// connect opens a connection and channel and declares the queue. Callers
// hold p.mu or own p exclusively.
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.uri)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		p.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("amqp queue declare %s: %w", p.queue, err)
	}

	// The channel is closed along with its connection, so one listener
	// covers both.
	p.lost = ch.NotifyClose(make(chan *amqp.Error, 1))
	p.conn, p.ch = conn, ch
	return nil
}

// ensureOpen redials when the broker dropped the channel or a previous
// redial failed. Callers hold p.mu.
func (p *Publisher) ensureOpen() error {
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case amqpErr, ok := <-p.lost:
		fields := []zap.Field{zap.String("queue", p.queue)}
		if ok && amqpErr != nil {
			fields = append(fields, zap.Error(amqpErr))
		}
		p.log.Warn("review queue connection lost; reconnecting", fields...)
		p.release()
	default:
		if p.ch != nil {
			return nil
		}
	}

	if err := p.connect(); err != nil {
		return fmt.Errorf("amqp reconnect: %w", err)
	}
	p.log.Info("review queue reconnected", zap.String("queue", p.queue))
	return nil
}

// release drops the current connection and channel, ignoring close errors
// from a link that is already down.
func (p *Publisher) release() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch, p.lost = nil, nil, nil
}

// EntitySubmitted publishes a review request for org.
func (p *Publisher) EntitySubmitted(ctx context.Context, org models.Organization, docs []models.DocumentType) error {
	body, err := NewEntitySubmitted(org, docs).Body()
	if err != nil {
		return err
	}
	return p.publish(ctx, TypeEntitySubmitted, body)
}

func (p *Publisher) publish(ctx context.Context, msgType string, body []byte) error {
	id := uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureOpen(); err != nil {
		return err
	}

	err := p.ch.PublishWithContext(
		ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Type:         msgType,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish %s: %w", msgType, err)
	}
	p.log.Debug("event published",
		zap.String("type", msgType),
		zap.String("message_id", id),
		zap.String("queue", p.queue))
	return nil
}

// Close closes the channel and connection. Later publishes fail with
// ErrPublisherClosed.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var errCh, errConn error
	if p.ch != nil {
		errCh = p.ch.Close()
	}
	if p.conn != nil {
		errConn = p.conn.Close()
	}
	p.conn, p.ch, p.lost = nil, nil, nil
	return errors.Join(errCh, errConn)
}
