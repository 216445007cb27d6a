package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mr1hm/go-flood-alerts/internal/config"
	"github.com/mr1hm/go-flood-alerts/internal/worker"
)

const publishTimeout = 5 * time.Second

// channel is the part of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher sends events to a RabbitMQ topic exchange from a single
// background worker, so request handlers never wait on the broker.
type AMQPPublisher struct {
	exchange string
	ch       channel
	conn     *amqp.Connection
	pool     *worker.WorkerPool[Event]
	cancel   context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func DialAMQP(cfg config.AMQPConfig, bufferSize int) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("error connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("error declaring exchange %s: %w", cfg.Exchange, err)
	}

	p := newAMQPPublisher(ch, cfg.Exchange, bufferSize)
	p.conn = conn
	slog.Info("connected to rabbitmq", "exchange", cfg.Exchange)
	return p, nil
}

func newAMQPPublisher(ch channel, exchange string, bufferSize int) *AMQPPublisher {
	p := &AMQPPublisher{
		exchange: exchange,
		ch:       ch,
	}

	// one worker keeps publish order per process
	p.pool = worker.NewWorkerPool("events", 1, bufferSize, p.send)

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.pool.Start(ctx)
	return p
}

// Publish queues the event. It fails with ErrQueueFull instead of blocking,
// and with ErrClosed once Close has been called.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("%w: dropping %s", ErrClosed, ev.Type)
	}
	if !p.pool.TrySubmit(ev) {
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, ev.Type)
	}
	return nil
}

func (p *AMQPPublisher) send(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("error encoding event %s: %w", ev.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("error publishing %s: %w", ev.Type, err)
	}
	slog.Debug("event published", "type", ev.Type, "id", ev.ID)
	return nil
}

// Close flushes queued events and closes the broker connection. Later calls
// are no-ops.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.pool.Stop()
	p.cancel()

	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
