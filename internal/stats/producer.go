// Package stats publishes aggregate engagement events to an external sink
// over AMQP. Delivery is fire-and-forget: callers log failures and move on.
package stats

import (
	"encoding/json"
	"sync"

	"github.com/streadway/amqp"
)

// Producer accepts JSON-serializable event payloads.
type Producer interface {
	Publish(body any) error
}

// AMQPProducer publishes payloads to a single queue on a RabbitMQ broker.
// The connection is dialed lazily and re-dialed after a publish failure.
type AMQPProducer struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPProducer(url, queue string) *AMQPProducer {
	return &AMQPProducer{url: url, queue: queue}
}

func (p *AMQPProducer) Publish(body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	err = p.ch.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        b,
	})
	if err != nil {
		// Drop the broken connection so the next publish re-dials.
		p.reset()
		return err
	}
	return nil
}

func (p *AMQPProducer) ensureChannel() error {
	if p.ch != nil {
		return nil
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}
	if _, err := ch.QueueDeclare(p.queue, false, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func (p *AMQPProducer) reset() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func (p *AMQPProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
}
