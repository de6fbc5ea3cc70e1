package queue

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

// identified payloads set the AMQP MessageId.
type identified interface {
	MessageID() string
}

// channel is the part of *amqp.Channel the queue uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// AMQPQueue publishes JSON payloads to a durable RabbitMQ queue per topic.
// Subscribers receive the raw body as json.RawMessage.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   channel

	mu       sync.Mutex
	declared map[string]bool
}

func NewAMQPQueue(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	return newAMQPQueue(conn, ch), nil
}

func newAMQPQueue(conn *amqp.Connection, ch channel) *AMQPQueue {
	return &AMQPQueue{conn: conn, ch: ch, declared: make(map[string]bool)}
}

func (q *AMQPQueue) declare(topic string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	if err := q.declare(topic); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}
	if id, ok := payload.(identified); ok {
		msg.MessageId = id.MessageID()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ch.Publish("", topic, false, false, msg)
}

// Subscribe consumes with manual ack; a handler error nacks and requeues once,
// a redelivered message that fails again is dropped.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	if err := q.declare(topic); err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		topic,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	go func() {
		for d := range msgs {
			if err := handler(json.RawMessage(d.Body)); err != nil {
				log.Println("⚠️ failed to handle message on", topic, ":", err)
				d.Nack(false, !d.Redelivered)
				continue
			}
			d.Ack(false)
		}
	}()
	return nil
}

func (q *AMQPQueue) Close() error {
	err := q.ch.Close()
	if q.conn != nil {
		if cerr := q.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var _ Queue = (*AMQPQueue)(nil)
