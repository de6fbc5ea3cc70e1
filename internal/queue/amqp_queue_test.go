package queue

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/streadway/amqp"
)

type fakeChannel struct {
	mu         sync.Mutex
	declared   []string
	published  []amqp.Publishing
	keys       []string
	deliveries chan amqp.Delivery
	closed     bool
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !durable {
		return amqp.Queue{}, errors.New("queue must be durable")
	}
	c.declared = append(c.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	if autoAck {
		return nil, errors.New("expected manual ack")
	}
	return c.deliveries, nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

type ackResult struct {
	tag     uint64
	ack     bool
	requeue bool
}

// recordingAcker captures how each delivery was settled.
type recordingAcker struct {
	results chan ackResult
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.results <- ackResult{tag: tag, ack: true}
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.results <- ackResult{tag: tag, requeue: requeue}
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (e testEvent) MessageID() string { return e.ID }

func TestAMQPPublishDeclaresOnceAndSetsMessageID(t *testing.T) {
	ch := &fakeChannel{}
	q := newAMQPQueue(nil, ch)

	if err := q.Publish("customer_sync", testEvent{ID: "42", Name: "a"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Publish("customer_sync", map[string]int{"page": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ch.declared) != 1 || ch.declared[0] != "customer_sync" {
		t.Errorf("expected one declare of customer_sync, got %v", ch.declared)
	}
	if len(ch.published) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(ch.published))
	}

	first := ch.published[0]
	if first.MessageId != "42" {
		t.Errorf("expected message id 42, got %q", first.MessageId)
	}
	if first.ContentType != "application/json" || first.DeliveryMode != amqp.Persistent {
		t.Errorf("unexpected message properties %+v", first)
	}
	var got testEvent
	if err := json.Unmarshal(first.Body, &got); err != nil || got.Name != "a" {
		t.Errorf("unexpected body %s (%v)", first.Body, err)
	}
	if ch.published[1].MessageId != "" {
		t.Errorf("plain payloads should carry no message id, got %q", ch.published[1].MessageId)
	}
	if ch.keys[0] != "customer_sync" {
		t.Errorf("expected routing key customer_sync, got %s", ch.keys[0])
	}
}

func TestAMQPPublishRejectsUnencodablePayload(t *testing.T) {
	q := newAMQPQueue(nil, &fakeChannel{})
	if err := q.Publish("customer_sync", make(chan int)); err == nil {
		t.Error("expected an encode error")
	}
}

func TestAMQPSubscribeAcksAndRequeuesOnce(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 3)}
	q := newAMQPQueue(nil, ch)
	acker := &recordingAcker{results: make(chan ackResult, 3)}

	var mu sync.Mutex
	var bodies []string
	err := q.Subscribe("customer_sync", func(payload any) error {
		raw := payload.(json.RawMessage)
		mu.Lock()
		bodies = append(bodies, string(raw))
		mu.Unlock()
		if string(raw) == `"fail"` {
			return errors.New("handler failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: []byte(`"ok"`)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte(`"fail"`)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 3, Body: []byte(`"fail"`), Redelivered: true}

	want := []ackResult{
		{tag: 1, ack: true},
		{tag: 2, requeue: true},
		{tag: 3, requeue: false},
	}
	for _, w := range want {
		select {
		case got := <-acker.results:
			if got != w {
				t.Errorf("expected %+v, got %+v", w, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for delivery %d", w.tag)
		}
	}

	close(ch.deliveries)

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 3 {
		t.Errorf("expected 3 handled bodies, got %v", bodies)
	}
}

func TestAMQPCloseWithoutConnection(t *testing.T) {
	ch := &fakeChannel{}
	q := newAMQPQueue(nil, ch)
	if err := q.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !ch.closed {
		t.Error("expected the channel to be closed")
	}
}
