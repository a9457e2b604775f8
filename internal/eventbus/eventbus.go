// Package eventbus publishes tracker events to a Kafka topic.
package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
	"github.com/segmentio/kafka-go"
)

const (
	queueSize    = 256
	writeTimeout = 10 * time.Second
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewWriter returns a writer for topic on brokers.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Envelope is the JSON value of every published message.
type Envelope struct {
	state.Event
	At time.Time `json:"at"`
}

// Publisher is a tracker.Subscriber that forwards events to Kafka without
// blocking dispatch. Events are dropped when the queue is full.
type Publisher struct {
	writer MessageWriter
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	closed bool
	queue  chan []kafka.Message
	done   chan struct{}
}

func NewPublisher(w MessageWriter, logger *slog.Logger) *Publisher {
	p := &Publisher{
		writer: w,
		logger: logger.With("component", "eventbus"),
		now:    time.Now,
		queue:  make(chan []kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) Notify(events []state.Event, _ model.Configuration) {
	at := p.now()
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(Envelope{Event: ev, At: at})
		if err != nil {
			p.logger.Error("marshal event", "kind", ev.Kind, "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.EntityID),
			Value: value,
			Time:  at,
		})
	}
	if len(msgs) == 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- msgs:
	default:
		p.logger.Warn("event queue full, dropping events", "count", len(msgs))
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for msgs := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			p.logger.Error("publish events", "count", len(msgs), "error", err)
		}
		cancel()
	}
}

// Close flushes queued events and closes the writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.writer.Close()
}
