// Package kafka publishes custody domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/xraph/custody/event"
	"github.com/xraph/custody/plugin"
)

// DefaultTopic receives events when no topic is configured.
const DefaultTopic = "custody.events"

var (
	_ plugin.Plugin     = (*Publisher)(nil)
	_ plugin.OnEvent    = (*Publisher)(nil)
	_ plugin.OnShutdown = (*Publisher)(nil)
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is a ledger plugin that writes every domain event as JSON,
// keyed by the acting user so a user's events stay ordered per partition.
type Publisher struct {
	writer MessageWriter
	topic  string
	only   map[event.Name]bool // nil = all events
	logger *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithEvents restricts publishing to the named events.
func WithEvents(names ...event.Name) Option {
	return func(p *Publisher) {
		p.only = make(map[event.Name]bool, len(names))
		for _, n := range names {
			p.only[n] = true
		}
	}
}

// NewPublisher creates a publisher writing to topic on brokers.
func NewPublisher(brokers []string, topic string, opts ...Option) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	return NewWithWriter(w, topic, opts...)
}

// NewWithWriter creates a publisher over an existing writer. The writer's
// own topic, if any, wins over topic.
func NewWithWriter(w MessageWriter, topic string, opts ...Option) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	p := &Publisher{
		writer: w,
		topic:  topic,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Publisher) Name() string { return "kafka-publisher" }

// Topic returns the topic events are written to.
func (p *Publisher) Topic() string { return p.topic }

// OnEvent implements plugin.OnEvent.
func (p *Publisher) OnEvent(ctx context.Context, evt *event.Event) error {
	if p.only != nil && !p.only[evt.Name] {
		return nil
	}

	msg, err := Encode(evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s: %w", evt.Name, err)
	}

	p.logger.Debug("event published",
		"topic", p.topic,
		"event", evt.Name,
		"event_id", evt.ID.String(),
	)
	return nil
}

// OnShutdown implements plugin.OnShutdown.
func (p *Publisher) OnShutdown(_ context.Context) error {
	return p.writer.Close()
}

// Header values of the "class" header.
const (
	ClassMovement = "movement"
	ClassControl  = "control"
)

// Encode converts evt into a Kafka message. The "class" header separates
// value movements from pause toggles so consumers can route without
// decoding the payload.
func Encode(evt *event.Event) (kafka.Message, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: encode %s: %w", evt.Name, err)
	}
	class := ClassControl
	if evt.IsValueMovement() {
		class = ClassMovement
	}
	headers := []kafka.Header{
		{Key: "event", Value: []byte(evt.Name)},
		{Key: "event_id", Value: []byte(evt.ID.String())},
		{Key: "class", Value: []byte(class)},
	}
	if !evt.Ref.IsNil() {
		headers = append(headers, kafka.Header{Key: "ref", Value: []byte(evt.Ref.String())})
	}
	return kafka.Message{
		Key:     []byte(evt.Key()),
		Value:   data,
		Time:    evt.OccurredAt,
		Headers: headers,
	}, nil
}
