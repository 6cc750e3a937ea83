package services

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type EventType string

const (
	EventOccurrenceCreated   EventType = "occurrence.created"
	EventOccurrenceUpdated   EventType = "occurrence.updated"
	EventOccurrenceResolved  EventType = "occurrence.resolved"
	EventOccurrenceDeleted   EventType = "occurrence.deleted"
	EventOccurrenceConfirmed EventType = "occurrence.confirmed"
)

// DomainEvent is the JSON payload written to the occurrence events topic.
type DomainEvent struct {
	Type         EventType              `json:"type"`
	OccurrenceID string                 `json:"occurrenceId"`
	UserID       string                 `json:"userId,omitempty"`
	At           time.Time              `json:"at"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

// KafkaPublisher writes domain events keyed by occurrence id so a consumer sees
// each occurrence's events in order.
type KafkaPublisher struct {
	writer *kafkago.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev DomainEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(ev.OccurrenceID),
		Value: b,
		Time:  ev.At,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
