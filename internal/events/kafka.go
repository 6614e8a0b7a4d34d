package events

import (
	"context"
	"log"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// Writer is the part of *kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Kafka struct {
	w     Writer
	topic string
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
}

func NewKafka(w Writer, topic string) *Kafka { return &Kafka{w: w, topic: topic} }

// Publish keys messages by order id so one order's events stay ordered.
func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(ev.Type)},
		{Key: "event_id", Value: []byte(strconv.FormatInt(ev.ID, 10))},
	}
	if ev.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(ev.Traceparent)})
	}
	msg := kafka.Message{
		Key:     []byte(ev.AggregateID),
		Value:   ev.Payload,
		Headers: headers,
	}
	if err := k.w.WriteMessages(ctx, msg); err != nil {
		log.Printf("[events] publish failed id=%d type=%s: %v", ev.ID, ev.Type, err)
		return err
	}
	log.Printf("[events] published id=%d type=%s topic=%s", ev.ID, ev.Type, k.topic)
	return nil
}

func (k *Kafka) Close() error { return k.w.Close() }

// Log is the Publisher used when no broker is configured.
type Log struct{}

func (Log) Publish(_ context.Context, ev Event) error {
	log.Printf("[events] id=%d type=%s order=%s payload=%s", ev.ID, ev.Type, ev.AggregateID, ev.Payload)
	return nil
}
