package service

import (
	"context"
	"fmt"
	"strconv"

	"blink-pin/internal/model"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageProducer is satisfied by client.KafkaProducer.
type MessageProducer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte, headers map[string]string) error
}

// KafkaEventPublisher writes auth events as JSON, keyed by user key so a
// user's events stay ordered within one partition.
type KafkaEventPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaEventPublisher(producer MessageProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event model.AuthEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode auth event: %w", err)
	}

	headers := map[string]string{
		"event_type": string(event.Type),
		"bucket":     strconv.Itoa(event.Bucket),
	}
	return p.producer.ProduceMessage(ctx, p.topic, []byte(event.UserKey), value, headers)
}
