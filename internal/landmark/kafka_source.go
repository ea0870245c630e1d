package landmark

import (
	"context"
	"errors"
	"fmt"

	"blink-pin/internal/model"
	"blink-pin/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageConsumer is satisfied by client.KafkaConsumer.
type MessageConsumer interface {
	ConsumeMessage(ctx context.Context) (*kafka.Message, error)
	Close() error
}

// KafkaSource reads frames published by a remote landmark provider, one
// JSON frame per message.
type KafkaSource struct {
	consumer MessageConsumer
}

func NewKafkaSource(consumer MessageConsumer) *KafkaSource {
	return &KafkaSource{consumer: consumer}
}

// Next blocks until a well-formed frame arrives. Broker failures are
// reported as ErrDeviceUnavailable.
func (s *KafkaSource) Next(ctx context.Context) (Frame, error) {
	for {
		msg, err := s.consumer.ConsumeMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return Frame{}, ctx.Err()
			}
			return Frame{}, fmt.Errorf("%w: %v", model.ErrDeviceUnavailable, err)
		}

		frame, err := DecodeFrame(msg.Value)
		if err != nil {
			if errors.Is(err, ErrMalformedFrame) {
				util.Warn("Skipping malformed landmark message",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				continue
			}
			return Frame{}, err
		}
		return frame, nil
	}
}

func (s *KafkaSource) Close() error {
	return s.consumer.Close()
}
