package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"blink-pin/internal/model"
	"blink-pin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMessage struct {
	topic   string
	key     []byte
	value   []byte
	headers map[string]string
}

type fakeProducer struct {
	msgs []capturedMessage
}

func (p *fakeProducer) ProduceMessage(_ context.Context, topic string, key, value []byte, headers map[string]string) error {
	p.msgs = append(p.msgs, capturedMessage{topic, key, value, headers})
	return nil
}

func TestKafkaEventPublisher(t *testing.T) {
	producer := &fakeProducer{}
	pub := service.NewKafkaEventPublisher(producer, "blinkpin.auth-events")

	ev := model.AuthEvent{
		ID:         "evt-1",
		Type:       model.EventVerified,
		UserKey:    "00000000deadbeef",
		Bucket:     7,
		PINLength:  4,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(context.Background(), ev))

	require.Len(t, producer.msgs, 1)
	msg := producer.msgs[0]
	assert.Equal(t, "blinkpin.auth-events", msg.topic)
	assert.Equal(t, []byte("00000000deadbeef"), msg.key)
	assert.Equal(t, "verified", msg.headers["event_type"])
	assert.Equal(t, "7", msg.headers["bucket"])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.value, &decoded))
	assert.Equal(t, "evt-1", decoded["id"])
	assert.Equal(t, "verified", decoded["type"])
	assert.Equal(t, "2026-01-02T03:04:05Z", decoded["occurred_at"])
	assert.NotContains(t, decoded, "pin_hash")
}
