package client_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blink-pin/internal/client"
	"blink-pin/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *client.RedisClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := client.NewRedisClient(config.RedisConfig{
		Enabled:  true,
		URL:      "redis://" + mr.Addr(),
		PoolSize: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })
	return mr, rc
}

func TestRedisClientOperations(t *testing.T) {
	mr, rc := newRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.HealthCheck(ctx))

	_, err := rc.Get(ctx, "missing")
	assert.ErrorIs(t, err, client.ErrKeyNotFound)

	require.NoError(t, rc.Set(ctx, "k", "v", time.Minute))
	v, err := rc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, err := rc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ttl, err := rc.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	require.NoError(t, rc.Del(ctx, "k"))
	ok, err = rc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := rc.IncrWithExpire(ctx, "counter", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = rc.IncrWithExpire(ctx, "counter", 30*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, 30*time.Second, mr.TTL("counter"))
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	_, err := client.NewRedisClient(config.RedisConfig{URL: "http://nope", PoolSize: 1})
	assert.Error(t, err)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type fakeReader struct {
	msgs []kafka.Message
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error { return nil }

func TestKafkaProducerProduceMessage(t *testing.T) {
	w := &fakeWriter{}
	p := &client.KafkaProducer{Writer: w}

	err := p.ProduceMessage(context.Background(), "events", []byte("k"), []byte(`{"a":1}`),
		map[string]string{"event_type": "verified"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "events", w.msgs[0].Topic)
	assert.Equal(t, []byte("k"), w.msgs[0].Key)
	require.Len(t, w.msgs[0].Headers, 1)
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)

	w.err = errors.New("broker down")
	err = p.ProduceMessage(context.Background(), "events", nil, nil, nil)
	assert.ErrorContains(t, err, "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaConsumerConsumeMessage(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{{Topic: "landmarks", Value: []byte("{}")}}}
	c := &client.KafkaConsumer{Reader: r}

	msg, err := c.ConsumeMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "landmarks", msg.Topic)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.ConsumeMessage(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKafkaHealthCheckWithoutBrokers(t *testing.T) {
	p := &client.KafkaProducer{Writer: &fakeWriter{}}
	assert.Error(t, p.HealthCheck(context.Background()))

	c := &client.KafkaConsumer{Reader: &fakeReader{}}
	assert.Error(t, c.HealthCheck(context.Background()))
}

func TestKafkaConsumerHealthCheckUnreachableBroker(t *testing.T) {
	c := client.NewKafkaConsumer(config.KafkaConfig{Brokers: []string{"127.0.0.1:1"}}, "landmarks", "capture")
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	assert.Error(t, c.HealthCheck(ctx))
}
