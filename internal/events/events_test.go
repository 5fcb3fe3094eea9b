package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp091.Publishing
	err      error
	closed   bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	f.exchange, f.key, f.msg = exchange, key, msg
	return f.err
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{channel: ch, exchange: "streamsplit"}

	at := time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)
	err := p.Publish(context.Background(), Event{
		Type:       PaymentMarked,
		OccurredAt: at,
		MemberID:   "m1",
		PaymentID:  "p1",
		Month:      "octubre de 2026",
	})
	require.NoError(t, err)

	assert.Equal(t, "streamsplit", ch.exchange)
	assert.Equal(t, "payment.marked", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, at, ch.msg.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "payment.marked", decoded["type"])
	assert.Equal(t, "octubre de 2026", decoded["month"])
	assert.NotContains(t, decoded, "service_id")

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestAMQPPublisher_PublishError(t *testing.T) {
	p := &AMQPPublisher{channel: &fakeChannel{err: errors.New("channel closed")}, exchange: "x"}

	err := p.Publish(context.Background(), Event{Type: MemberAdded})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	require.NoError(t, r.Publish(context.Background(), Event{Type: ServiceAdded}))
	require.NoError(t, r.Publish(context.Background(), Event{Type: ServiceRemoved}))

	assert.Equal(t, []Type{ServiceAdded, ServiceRemoved}, r.Types())
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{}))
}
