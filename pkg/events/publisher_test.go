package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafkaGo.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w}

	err := p.Publish(context.Background(), "orders", "20260101-000000000001", map[string]string{"type": "order.created"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "orders", msg.Topic)
	assert.Equal(t, "20260101-000000000001", string(msg.Key))

	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "order.created", body["type"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublisher_PublishErrors(t *testing.T) {
	p := &Publisher{writer: &recordingWriter{err: errors.New("broker down")}}
	err := p.Publish(context.Background(), "orders", "k", struct{}{})
	assert.ErrorContains(t, err, "broker down")

	err = p.Publish(context.Background(), "orders", "k", make(chan int))
	assert.ErrorContains(t, err, "marshal")
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.Publish(context.Background(), "orders", "k", nil))
	assert.NoError(t, p.Close())
}
