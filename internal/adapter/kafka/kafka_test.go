package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestMapMessageToRawEvent(t *testing.T) {
	ts := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	msg := kafkago.Message{
		Topic:     "validated-alerts",
		Partition: 2,
		Offset:    41,
		Key:       []byte("alert-123"),
		Value:     []byte(`{"alert_id":"alert-123"}`),
		Time:      ts,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("validator")},
			{Key: "schema", Value: []byte("v1")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, "validated-alerts", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(41), raw.Offset)
	assert.Equal(t, []byte("alert-123"), raw.Key)
	assert.Equal(t, []byte(`{"alert_id":"alert-123"}`), raw.Value)
	assert.Equal(t, ts, raw.Timestamp)
	assert.Equal(t, map[string]string{"source": "validator", "schema": "v1"}, raw.Headers)
	assert.Nil(t, raw.Commit)
}

func TestMapMessageToRawEvent_NoHeaders(t *testing.T) {
	raw := mapMessageToRawEvent(kafkago.Message{Value: []byte("{}")})
	assert.Empty(t, raw.Headers)
}
