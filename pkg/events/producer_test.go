package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope("order_created", map[string]any{"order_id": "abc"})
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, "order_created", env.Type)
	assert.False(t, env.OccurredAt.IsZero())

	b, err := json.Marshal(env)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "order_created", back["type"])
	assert.Equal(t, "abc", back["payload"].(map[string]any)["order_id"])
}

func TestNew_NoBrokersIsNop(t *testing.T) {
	p := New(nil, "shop")
	_, ok := p.(NopPublisher)
	require.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), TopicOrderEvents, "k", NewEnvelope("x", nil)))
	assert.NoError(t, p.Close())
}

func TestNew_WithBrokers(t *testing.T) {
	p := New([]string{"localhost:9092"}, "shop")
	kp, ok := p.(*KafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "shop", kp.producer)
	assert.NoError(t, kp.Close())
}
