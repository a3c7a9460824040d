package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	payload := StepCompletePayload{StepIndex: 42, Converged: true, OuterIterations: 3}

	msg, err := NewEnvelope(TypeStepComplete, payload)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeStepComplete, env.Type)

	var parsed StepCompletePayload
	require.NoError(t, json.Unmarshal(env.Payload, &parsed))
	assert.Equal(t, 42, parsed.StepIndex)
	assert.True(t, parsed.Converged)
	assert.Equal(t, 3, parsed.OuterIterations)
}

func TestNewEnvelope_NoPayload(t *testing.T) {
	msg, err := NewEnvelope(TypeRunStart, nil)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeRunStart, env.Type)
	assert.Nil(t, env.Payload)
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := &Client{hub: hub, send: make(chan []byte, 16)}

	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_Broadcast(t *testing.T) {
	hub := NewHub()
	c1 := &Client{hub: hub, send: make(chan []byte, 16)}
	c2 := &Client{hub: hub, send: make(chan []byte, 16)}
	hub.Register(c1)
	hub.Register(c2)

	msg := []byte(`{"type":"run:step_complete"}`)
	hub.Broadcast(msg)

	assert.Equal(t, msg, <-c1.send)
	assert.Equal(t, msg, <-c2.send)
}

func TestMessageTypes(t *testing.T) {
	assert.Equal(t, "run:start", TypeRunStart)
	assert.Equal(t, "run:started", TypeRunStarted)
	assert.Equal(t, "run:step_complete", TypeStepComplete)
	assert.Equal(t, "run:finished", TypeRunFinished)
	assert.Equal(t, "dispatch:hour_complete", TypeDispatchHour)
	assert.Equal(t, "dispatch:summary", TypeDispatchSummary)
	assert.Equal(t, "error", TypeError)
}
