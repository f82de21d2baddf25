package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	envelopes []Envelope
}

func (p *capturingPublisher) Publish(envelope Envelope) {
	p.envelopes = append(p.envelopes, envelope)
}

func TestNewEnvelope(t *testing.T) {
	payload := TypingPayload{UserID: "u1", IsTyping: true}

	envelope, err := NewEnvelope(TypeTyping, "c1", "u1", []string{"u1", "u2"}, payload)
	require.NoError(t, err)

	assert.Equal(t, TypeTyping, envelope.Type)
	assert.Equal(t, "c1", envelope.ConversationID)
	assert.Equal(t, []string{"u1", "u2"}, envelope.Recipients)
	assert.False(t, envelope.OccurredAt.IsZero())

	var decoded TypingPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestEnvelopeJSONHidesRecipients(t *testing.T) {
	envelope, err := NewEnvelope(TypeMessageSent, "c1", "u1", []string{"u2"}, map[string]string{"k": "v"})
	require.NoError(t, err)

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "recipients")
}

func TestFanout(t *testing.T) {
	first := &capturingPublisher{}
	second := &capturingPublisher{}
	fanout := NewFanout(first, second)

	envelope, err := NewEnvelope(TypeMessageSent, "c1", "u1", nil, struct{}{})
	require.NoError(t, err)
	fanout.Publish(envelope)

	require.Len(t, first.envelopes, 1)
	require.Len(t, second.envelopes, 1)
	assert.Equal(t, TypeMessageSent, first.envelopes[0].Type)
}
