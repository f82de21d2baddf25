// Package events defines the envelope delivered to conversation members after
// a mutation commits, and the Publisher fan-out contract.
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeMessageSent        = "message.sent"
	TypeMessageEdited      = "message.edited"
	TypeMessageDeleted     = "message.deleted"
	TypeReactionChanged    = "reaction.changed"
	TypeParticipantChanged = "participant.changed"
	TypeConversationUpdate = "conversation.updated"
	TypeReadChanged        = "read.changed"
	TypeTyping             = "typing"
)

// Envelope is the unit of delivery. Recipients is resolved from the active
// roster at publish time; transports that cannot target users individually
// may ignore it.
type Envelope struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	ActorID        string          `json:"actor_id"`
	Recipients     []string        `json:"-"`
	Payload        json.RawMessage `json:"payload"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func NewEnvelope(eventType, conversationID, actorID string, recipients []string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Type:           eventType,
		ConversationID: conversationID,
		ActorID:        actorID,
		Recipients:     recipients,
		Payload:        raw,
		OccurredAt:     time.Now().UTC(),
	}, nil
}

// Publisher delivers an envelope to its recipients. Implementations must be
// safe for concurrent use; delivery failures are logged, never returned to
// the request path.
type Publisher interface {
	Publish(envelope Envelope)
}

// Fanout forwards every envelope to each wrapped publisher.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Publish(envelope Envelope) {
	for _, p := range f.publishers {
		p.Publish(envelope)
	}
}

// NopPublisher drops everything. Used in tests and when no transport is
// configured.
type NopPublisher struct{}

func (NopPublisher) Publish(Envelope) {}
