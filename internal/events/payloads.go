package events

import (
	"time"

	"convo_backend/internal/models"
)

type MessagePayload struct {
	MessageID      string              `json:"message_id"`
	ConversationID string              `json:"conversation_id"`
	SenderID       string              `json:"sender_id"`
	Sender         *models.UserSummary `json:"sender,omitempty"`
	ReplyTo        *MessagePayload     `json:"reply_to,omitempty"`
	Content        string              `json:"content"`
	MediaURL       *string             `json:"media_url,omitempty"`
	MediaType      *string             `json:"media_type,omitempty"`
	ReplyToID      *string             `json:"reply_to_id,omitempty"`
	Seq            int64               `json:"seq"`
	CreatedAt      time.Time           `json:"created_at"`
	EditedAt       *time.Time          `json:"edited_at,omitempty"`
}

type MessageDeletedPayload struct {
	MessageID string    `json:"message_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

type ReadChangedPayload struct {
	UserID      string    `json:"user_id"`
	LastReadSeq int64     `json:"last_read_seq"`
	ReadAt      time.Time `json:"read_at"`
}

// ReactionSummary is the full state of one emoji on a message after a toggle,
// so clients replace rather than diff.
type ReactionSummary struct {
	Emoji   string   `json:"emoji"`
	Count   int      `json:"count"`
	UserIDs []string `json:"user_ids"`
}

type ReactionChangedPayload struct {
	MessageID string            `json:"message_id"`
	Reactions []ReactionSummary `json:"reactions"`
}

type ParticipantChangedPayload struct {
	UserID string `json:"user_id"`
	// Action is one of joined, left, removed, promoted, owner_changed.
	Action  string    `json:"action"`
	Role    string    `json:"role,omitempty"`
	ActedAt time.Time `json:"acted_at"`
}

type TypingPayload struct {
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}
