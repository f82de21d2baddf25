package chat

import "time"

type Message struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	ConversationID string `gorm:"index:idx_conversation_created,priority:1;uniqueIndex:uq_conversation_seq;not null"`
	SenderID       string `gorm:"index;not null"`
	Content        string `gorm:"type:text"`
	MediaURL       *string
	MediaType      *string `gorm:"type:varchar(20)"` // image, video, file
	ReplyToID      *string `gorm:"index"`

	// Seq is assigned from Conversation.LastSeq inside the send transaction;
	// ordering and unread math use it instead of wall-clock timestamps.
	Seq int64 `gorm:"uniqueIndex:uq_conversation_seq;not null"`

	// Tombstone flag; rows are never removed so reply chains stay resolvable.
	IsDeleted bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"index:idx_conversation_created,priority:2"`
	UpdatedAt time.Time

	ReplyTo   *Message          `gorm:"foreignKey:ReplyToID"`
	Reactions []MessageReaction `gorm:"foreignKey:MessageID"`
}

func (Message) TableName() string {
	return "chat.messages"
}

// HasBody reports whether the message satisfies the content-or-media rule.
func (m *Message) HasBody() bool {
	return m.Content != "" || (m.MediaURL != nil && *m.MediaURL != "")
}
