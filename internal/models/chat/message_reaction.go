package chat

import "time"

// MessageReaction holds one user's reaction on a message. The unique triple
// (message, user, emoji) gives toggling its idempotent shape.
type MessageReaction struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	MessageID string `gorm:"uniqueIndex:uq_message_user_emoji;index;not null"`
	UserID    string `gorm:"uniqueIndex:uq_message_user_emoji;not null"`
	Emoji     string `gorm:"uniqueIndex:uq_message_user_emoji;type:varchar(16);not null"`
	CreatedAt time.Time
}

func (MessageReaction) TableName() string {
	return "chat.message_reactions"
}
