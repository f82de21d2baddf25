package chat

import "time"

type ConversationType string

const (
	ConversationTypeDirect ConversationType = "direct"
	ConversationTypeGroup  ConversationType = "group"
)

type Conversation struct {
	ID          string           `gorm:"primaryKey;type:uuid"`
	Type        ConversationType `gorm:"type:varchar(10);not null;index"`
	Title       *string          // required for groups, absent for direct
	Description *string
	ImageURL    *string

	// PairKey is min(userA,userB)+":"+max(userA,userB) for direct
	// conversations; a partial unique index (see database.AutoMigrate) makes
	// the get-or-create race lose on insert instead of duplicating rows.
	PairKey *string `gorm:"index"`

	// Denormalized preview cache; MessageStore stays the source of truth.
	LastMessageID *string `gorm:"index"`
	LastMessageAt *time.Time

	// LastSeq is the per-conversation monotonic message sequence, advanced
	// only while the conversation row is locked.
	LastSeq int64 `gorm:"not null;default:0"`

	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID"`
	LastMessage  *Message                  `gorm:"foreignKey:LastMessageID"`
}

func (Conversation) TableName() string {
	return "chat.conversations"
}

func (c *Conversation) IsGroup() bool {
	return c.Type == ConversationTypeGroup
}

// PairKeyFor builds the canonical ordered pair key for a direct conversation.
func PairKeyFor(userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}
