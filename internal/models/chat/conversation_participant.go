package chat

import "time"

type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "owner"
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

// ConversationParticipant is one user's membership in a conversation. A user
// has at most one row per conversation; leaving flips IsActive instead of
// deleting, and re-adding reactivates the same row.
type ConversationParticipant struct {
	ID             string          `gorm:"primaryKey;type:uuid"`
	ConversationID string          `gorm:"uniqueIndex:uq_conversation_user;not null"`
	UserID         string          `gorm:"uniqueIndex:uq_conversation_user;index;not null"`
	Role           ParticipantRole `gorm:"type:varchar(10);not null;default:'member'"`
	IsActive       bool            `gorm:"not null;default:true"`
	JoinedAt       time.Time
	LeftAt         *time.Time

	// Read watermark. LastReadSeq is monotonic and drives unread counts;
	// LastReadAt is kept for display.
	LastReadSeq int64 `gorm:"not null;default:0"`
	LastReadAt  *time.Time
}

func (ConversationParticipant) TableName() string {
	return "chat.conversation_participants"
}

func (p *ConversationParticipant) CanManageParticipants() bool {
	return p.Role == RoleOwner || p.Role == RoleAdmin
}
