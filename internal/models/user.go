package models

import "time"

type User struct {
	BaseModel
	Name         string     `gorm:"not null"`
	Email        string     `gorm:"uniqueIndex;not null"`
	PasswordHash string     `gorm:"not null"`
	Role         UserRole   `gorm:"type:varchar(20);not null;default:'user'"`
	Status       UserStatus `gorm:"type:varchar(20);default:'active'"`
	AvatarURL    *string
}

// UserSummary is the lightweight projection handed out by the participant
// directory and embedded in message payloads.
type UserSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, AvatarURL: u.AvatarURL}
}

// UserBlock is a one-directional block; its existence in either direction
// prevents the pair from opening a direct conversation.
type UserBlock struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	BlockerID string    `gorm:"uniqueIndex:uq_block_pair;not null"`
	BlockedID string    `gorm:"uniqueIndex:uq_block_pair;not null"`
	CreatedAt time.Time `gorm:"default:now()"`
}
