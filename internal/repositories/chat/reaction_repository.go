package chat

import (
	"gorm.io/gorm"

	"convo_backend/internal/models/chat"
)

type ReactionRepository interface {
	Add(db *gorm.DB, reaction *chat.MessageReaction) error
	Remove(db *gorm.DB, messageID, userID, emoji string) (bool, error)
	Exists(db *gorm.DB, messageID, userID, emoji string) (bool, error)
	ListByMessage(db *gorm.DB, messageID string) ([]chat.MessageReaction, error)
}

type ReactionRepositoryImpl struct{}

func NewReactionRepository() ReactionRepository {
	return &ReactionRepositoryImpl{}
}

func (r *ReactionRepositoryImpl) Add(db *gorm.DB, reaction *chat.MessageReaction) error {
	return db.Create(reaction).Error
}

func (r *ReactionRepositoryImpl) Remove(db *gorm.DB, messageID, userID, emoji string) (bool, error) {
	result := db.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&chat.MessageReaction{})
	return result.RowsAffected > 0, result.Error
}

func (r *ReactionRepositoryImpl) Exists(db *gorm.DB, messageID, userID, emoji string) (bool, error) {
	var count int64
	err := db.Model(&chat.MessageReaction{}).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Count(&count).Error
	return count > 0, err
}

func (r *ReactionRepositoryImpl) ListByMessage(db *gorm.DB, messageID string) ([]chat.MessageReaction, error) {
	var reactions []chat.MessageReaction
	err := db.Where("message_id = ?", messageID).
		Order("created_at ASC").
		Find(&reactions).Error
	return reactions, err
}
