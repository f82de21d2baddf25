package chat

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"convo_backend/internal/models/chat"
)

type ParticipantRepository interface {
	Create(db *gorm.DB, participant *chat.ConversationParticipant) error
	CreateMany(db *gorm.DB, participants []chat.ConversationParticipant) error
	// Find returns the row regardless of IsActive; callers decide whether an
	// inactive row means "reactivate" or "not a member".
	Find(db *gorm.DB, conversationID, userID string) (*chat.ConversationParticipant, error)
	FindActive(db *gorm.DB, conversationID, userID string) (*chat.ConversationParticipant, error)
	ListActive(db *gorm.DB, conversationID string) ([]chat.ConversationParticipant, error)
	ListActiveByUser(db *gorm.DB, userID string) ([]chat.ConversationParticipant, error)
	ActiveUserIDs(db *gorm.DB, conversationID string) ([]string, error)
	IsActiveMember(db *gorm.DB, conversationID, userID string) (bool, error)
	Save(db *gorm.DB, participant *chat.ConversationParticipant) error
	// AdvanceWatermark moves the read watermark forward only; a stale seq
	// never pulls it back.
	AdvanceWatermark(db *gorm.DB, conversationID, userID string, seq int64, at time.Time) error
}

type ParticipantRepositoryImpl struct{}

func NewParticipantRepository() ParticipantRepository {
	return &ParticipantRepositoryImpl{}
}

func (r *ParticipantRepositoryImpl) Create(db *gorm.DB, participant *chat.ConversationParticipant) error {
	return db.Create(participant).Error
}

func (r *ParticipantRepositoryImpl) CreateMany(db *gorm.DB, participants []chat.ConversationParticipant) error {
	if len(participants) == 0 {
		return nil
	}
	return db.Create(&participants).Error
}

func (r *ParticipantRepositoryImpl) Find(db *gorm.DB, conversationID, userID string) (*chat.ConversationParticipant, error) {
	var participant chat.ConversationParticipant
	err := db.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *ParticipantRepositoryImpl) FindActive(db *gorm.DB, conversationID, userID string) (*chat.ConversationParticipant, error) {
	var participant chat.ConversationParticipant
	err := db.Where("conversation_id = ? AND user_id = ? AND is_active = ?", conversationID, userID, true).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &participant, nil
}

func (r *ParticipantRepositoryImpl) ListActive(db *gorm.DB, conversationID string) ([]chat.ConversationParticipant, error) {
	var participants []chat.ConversationParticipant
	err := db.Where("conversation_id = ? AND is_active = ?", conversationID, true).
		Order("joined_at ASC, user_id ASC").
		Find(&participants).Error
	return participants, err
}

func (r *ParticipantRepositoryImpl) ListActiveByUser(db *gorm.DB, userID string) ([]chat.ConversationParticipant, error) {
	var participants []chat.ConversationParticipant
	err := db.Where("user_id = ? AND is_active = ?", userID, true).
		Find(&participants).Error
	return participants, err
}

func (r *ParticipantRepositoryImpl) ActiveUserIDs(db *gorm.DB, conversationID string) ([]string, error) {
	var ids []string
	err := db.Model(&chat.ConversationParticipant{}).
		Where("conversation_id = ? AND is_active = ?", conversationID, true).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ParticipantRepositoryImpl) IsActiveMember(db *gorm.DB, conversationID, userID string) (bool, error) {
	var count int64
	err := db.Model(&chat.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND is_active = ?", conversationID, userID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *ParticipantRepositoryImpl) Save(db *gorm.DB, participant *chat.ConversationParticipant) error {
	return db.Save(participant).Error
}

func (r *ParticipantRepositoryImpl) AdvanceWatermark(db *gorm.DB, conversationID, userID string, seq int64, at time.Time) error {
	result := db.Model(&chat.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ? AND is_active = ?", conversationID, userID, true).
		Updates(map[string]interface{}{
			"last_read_seq": gorm.Expr("GREATEST(last_read_seq, ?)", seq),
			"last_read_at":  gorm.Expr("GREATEST(COALESCE(last_read_at, 'epoch'::timestamptz), ?)", at),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
