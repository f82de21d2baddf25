package chat

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"convo_backend/internal/models/chat"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrParticipantNotFound  = errors.New("participant not found")
)

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505). The loser of the get-or-create race sees this
// and re-reads instead of surfacing an error.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type ConversationRepository interface {
	Create(db *gorm.DB, conversation *chat.Conversation) error
	FindByID(db *gorm.DB, id string) (*chat.Conversation, error)
	// FindByIDForUpdate locks the conversation row for the duration of the
	// surrounding transaction; every mutating operation goes through it.
	FindByIDForUpdate(db *gorm.DB, id string) (*chat.Conversation, error)
	FindActiveDirectByPairKey(db *gorm.DB, pairKey string) (*chat.Conversation, error)
	FindAllByUser(db *gorm.DB, userID string) ([]chat.Conversation, error)
	Save(db *gorm.DB, conversation *chat.Conversation) error
}

type ConversationRepositoryImpl struct{}

func NewConversationRepository() ConversationRepository {
	return &ConversationRepositoryImpl{}
}

func (r *ConversationRepositoryImpl) Create(db *gorm.DB, conversation *chat.Conversation) error {
	return db.Create(conversation).Error
}

func (r *ConversationRepositoryImpl) FindByID(db *gorm.DB, id string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	err := db.Preload("Participants").Preload("LastMessage").
		First(&conversation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepositoryImpl) FindByIDForUpdate(db *gorm.DB, id string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&conversation, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

func (r *ConversationRepositoryImpl) FindActiveDirectByPairKey(db *gorm.DB, pairKey string) (*chat.Conversation, error) {
	var conversation chat.Conversation
	err := db.Preload("Participants").Preload("LastMessage").
		Where("type = ? AND pair_key = ? AND is_active = ?", chat.ConversationTypeDirect, pairKey, true).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &conversation, nil
}

// FindAllByUser returns every conversation where the user holds an active
// participant row, most recently active first.
func (r *ConversationRepositoryImpl) FindAllByUser(db *gorm.DB, userID string) ([]chat.Conversation, error) {
	var conversations []chat.Conversation
	err := db.
		Joins("JOIN chat.conversation_participants cp ON cp.conversation_id = \"chat\".\"conversations\".id").
		Where("cp.user_id = ? AND cp.is_active = ?", userID, true).
		Preload("Participants").
		Preload("LastMessage").
		Order("COALESCE(\"chat\".\"conversations\".last_message_at, \"chat\".\"conversations\".created_at) DESC").
		Find(&conversations).Error
	return conversations, err
}

func (r *ConversationRepositoryImpl) Save(db *gorm.DB, conversation *chat.Conversation) error {
	return db.Save(conversation).Error
}
