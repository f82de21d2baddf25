package chat

import (
	"errors"

	"gorm.io/gorm"

	"convo_backend/internal/models/chat"
)

type MessageRepository interface {
	Create(db *gorm.DB, message *chat.Message) error
	FindByID(db *gorm.DB, id string) (*chat.Message, error)
	// ListPage returns up to limit non-deleted messages in ascending seq
	// order. When beforeSeq > 0 only messages with a strictly smaller seq are
	// returned, which keeps pagination stable while new messages keep
	// arriving.
	ListPage(db *gorm.DB, conversationID string, beforeSeq int64, limit int) ([]chat.Message, error)
	Save(db *gorm.DB, message *chat.Message) error
	CountUnread(db *gorm.DB, conversationID, userID string, afterSeq int64) (int64, error)
	CountUnreadByConversation(db *gorm.DB, userID string) (map[string]int64, error)
}

type MessageRepositoryImpl struct{}

func NewMessageRepository() MessageRepository {
	return &MessageRepositoryImpl{}
}

func (r *MessageRepositoryImpl) Create(db *gorm.DB, message *chat.Message) error {
	return db.Create(message).Error
}

func (r *MessageRepositoryImpl) FindByID(db *gorm.DB, id string) (*chat.Message, error) {
	var message chat.Message
	err := db.Preload("Reactions").
		Preload("ReplyTo").
		First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (r *MessageRepositoryImpl) ListPage(db *gorm.DB, conversationID string, beforeSeq int64, limit int) ([]chat.Message, error) {
	query := db.Where("conversation_id = ? AND is_deleted = ?", conversationID, false)
	if beforeSeq > 0 {
		query = query.Where("seq < ?", beforeSeq)
	}

	var messages []chat.Message
	err := query.Preload("Reactions").
		Preload("ReplyTo").
		Order("seq DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Fetched newest-first for the limit, returned oldest-first for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepositoryImpl) Save(db *gorm.DB, message *chat.Message) error {
	return db.Save(message).Error
}

func (r *MessageRepositoryImpl) CountUnread(db *gorm.DB, conversationID, userID string, afterSeq int64) (int64, error) {
	var count int64
	err := db.Model(&chat.Message{}).
		Where("conversation_id = ? AND seq > ? AND sender_id <> ? AND is_deleted = ?",
			conversationID, afterSeq, userID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepositoryImpl) CountUnreadByConversation(db *gorm.DB, userID string) (map[string]int64, error) {
	type row struct {
		ConversationID string
		Unread         int64
	}
	var rows []row
	err := db.Raw(`
		SELECT m.conversation_id AS conversation_id, COUNT(*) AS unread
		FROM chat.messages m
		JOIN chat.conversation_participants cp
			ON cp.conversation_id = m.conversation_id AND cp.user_id = ? AND cp.is_active = true
		WHERE m.seq > cp.last_read_seq AND m.sender_id <> ? AND m.is_deleted = false
		GROUP BY m.conversation_id`, userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ConversationID] = r.Unread
	}
	return counts, nil
}
