package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"convo_backend/internal/directory"
	"convo_backend/internal/events"
	"convo_backend/internal/models/chat"
	"convo_backend/internal/repositories"
	chatrepo "convo_backend/internal/repositories/chat"
	"convo_backend/pkg/apperrors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// SendMessageInput carries the validated body of a send request.
type SendMessageInput struct {
	Content   string
	MediaURL  *string
	MediaType *string
	ReplyToID *string
}

type MessageService interface {
	Send(db *gorm.DB, senderID, conversationID string, input SendMessageInput) (*chat.Message, error)
	Edit(db *gorm.DB, userID, messageID, content string) (*chat.Message, error)
	Delete(db *gorm.DB, userID, messageID string) error
	// ListPage pages history backwards: beforeID is a message id cursor, the
	// result is the limit messages preceding it in ascending seq order.
	ListPage(db *gorm.DB, userID, conversationID, beforeID string, limit int) ([]chat.Message, error)
	Get(db *gorm.DB, userID, messageID string) (*chat.Message, error)
}

type MessageServiceImpl struct {
	conversations chatrepo.ConversationRepository
	participants  chatrepo.ParticipantRepository
	messages      chatrepo.MessageRepository
	directory     directory.Directory
	publisher     events.Publisher
}

func NewMessageService(
	conversations chatrepo.ConversationRepository,
	participants chatrepo.ParticipantRepository,
	messages chatrepo.MessageRepository,
	dir directory.Directory,
	publisher events.Publisher,
) MessageService {
	return &MessageServiceImpl{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		directory:     dir,
		publisher:     publisher,
	}
}

func (s *MessageServiceImpl) Send(db *gorm.DB, senderID, conversationID string, input SendMessageInput) (*chat.Message, error) {
	message := &chat.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        input.Content,
		MediaURL:       input.MediaURL,
		MediaType:      input.MediaType,
		ReplyToID:      input.ReplyToID,
	}
	if !message.HasBody() {
		return nil, apperrors.ErrInvalidMessage
	}

	var roster []string

	err := db.Transaction(func(tx *gorm.DB) error {
		conversation, err := s.conversations.FindByIDForUpdate(tx, conversationID)
		if err != nil {
			return err
		}

		// Membership before liveness: someone who left sees NotMember, not a
		// conflict about the room they are no longer in.
		if _, err := s.participants.FindActive(tx, conversationID, senderID); err != nil {
			if errors.Is(err, chatrepo.ErrParticipantNotFound) {
				return apperrors.ErrNotMember
			}
			return err
		}
		if !conversation.IsActive {
			return apperrors.ErrConversationInactive
		}

		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		if err != nil {
			return err
		}

		// A block placed after the conversation opened still silences it.
		if !conversation.IsGroup() {
			for _, memberID := range roster {
				if memberID == senderID {
					continue
				}
				allowed, err := s.directory.CanMessage(tx, senderID, memberID)
				if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
					return err
				}
				if err != nil || !allowed {
					return apperrors.ErrCannotMessageUser
				}
			}
		}

		if input.ReplyToID != nil {
			replyTo, err := s.messages.FindByID(tx, *input.ReplyToID)
			if err != nil {
				if errors.Is(err, chatrepo.ErrMessageNotFound) {
					return apperrors.ErrInvalidReply
				}
				return err
			}
			if replyTo.ConversationID != conversationID {
				return apperrors.ErrInvalidReply
			}
		}

		// Seq is handed out under the row lock, so it is gapless-monotonic
		// per conversation and the preview cache below can never go stale.
		conversation.LastSeq++
		message.Seq = conversation.LastSeq

		if err := s.messages.Create(tx, message); err != nil {
			return err
		}

		now := message.CreatedAt
		if now.IsZero() {
			now = time.Now().UTC()
		}
		conversation.LastMessageID = &message.ID
		conversation.LastMessageAt = &now
		if err := s.conversations.Save(tx, conversation); err != nil {
			return err
		}

		// Your own message never counts as unread.
		return s.participants.AdvanceWatermark(tx, conversationID, senderID, message.Seq, now)
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	sent, err := s.messages.FindByID(db, message.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publishMessage(db, events.TypeMessageSent, sent, roster)
	return sent, nil
}

func (s *MessageServiceImpl) Edit(db *gorm.DB, userID, messageID, content string) (*chat.Message, error) {
	var roster []string

	err := db.Transaction(func(tx *gorm.DB) error {
		message, _, err := s.lockMessageForMember(tx, messageID, userID)
		if err != nil {
			return err
		}
		if message.SenderID != userID {
			return apperrors.ErrPermissionDenied
		}
		if message.IsDeleted {
			return apperrors.ErrMessageNotFound
		}
		// A media message may drop its caption; a plain one must keep a body.
		if content == "" && message.MediaURL == nil {
			return apperrors.ErrInvalidMessage
		}

		message.Content = content
		if err := s.messages.Save(tx, message); err != nil {
			return err
		}

		roster, err = s.participants.ActiveUserIDs(tx, message.ConversationID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	edited, err := s.messages.FindByID(db, messageID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publishMessage(db, events.TypeMessageEdited, edited, roster)
	return edited, nil
}

func (s *MessageServiceImpl) Delete(db *gorm.DB, userID, messageID string) error {
	var (
		conversationID string
		roster         []string
	)
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		message, _, err := s.lockMessageForMember(tx, messageID, userID)
		if err != nil {
			return err
		}
		if message.SenderID != userID {
			return apperrors.ErrPermissionDenied
		}
		if message.IsDeleted {
			return nil // already a tombstone, deleting again is a no-op
		}

		message.IsDeleted = true
		if err := s.messages.Save(tx, message); err != nil {
			return err
		}

		conversationID = message.ConversationID
		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		return err
	})
	if err != nil {
		return asServiceError(err)
	}
	if conversationID == "" {
		return nil
	}

	envelope, err := events.NewEnvelope(events.TypeMessageDeleted, conversationID, userID, roster,
		events.MessageDeletedPayload{MessageID: messageID, DeletedAt: now})
	if err == nil {
		s.publisher.Publish(envelope)
	}
	return nil
}

func (s *MessageServiceImpl) ListPage(db *gorm.DB, userID, conversationID, beforeID string, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	member, err := s.participants.IsActiveMember(db, conversationID, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !member {
		return nil, apperrors.ErrNotMember
	}

	var beforeSeq int64
	if beforeID != "" {
		cursor, err := s.messages.FindByID(db, beforeID)
		if err != nil {
			if errors.Is(err, chatrepo.ErrMessageNotFound) {
				return nil, apperrors.NewBadRequestError("Unknown pagination cursor")
			}
			return nil, apperrors.InternalError(err)
		}
		if cursor.ConversationID != conversationID {
			return nil, apperrors.NewBadRequestError("Pagination cursor belongs to another conversation")
		}
		beforeSeq = cursor.Seq
	}

	messages, err := s.messages.ListPage(db, conversationID, beforeSeq, limit)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return messages, nil
}

func (s *MessageServiceImpl) Get(db *gorm.DB, userID, messageID string) (*chat.Message, error) {
	message, err := s.messages.FindByID(db, messageID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrMessageNotFound) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	member, err := s.participants.IsActiveMember(db, message.ConversationID, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !member {
		return nil, apperrors.ErrNotMember
	}
	return message, nil
}

// lockMessageForMember resolves the message, takes the conversation row lock
// and verifies the caller's membership, in that order, so every message
// mutation serializes behind the same lock sends use.
func (s *MessageServiceImpl) lockMessageForMember(tx *gorm.DB, messageID, userID string) (*chat.Message, *chat.Conversation, error) {
	message, err := s.messages.FindByID(tx, messageID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrMessageNotFound) {
			return nil, nil, apperrors.ErrMessageNotFound
		}
		return nil, nil, err
	}

	conversation, err := s.conversations.FindByIDForUpdate(tx, message.ConversationID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.participants.FindActive(tx, message.ConversationID, userID); err != nil {
		if errors.Is(err, chatrepo.ErrParticipantNotFound) {
			return nil, nil, apperrors.ErrNotMember
		}
		return nil, nil, err
	}
	return message, conversation, nil
}

func (s *MessageServiceImpl) publishMessage(db *gorm.DB, eventType string, message *chat.Message, roster []string) {
	payload := events.MessagePayload{
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		MediaURL:       message.MediaURL,
		MediaType:      message.MediaType,
		ReplyToID:      message.ReplyToID,
		Seq:            message.Seq,
		CreatedAt:      message.CreatedAt,
	}
	if sender, err := s.directory.ResolveUser(db, message.SenderID); err == nil {
		payload.Sender = sender.Summary()
	}
	if message.ReplyTo != nil {
		content := message.ReplyTo.Content
		if message.ReplyTo.IsDeleted {
			content = ""
		}
		payload.ReplyTo = &events.MessagePayload{
			MessageID:      message.ReplyTo.ID,
			ConversationID: message.ReplyTo.ConversationID,
			SenderID:       message.ReplyTo.SenderID,
			Content:        content,
			Seq:            message.ReplyTo.Seq,
			CreatedAt:      message.ReplyTo.CreatedAt,
		}
	}
	if eventType == events.TypeMessageEdited {
		editedAt := message.UpdatedAt
		payload.EditedAt = &editedAt
	}

	envelope, err := events.NewEnvelope(eventType, message.ConversationID, message.SenderID, roster, payload)
	if err != nil {
		return
	}
	s.publisher.Publish(envelope)
}
