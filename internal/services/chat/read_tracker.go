package chat

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"convo_backend/internal/events"
	chatrepo "convo_backend/internal/repositories/chat"
	"convo_backend/pkg/apperrors"
)

type ReadTracker interface {
	// MarkRead advances the caller's watermark to the given message, or to
	// the newest message when messageID is empty. Marking an older message
	// than the current watermark is a no-op, never a regression. Returns the
	// watermark after the call.
	MarkRead(db *gorm.DB, userID, conversationID, messageID string) (int64, error)
	UnreadCount(db *gorm.DB, userID, conversationID string) (int64, error)
	UnreadCounts(db *gorm.DB, userID string) (map[string]int64, error)
}

type ReadTrackerImpl struct {
	conversations chatrepo.ConversationRepository
	participants  chatrepo.ParticipantRepository
	messages      chatrepo.MessageRepository
	publisher     events.Publisher
}

func NewReadTracker(
	conversations chatrepo.ConversationRepository,
	participants chatrepo.ParticipantRepository,
	messages chatrepo.MessageRepository,
	publisher events.Publisher,
) ReadTracker {
	return &ReadTrackerImpl{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		publisher:     publisher,
	}
}

func (t *ReadTrackerImpl) MarkRead(db *gorm.DB, userID, conversationID, messageID string) (int64, error) {
	var upToSeq int64
	if messageID == "" {
		conversation, err := t.conversations.FindByID(db, conversationID)
		if err != nil {
			if errors.Is(err, chatrepo.ErrConversationNotFound) {
				return 0, apperrors.ErrConversationNotFound
			}
			return 0, apperrors.InternalError(err)
		}
		upToSeq = conversation.LastSeq
	} else {
		message, err := t.messages.FindByID(db, messageID)
		if err != nil {
			if errors.Is(err, chatrepo.ErrMessageNotFound) {
				return 0, apperrors.ErrMessageNotFound
			}
			return 0, apperrors.InternalError(err)
		}
		if message.ConversationID != conversationID {
			return 0, apperrors.NewBadRequestError("Message belongs to another conversation")
		}
		upToSeq = message.Seq
	}

	now := time.Now().UTC()
	if err := t.participants.AdvanceWatermark(db, conversationID, userID, upToSeq, now); err != nil {
		if errors.Is(err, chatrepo.ErrParticipantNotFound) {
			return 0, apperrors.ErrNotMember
		}
		return 0, apperrors.InternalError(err)
	}

	// Re-read rather than assume: a concurrent mark may have raced us higher.
	participant, err := t.participants.FindActive(db, conversationID, userID)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}

	roster, err := t.participants.ActiveUserIDs(db, conversationID)
	if err == nil {
		envelope, envErr := events.NewEnvelope(events.TypeReadChanged, conversationID, userID, roster,
			events.ReadChangedPayload{UserID: userID, LastReadSeq: participant.LastReadSeq, ReadAt: now})
		if envErr == nil {
			t.publisher.Publish(envelope)
		}
	}
	return participant.LastReadSeq, nil
}

func (t *ReadTrackerImpl) UnreadCount(db *gorm.DB, userID, conversationID string) (int64, error) {
	participant, err := t.participants.FindActive(db, conversationID, userID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrParticipantNotFound) {
			return 0, apperrors.ErrNotMember
		}
		return 0, apperrors.InternalError(err)
	}

	count, err := t.messages.CountUnread(db, conversationID, userID, participant.LastReadSeq)
	if err != nil {
		return 0, apperrors.InternalError(err)
	}
	return count, nil
}

func (t *ReadTrackerImpl) UnreadCounts(db *gorm.DB, userID string) (map[string]int64, error) {
	counts, err := t.messages.CountUnreadByConversation(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return counts, nil
}
