package chat

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"convo_backend/internal/events"
	"convo_backend/internal/models/chat"
	chatrepo "convo_backend/internal/repositories/chat"
	"convo_backend/pkg/apperrors"
)

type ReactionService interface {
	// Toggle flips the caller's reaction: absent adds, present removes.
	// Returns the full reaction state of the message afterwards and whether
	// the toggle added.
	Toggle(db *gorm.DB, userID, messageID, emoji string) ([]events.ReactionSummary, bool, error)
}

type ReactionServiceImpl struct {
	conversations chatrepo.ConversationRepository
	participants  chatrepo.ParticipantRepository
	messages      chatrepo.MessageRepository
	reactions     chatrepo.ReactionRepository
	publisher     events.Publisher
}

func NewReactionService(
	conversations chatrepo.ConversationRepository,
	participants chatrepo.ParticipantRepository,
	messages chatrepo.MessageRepository,
	reactions chatrepo.ReactionRepository,
	publisher events.Publisher,
) ReactionService {
	return &ReactionServiceImpl{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		reactions:     reactions,
		publisher:     publisher,
	}
}

func (s *ReactionServiceImpl) Toggle(db *gorm.DB, userID, messageID, emoji string) ([]events.ReactionSummary, bool, error) {
	var (
		conversationID string
		added          bool
		summaries      []events.ReactionSummary
		roster         []string
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		message, err := s.messages.FindByID(tx, messageID)
		if err != nil {
			return err
		}
		if message.IsDeleted {
			return apperrors.ErrMessageNotFound
		}
		conversationID = message.ConversationID

		// The conversation lock serializes concurrent toggles of the same
		// pair, so the unique index never fires in normal operation.
		if _, err := s.conversations.FindByIDForUpdate(tx, conversationID); err != nil {
			return err
		}
		if _, err := s.participants.FindActive(tx, conversationID, userID); err != nil {
			if errors.Is(err, chatrepo.ErrParticipantNotFound) {
				return apperrors.ErrNotMember
			}
			return err
		}

		present, err := s.reactions.Exists(tx, messageID, userID, emoji)
		if err != nil {
			return err
		}
		if present {
			if _, err := s.reactions.Remove(tx, messageID, userID, emoji); err != nil {
				return err
			}
		} else {
			reaction := &chat.MessageReaction{
				ID:        uuid.New().String(),
				MessageID: messageID,
				UserID:    userID,
				Emoji:     emoji,
				CreatedAt: time.Now().UTC(),
			}
			if err := s.reactions.Add(tx, reaction); err != nil {
				return err
			}
			added = true
		}

		all, err := s.reactions.ListByMessage(tx, messageID)
		if err != nil {
			return err
		}
		summaries = SummarizeReactions(all)

		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		return err
	})
	if err != nil {
		return nil, false, asServiceError(err)
	}

	envelope, err := events.NewEnvelope(events.TypeReactionChanged, conversationID, userID, roster,
		events.ReactionChangedPayload{MessageID: messageID, Reactions: summaries})
	if err == nil {
		s.publisher.Publish(envelope)
	}
	return summaries, added, nil
}

// SummarizeReactions groups raw reaction rows by emoji, ordered by emoji for
// stable output.
func SummarizeReactions(reactions []chat.MessageReaction) []events.ReactionSummary {
	byEmoji := make(map[string][]string)
	for _, r := range reactions {
		byEmoji[r.Emoji] = append(byEmoji[r.Emoji], r.UserID)
	}

	summaries := make([]events.ReactionSummary, 0, len(byEmoji))
	for emoji, userIDs := range byEmoji {
		summaries = append(summaries, events.ReactionSummary{
			Emoji:   emoji,
			Count:   len(userIDs),
			UserIDs: userIDs,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Emoji < summaries[j].Emoji
	})
	return summaries
}
