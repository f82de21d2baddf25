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

type ConversationService interface {
	// GetOrCreateDirect returns the single active direct conversation between
	// the two users, creating it when absent. The bool reports creation.
	GetOrCreateDirect(db *gorm.DB, userID, otherID string) (*chat.Conversation, bool, error)
	CreateGroup(db *gorm.DB, ownerID, title string, description *string, memberIDs []string) (*chat.Conversation, error)
	Get(db *gorm.DB, userID, conversationID string) (*chat.Conversation, error)
	ListForUser(db *gorm.DB, userID string) ([]chat.Conversation, error)
	AddParticipant(db *gorm.DB, actorID, conversationID, targetID string, role chat.ParticipantRole) (*chat.ConversationParticipant, error)
	RemoveParticipant(db *gorm.DB, actorID, conversationID, targetID string) error
	Leave(db *gorm.DB, userID, conversationID string) error
	ChangeRole(db *gorm.DB, actorID, conversationID, targetID string, role chat.ParticipantRole) error
	UpdateGroup(db *gorm.DB, actorID, conversationID string, title, description, imageURL *string) (*chat.Conversation, error)
	IsMember(db *gorm.DB, conversationID, userID string) (bool, error)
}

type ConversationServiceImpl struct {
	conversations chatrepo.ConversationRepository
	participants  chatrepo.ParticipantRepository
	directory     directory.Directory
	publisher     events.Publisher
}

func NewConversationService(
	conversations chatrepo.ConversationRepository,
	participants chatrepo.ParticipantRepository,
	dir directory.Directory,
	publisher events.Publisher,
) ConversationService {
	return &ConversationServiceImpl{
		conversations: conversations,
		participants:  participants,
		directory:     dir,
		publisher:     publisher,
	}
}

func (s *ConversationServiceImpl) GetOrCreateDirect(db *gorm.DB, userID, otherID string) (*chat.Conversation, bool, error) {
	if userID == otherID {
		return nil, false, apperrors.NewBadRequestError("Cannot open a conversation with yourself")
	}

	allowed, err := s.directory.CanMessage(db, userID, otherID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, false, apperrors.ErrUserNotFound
		}
		return nil, false, apperrors.InternalError(err)
	}
	if !allowed {
		return nil, false, apperrors.ErrCannotMessageUser
	}

	pairKey := chat.PairKeyFor(userID, otherID)

	existing, err := s.conversations.FindActiveDirectByPairKey(db, pairKey)
	if err == nil {
		if err := s.rejoinDirect(db, existing.ID, userID); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, chatrepo.ErrConversationNotFound) {
		return nil, false, apperrors.InternalError(err)
	}

	conversation := &chat.Conversation{
		ID:       uuid.New().String(),
		Type:     chat.ConversationTypeDirect,
		PairKey:  &pairKey,
		IsActive: true,
	}
	now := time.Now().UTC()
	rows := []chat.ConversationParticipant{
		{ID: uuid.New().String(), ConversationID: conversation.ID, UserID: userID, Role: chat.RoleMember, IsActive: true, JoinedAt: now},
		{ID: uuid.New().String(), ConversationID: conversation.ID, UserID: otherID, Role: chat.RoleMember, IsActive: true, JoinedAt: now},
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := s.conversations.Create(tx, conversation); err != nil {
			return err
		}
		return s.participants.CreateMany(tx, rows)
	})
	if err != nil {
		// Lost the race on the pair-key index: the winning row is the
		// conversation we wanted.
		if chatrepo.IsUniqueViolation(err) {
			winner, findErr := s.conversations.FindActiveDirectByPairKey(db, pairKey)
			if findErr != nil {
				return nil, false, apperrors.InternalError(findErr)
			}
			if err := s.rejoinDirect(db, winner.ID, userID); err != nil {
				return nil, false, err
			}
			return winner, false, nil
		}
		return nil, false, apperrors.InternalError(err)
	}

	created, err := s.conversations.FindByID(db, conversation.ID)
	if err != nil {
		return nil, false, apperrors.InternalError(err)
	}
	return created, true, nil
}

func (s *ConversationServiceImpl) CreateGroup(db *gorm.DB, ownerID, title string, description *string, memberIDs []string) (*chat.Conversation, error) {
	members := dedupeExcluding(memberIDs, ownerID)
	if len(members) == 0 {
		return nil, apperrors.ValidationError(map[string]string{
			"member_ids": "Group requires at least one member besides the creator",
		})
	}
	if _, err := s.directory.ResolveUsers(db, members); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	conversation := &chat.Conversation{
		ID:          uuid.New().String(),
		Type:        chat.ConversationTypeGroup,
		Title:       &title,
		Description: description,
		IsActive:    true,
	}
	now := time.Now().UTC()
	rows := make([]chat.ConversationParticipant, 0, len(members)+1)
	rows = append(rows, chat.ConversationParticipant{
		ID: uuid.New().String(), ConversationID: conversation.ID, UserID: ownerID,
		Role: chat.RoleOwner, IsActive: true, JoinedAt: now,
	})
	for _, memberID := range members {
		rows = append(rows, chat.ConversationParticipant{
			ID: uuid.New().String(), ConversationID: conversation.ID, UserID: memberID,
			Role: chat.RoleMember, IsActive: true, JoinedAt: now,
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := s.conversations.Create(tx, conversation); err != nil {
			return err
		}
		return s.participants.CreateMany(tx, rows)
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	created, err := s.conversations.FindByID(db, conversation.ID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publishParticipantEvent(events.TypeConversationUpdate, created.ID, ownerID,
		rosterIDs(rows), events.ParticipantChangedPayload{UserID: ownerID, Action: "created", ActedAt: now})
	return created, nil
}

func (s *ConversationServiceImpl) Get(db *gorm.DB, userID, conversationID string) (*chat.Conversation, error) {
	conversation, err := s.conversations.FindByID(db, conversationID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrConversationNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	member, err := s.participants.IsActiveMember(db, conversationID, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if !member {
		return nil, apperrors.ErrNotMember
	}
	return conversation, nil
}

func (s *ConversationServiceImpl) ListForUser(db *gorm.DB, userID string) ([]chat.Conversation, error) {
	conversations, err := s.conversations.FindAllByUser(db, userID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return conversations, nil
}

func (s *ConversationServiceImpl) AddParticipant(db *gorm.DB, actorID, conversationID, targetID string, role chat.ParticipantRole) (*chat.ConversationParticipant, error) {
	if role == "" {
		role = chat.RoleMember
	}
	if role == chat.RoleOwner {
		return nil, apperrors.NewBadRequestError("Ownership is transferred, not assigned")
	}

	var (
		participant *chat.ConversationParticipant
		roster      []string
	)
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		conversation, actor, err := s.lockGroupForActor(tx, conversationID, actorID)
		if err != nil {
			return err
		}
		if !actor.CanManageParticipants() {
			return apperrors.ErrPermissionDenied
		}

		if _, err := s.directory.ResolveUser(tx, targetID); err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return apperrors.ErrUserNotFound
			}
			return err
		}

		existing, err := s.participants.Find(tx, conversationID, targetID)
		switch {
		case err == nil && existing.IsActive:
			return apperrors.ErrAlreadyMember
		case err == nil:
			// Former member rejoining: reactivate the same row. The read
			// watermark survives so old history stays read.
			existing.IsActive = true
			existing.Role = role
			existing.JoinedAt = now
			existing.LeftAt = nil
			if err := s.participants.Save(tx, existing); err != nil {
				return err
			}
			participant = existing
		case errors.Is(err, chatrepo.ErrParticipantNotFound):
			participant = &chat.ConversationParticipant{
				ID:             uuid.New().String(),
				ConversationID: conversationID,
				UserID:         targetID,
				Role:           role,
				IsActive:       true,
				JoinedAt:       now,
			}
			if err := s.participants.Create(tx, participant); err != nil {
				return err
			}
		default:
			return err
		}

		if err := s.conversations.Save(tx, conversation); err != nil {
			return err
		}
		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.publishParticipantEvent(events.TypeParticipantChanged, conversationID, actorID, roster,
		events.ParticipantChangedPayload{UserID: targetID, Action: "joined", Role: string(role), ActedAt: now})
	return participant, nil
}

func (s *ConversationServiceImpl) RemoveParticipant(db *gorm.DB, actorID, conversationID, targetID string) error {
	if actorID == targetID {
		return apperrors.NewBadRequestError("Use leave to remove yourself")
	}

	var roster []string
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, actor, err := s.lockGroupForActor(tx, conversationID, actorID)
		if err != nil {
			return err
		}
		// Removal is the owner's call alone; admins manage additions only.
		if actor.Role != chat.RoleOwner {
			return apperrors.ErrPermissionDenied
		}

		target, err := s.participants.FindActive(tx, conversationID, targetID)
		if err != nil {
			return err
		}

		target.IsActive = false
		target.LeftAt = &now
		if err := s.participants.Save(tx, target); err != nil {
			return err
		}

		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		return err
	})
	if err != nil {
		return asServiceError(err)
	}

	// The removed user gets the event too, so their client drops the room.
	s.publishParticipantEvent(events.TypeParticipantChanged, conversationID, actorID,
		append(roster, targetID),
		events.ParticipantChangedPayload{UserID: targetID, Action: "removed", ActedAt: now})
	return nil
}

func (s *ConversationServiceImpl) Leave(db *gorm.DB, userID, conversationID string) error {
	var (
		roster    []string
		successor *chat.ConversationParticipant
	)
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		// Leave applies to direct conversations too; an emptied DM room is
		// deactivated like an emptied group.
		conversation, err := s.conversations.FindByIDForUpdate(tx, conversationID)
		if err != nil {
			return err
		}

		leaver, err := s.participants.FindActive(tx, conversationID, userID)
		if err != nil {
			if errors.Is(err, chatrepo.ErrParticipantNotFound) {
				return apperrors.ErrNotMember
			}
			return err
		}
		if !conversation.IsActive {
			return apperrors.ErrConversationInactive
		}

		leaver.IsActive = false
		leaver.LeftAt = &now
		if err := s.participants.Save(tx, leaver); err != nil {
			return err
		}

		remaining, err := s.participants.ListActive(tx, conversationID)
		if err != nil {
			return err
		}

		if conversation.IsGroup() && leaver.Role == chat.RoleOwner {
			// Succession and departure commit together; the room never
			// observes an ownerless state.
			successor = pickSuccessor(remaining)
			if successor != nil {
				successor.Role = chat.RoleOwner
				if err := s.participants.Save(tx, successor); err != nil {
					return err
				}
			}
		}
		if len(remaining) == 0 {
			conversation.IsActive = false
		}
		if err := s.conversations.Save(tx, conversation); err != nil {
			return err
		}

		roster = make([]string, 0, len(remaining))
		for _, p := range remaining {
			roster = append(roster, p.UserID)
		}
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	s.publishParticipantEvent(events.TypeParticipantChanged, conversationID, userID,
		append(roster, userID),
		events.ParticipantChangedPayload{UserID: userID, Action: "left", ActedAt: now})
	if successor != nil {
		s.publishParticipantEvent(events.TypeParticipantChanged, conversationID, userID, roster,
			events.ParticipantChangedPayload{UserID: successor.UserID, Action: "owner_changed", Role: string(chat.RoleOwner), ActedAt: now})
	}
	return nil
}

func (s *ConversationServiceImpl) ChangeRole(db *gorm.DB, actorID, conversationID, targetID string, role chat.ParticipantRole) error {
	if actorID == targetID {
		return apperrors.NewBadRequestError("Cannot change your own role")
	}

	var (
		roster       []string
		ownerHandoff bool
	)
	now := time.Now().UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, actor, err := s.lockGroupForActor(tx, conversationID, actorID)
		if err != nil {
			return err
		}
		if actor.Role != chat.RoleOwner {
			return apperrors.ErrPermissionDenied
		}

		target, err := s.participants.FindActive(tx, conversationID, targetID)
		if err != nil {
			return err
		}

		if role == chat.RoleOwner {
			// Transfer: the old owner steps down to admin in the same
			// transaction.
			ownerHandoff = true
			actor.Role = chat.RoleAdmin
			if err := s.participants.Save(tx, actor); err != nil {
				return err
			}
		}
		target.Role = role
		if err := s.participants.Save(tx, target); err != nil {
			return err
		}

		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		return err
	})
	if err != nil {
		return asServiceError(err)
	}

	action := "promoted"
	if ownerHandoff {
		action = "owner_changed"
	}
	s.publishParticipantEvent(events.TypeParticipantChanged, conversationID, actorID, roster,
		events.ParticipantChangedPayload{UserID: targetID, Action: action, Role: string(role), ActedAt: now})
	return nil
}

func (s *ConversationServiceImpl) UpdateGroup(db *gorm.DB, actorID, conversationID string, title, description, imageURL *string) (*chat.Conversation, error) {
	var roster []string

	err := db.Transaction(func(tx *gorm.DB) error {
		conversation, actor, err := s.lockGroupForActor(tx, conversationID, actorID)
		if err != nil {
			return err
		}
		if !actor.CanManageParticipants() {
			return apperrors.ErrPermissionDenied
		}

		if title != nil {
			conversation.Title = title
		}
		if description != nil {
			conversation.Description = description
		}
		if imageURL != nil {
			conversation.ImageURL = imageURL
		}
		if err := s.conversations.Save(tx, conversation); err != nil {
			return err
		}

		roster, err = s.participants.ActiveUserIDs(tx, conversationID)
		return err
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	updated, err := s.conversations.FindByID(db, conversationID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	s.publishParticipantEvent(events.TypeConversationUpdate, conversationID, actorID, roster,
		events.ParticipantChangedPayload{UserID: actorID, Action: "updated", ActedAt: time.Now().UTC()})
	return updated, nil
}

func (s *ConversationServiceImpl) IsMember(db *gorm.DB, conversationID, userID string) (bool, error) {
	member, err := s.participants.IsActiveMember(db, conversationID, userID)
	if err != nil {
		return false, apperrors.InternalError(err)
	}
	return member, nil
}

// rejoinDirect reactivates the caller's participant row when they previously
// left the direct conversation. Re-opening the DM is the only way back in, so
// the get-or-create lookup doubles as the rejoin. The read watermark survives
// so old history stays read.
func (s *ConversationServiceImpl) rejoinDirect(db *gorm.DB, conversationID, userID string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.conversations.FindByIDForUpdate(tx, conversationID); err != nil {
			return err
		}
		participant, err := s.participants.Find(tx, conversationID, userID)
		if err != nil {
			return err
		}
		if participant.IsActive {
			return nil
		}
		participant.IsActive = true
		participant.JoinedAt = time.Now().UTC()
		participant.LeftAt = nil
		return s.participants.Save(tx, participant)
	})
	if err != nil {
		return asServiceError(err)
	}
	return nil
}

// lockGroupForActor locks the conversation row, checks it is an active group
// and that the actor is an active participant. Shared by every group
// mutation.
func (s *ConversationServiceImpl) lockGroupForActor(tx *gorm.DB, conversationID, actorID string) (*chat.Conversation, *chat.ConversationParticipant, error) {
	conversation, err := s.conversations.FindByIDForUpdate(tx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if !conversation.IsGroup() {
		return nil, nil, apperrors.NewBadRequestError("Operation applies to group conversations only")
	}
	if !conversation.IsActive {
		return nil, nil, apperrors.ErrConversationInactive
	}

	actor, err := s.participants.FindActive(tx, conversationID, actorID)
	if err != nil {
		if errors.Is(err, chatrepo.ErrParticipantNotFound) {
			return nil, nil, apperrors.ErrNotMember
		}
		return nil, nil, err
	}
	return conversation, actor, nil
}

// pickSuccessor chooses the next owner: longest-standing active participant,
// ties broken by lowest user id. Returns nil when the room emptied out.
func pickSuccessor(remaining []chat.ConversationParticipant) *chat.ConversationParticipant {
	var successor *chat.ConversationParticipant
	for i := range remaining {
		candidate := &remaining[i]
		if successor == nil {
			successor = candidate
			continue
		}
		if candidate.JoinedAt.Before(successor.JoinedAt) ||
			(candidate.JoinedAt.Equal(successor.JoinedAt) && candidate.UserID < successor.UserID) {
			successor = candidate
		}
	}
	return successor
}

func (s *ConversationServiceImpl) publishParticipantEvent(eventType, conversationID, actorID string, recipients []string, payload events.ParticipantChangedPayload) {
	envelope, err := events.NewEnvelope(eventType, conversationID, actorID, recipients, payload)
	if err != nil {
		return
	}
	s.publisher.Publish(envelope)
}

// asServiceError passes AppErrors through and wraps everything else,
// translating the repository sentinels on the way.
func asServiceError(err error) error {
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, chatrepo.ErrConversationNotFound):
		return apperrors.ErrConversationNotFound
	case errors.Is(err, chatrepo.ErrMessageNotFound):
		return apperrors.ErrMessageNotFound
	case errors.Is(err, chatrepo.ErrParticipantNotFound):
		return apperrors.ErrParticipantNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	}
	return apperrors.InternalError(err)
}

func dedupeExcluding(ids []string, excluded string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == excluded {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func rosterIDs(rows []chat.ConversationParticipant) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.UserID)
	}
	return ids
}
