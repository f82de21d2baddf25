package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo_backend/internal/models/chat"
)

func TestToMessageResponseHidesDeletedBody(t *testing.T) {
	url := "https://cdn.example.com/pic.png"
	message := &chat.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       "u1",
		Content:        "secret",
		MediaURL:       &url,
		Seq:            7,
		IsDeleted:      true,
	}

	resp := ToMessageResponse(message)

	assert.True(t, resp.IsDeleted)
	assert.Empty(t, resp.Content)
	assert.Nil(t, resp.MediaURL)
	assert.Equal(t, int64(7), resp.Seq)
	assert.Equal(t, "m1", resp.ID)
}

func TestToMessageResponseResolvesReply(t *testing.T) {
	replyID := "m1"
	message := &chat.Message{
		ID:             "m2",
		ConversationID: "c1",
		SenderID:       "u2",
		Content:        "agreed",
		ReplyToID:      &replyID,
		ReplyTo: &chat.Message{
			ID:             "m1",
			ConversationID: "c1",
			SenderID:       "u1",
			Content:        "original",
		},
	}

	resp := ToMessageResponse(message)
	require.NotNil(t, resp.ReplyTo)
	assert.Equal(t, "m1", resp.ReplyTo.ID)
	assert.Equal(t, "original", resp.ReplyTo.Content)
}

func TestToMessageResponseEditedAt(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	message := &chat.Message{
		ID:        "m1",
		Content:   "edited text",
		CreatedAt: created,
		UpdatedAt: created.Add(5 * time.Minute),
	}

	resp := ToMessageResponse(message)
	require.NotNil(t, resp.EditedAt)

	untouched := &chat.Message{ID: "m2", Content: "fresh", CreatedAt: created, UpdatedAt: created}
	assert.Nil(t, ToMessageResponse(untouched).EditedAt)
}

func TestToConversationResponseFiltersInactiveParticipants(t *testing.T) {
	conversation := &chat.Conversation{
		ID:   "c1",
		Type: chat.ConversationTypeGroup,
		Participants: []chat.ConversationParticipant{
			{UserID: "u1", Role: chat.RoleOwner, IsActive: true},
			{UserID: "u2", Role: chat.RoleMember, IsActive: false},
			{UserID: "u3", Role: chat.RoleMember, IsActive: true},
		},
	}

	resp := ToConversationResponse(conversation, 4)

	require.Len(t, resp.Participants, 2)
	assert.Equal(t, "u1", resp.Participants[0].UserID)
	assert.Equal(t, "u3", resp.Participants[1].UserID)
	assert.Equal(t, int64(4), resp.UnreadCount)
}
