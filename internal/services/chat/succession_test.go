package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo_backend/internal/models/chat"
)

func TestPickSuccessorEarliestJoiner(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remaining := []chat.ConversationParticipant{
		{UserID: "u3", JoinedAt: base.Add(2 * time.Hour)},
		{UserID: "u1", JoinedAt: base},
		{UserID: "u2", JoinedAt: base.Add(time.Hour)},
	}

	successor := pickSuccessor(remaining)
	require.NotNil(t, successor)
	assert.Equal(t, "u1", successor.UserID)
}

func TestPickSuccessorTieBreaksOnUserID(t *testing.T) {
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remaining := []chat.ConversationParticipant{
		{UserID: "zz", JoinedAt: joined},
		{UserID: "aa", JoinedAt: joined},
		{UserID: "mm", JoinedAt: joined},
	}

	successor := pickSuccessor(remaining)
	require.NotNil(t, successor)
	assert.Equal(t, "aa", successor.UserID)
}

func TestPickSuccessorEmptyRoom(t *testing.T) {
	assert.Nil(t, pickSuccessor(nil))
	assert.Nil(t, pickSuccessor([]chat.ConversationParticipant{}))
}

func TestPickSuccessorReturnsSliceElement(t *testing.T) {
	remaining := []chat.ConversationParticipant{
		{UserID: "u1", JoinedAt: time.Now()},
	}

	successor := pickSuccessor(remaining)
	require.NotNil(t, successor)

	// The caller promotes through the returned pointer; it must alias the
	// slice element, not a copy.
	successor.Role = chat.RoleOwner
	assert.Equal(t, chat.RoleOwner, remaining[0].Role)
}
