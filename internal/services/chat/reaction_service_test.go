package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo_backend/internal/models/chat"
)

func TestSummarizeReactionsGroupsByEmoji(t *testing.T) {
	reactions := []chat.MessageReaction{
		{MessageID: "m1", UserID: "u1", Emoji: "👍"},
		{MessageID: "m1", UserID: "u2", Emoji: "👍"},
		{MessageID: "m1", UserID: "u1", Emoji: "❤️"},
	}

	summaries := SummarizeReactions(reactions)
	require.Len(t, summaries, 2)

	byEmoji := make(map[string]int)
	for _, s := range summaries {
		byEmoji[s.Emoji] = s.Count
	}
	assert.Equal(t, 2, byEmoji["👍"])
	assert.Equal(t, 1, byEmoji["❤️"])
}

func TestSummarizeReactionsStableOrder(t *testing.T) {
	reactions := []chat.MessageReaction{
		{UserID: "u1", Emoji: "b"},
		{UserID: "u1", Emoji: "a"},
		{UserID: "u1", Emoji: "c"},
	}

	summaries := SummarizeReactions(reactions)
	require.Len(t, summaries, 3)
	assert.Equal(t, "a", summaries[0].Emoji)
	assert.Equal(t, "b", summaries[1].Emoji)
	assert.Equal(t, "c", summaries[2].Emoji)
}

func TestSummarizeReactionsEmpty(t *testing.T) {
	assert.Empty(t, SummarizeReactions(nil))
}
