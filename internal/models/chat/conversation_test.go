package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairKeyFor(t *testing.T) {
	assert.Equal(t, "a:b", PairKeyFor("a", "b"))
	assert.Equal(t, "a:b", PairKeyFor("b", "a"))
	assert.Equal(t, PairKeyFor("u1", "u2"), PairKeyFor("u2", "u1"))
}

func TestConversationIsGroup(t *testing.T) {
	group := &Conversation{Type: ConversationTypeGroup}
	direct := &Conversation{Type: ConversationTypeDirect}

	assert.True(t, group.IsGroup())
	assert.False(t, direct.IsGroup())
}
