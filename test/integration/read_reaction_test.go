package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo_backend/internal/dto"
	"convo_backend/test/helpers"
)

func TestUnreadCountsAndWatermark(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")
	conversation := server.OpenDirect(t, aliceToken, bobID)

	first := server.SendMessage(t, aliceToken, conversation.ID, "one")
	second := server.SendMessage(t, aliceToken, conversation.ID, "two")
	server.SendMessage(t, aliceToken, conversation.ID, "three")

	// The sender's own messages are never unread for them.
	unread := getUnread(t, server, aliceToken, conversation.ID)
	assert.Equal(t, int64(0), unread)

	unread = getUnread(t, server, bobToken, conversation.ID)
	assert.Equal(t, int64(3), unread)

	// Reading up to the second message leaves one unread.
	markRec := server.Do(t, http.MethodPost, "/api/conversations/"+conversation.ID+"/read",
		dto.MarkReadRequest{MessageID: second.ID}, bobToken)
	require.Equal(t, http.StatusOK, markRec.Code, markRec.Body.String())

	var marked dto.MarkReadResponse
	helpers.DecodeJSON(t, markRec, &marked)
	assert.Equal(t, second.Seq, marked.LastReadSeq)

	unread = getUnread(t, server, bobToken, conversation.ID)
	assert.Equal(t, int64(1), unread)

	// Marking an older message never moves the watermark backwards.
	markRec = server.Do(t, http.MethodPost, "/api/conversations/"+conversation.ID+"/read",
		dto.MarkReadRequest{MessageID: first.ID}, bobToken)
	require.Equal(t, http.StatusOK, markRec.Code)

	helpers.DecodeJSON(t, markRec, &marked)
	assert.Equal(t, second.Seq, marked.LastReadSeq)

	unread = getUnread(t, server, bobToken, conversation.ID)
	assert.Equal(t, int64(1), unread)

	// Omitting the cursor reads everything sent so far.
	markRec = server.Do(t, http.MethodPost, "/api/conversations/"+conversation.ID+"/read",
		dto.MarkReadRequest{}, bobToken)
	require.Equal(t, http.StatusOK, markRec.Code)

	unread = getUnread(t, server, bobToken, conversation.ID)
	assert.Equal(t, int64(0), unread)
}

func TestUnreadCountsAcrossConversations(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")
	charlieID, charlieToken := server.RegisterUser(t, "charlie")

	withBob := server.OpenDirect(t, aliceToken, bobID)
	withCharlie := server.OpenDirect(t, aliceToken, charlieID)

	server.SendMessage(t, bobToken, withBob.ID, "ping")
	server.SendMessage(t, bobToken, withBob.ID, "ping again")
	server.SendMessage(t, charlieToken, withCharlie.ID, "hey")

	listRec := server.Do(t, http.MethodGet, "/api/conversations", nil, aliceToken)
	require.Equal(t, http.StatusOK, listRec.Code)

	var conversations []dto.ConversationResponse
	helpers.DecodeJSON(t, listRec, &conversations)
	require.Len(t, conversations, 2)

	unreadByID := make(map[string]int64)
	for _, c := range conversations {
		unreadByID[c.ID] = c.UnreadCount
	}
	assert.Equal(t, int64(2), unreadByID[withBob.ID])
	assert.Equal(t, int64(1), unreadByID[withCharlie.ID])
}

func TestDeletedMessagesDropFromUnread(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")
	conversation := server.OpenDirect(t, aliceToken, bobID)

	message := server.SendMessage(t, aliceToken, conversation.ID, "oops")
	assert.Equal(t, int64(1), getUnread(t, server, bobToken, conversation.ID))

	deleteRec := server.Do(t, http.MethodDelete, "/api/messages/"+message.ID, nil, aliceToken)
	require.Equal(t, http.StatusNoContent, deleteRec.Code)

	assert.Equal(t, int64(0), getUnread(t, server, bobToken, conversation.ID))
}

func TestReactionToggle(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")
	conversation := server.OpenDirect(t, aliceToken, bobID)
	message := server.SendMessage(t, aliceToken, conversation.ID, "react to me")

	// First toggle adds.
	rec := server.Do(t, http.MethodPost, "/api/messages/"+message.ID+"/reactions",
		dto.ToggleReactionRequest{Emoji: "👍"}, bobToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var toggled dto.ReactionToggleResponse
	helpers.DecodeJSON(t, rec, &toggled)
	assert.True(t, toggled.Added)
	require.Len(t, toggled.Reactions, 1)
	assert.Equal(t, 1, toggled.Reactions[0].Count)

	// A second user piles on the same emoji.
	rec = server.Do(t, http.MethodPost, "/api/messages/"+message.ID+"/reactions",
		dto.ToggleReactionRequest{Emoji: "👍"}, aliceToken)
	require.Equal(t, http.StatusOK, rec.Code)
	helpers.DecodeJSON(t, rec, &toggled)
	assert.True(t, toggled.Added)
	require.Len(t, toggled.Reactions, 1)
	assert.Equal(t, 2, toggled.Reactions[0].Count)

	// Second toggle by the same user removes only their reaction.
	rec = server.Do(t, http.MethodPost, "/api/messages/"+message.ID+"/reactions",
		dto.ToggleReactionRequest{Emoji: "👍"}, bobToken)
	require.Equal(t, http.StatusOK, rec.Code)
	helpers.DecodeJSON(t, rec, &toggled)
	assert.False(t, toggled.Added)
	require.Len(t, toggled.Reactions, 1)
	assert.Equal(t, 1, toggled.Reactions[0].Count)
}

func TestReactionByNonMemberRejected(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, _ := server.RegisterUser(t, "bob")
	_, eveToken := server.RegisterUser(t, "eve")
	conversation := server.OpenDirect(t, aliceToken, bobID)
	message := server.SendMessage(t, aliceToken, conversation.ID, "members only")

	rec := server.Do(t, http.MethodPost, "/api/messages/"+message.ID+"/reactions",
		dto.ToggleReactionRequest{Emoji: "👀"}, eveToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func getUnread(t *testing.T, server *helpers.TestServer, token, conversationID string) int64 {
	t.Helper()

	rec := server.Do(t, http.MethodGet, "/api/conversations/"+conversationID+"/unread", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.UnreadCountResponse
	helpers.DecodeJSON(t, rec, &resp)
	return resp.UnreadCount
}
