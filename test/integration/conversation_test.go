package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convo_backend/internal/dto"
	"convo_backend/test/helpers"
)

func TestDirectConversationGetOrCreate(t *testing.T) {
	server := helpers.NewTestServer(t)

	aliceID, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")

	first := server.Do(t, http.MethodPost, "/api/conversations/direct",
		dto.DirectConversationRequest{UserID: bobID}, aliceToken)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	var created dto.ConversationResponse
	helpers.DecodeJSON(t, first, &created)
	assert.Equal(t, "direct", created.Type)
	assert.Len(t, created.Participants, 2)

	// Same caller again: no duplicate.
	again := server.OpenDirect(t, aliceToken, bobID)
	assert.Equal(t, created.ID, again.ID)

	// Other side of the pair resolves to the same conversation.
	fromBob := server.OpenDirect(t, bobToken, aliceID)
	assert.Equal(t, created.ID, fromBob.ID)
}

func TestDirectConversationConcurrentCreateRace(t *testing.T) {
	server := helpers.NewTestServer(t)

	aliceID, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")

	// Both sides hammer the endpoint at once; the pair-key index decides the
	// winner and every loser must recover to the same conversation.
	const attempts = 8
	type outcome struct {
		code int
		id   string
	}
	outcomes := make(chan outcome, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		token, target := aliceToken, bobID
		if i%2 == 1 {
			token, target = bobToken, aliceID
		}
		wg.Add(1)
		go func(token, target string) {
			defer wg.Done()
			body, _ := json.Marshal(dto.DirectConversationRequest{UserID: target})
			req := httptest.NewRequest(http.MethodPost, "/api/conversations/direct", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			server.Engine.ServeHTTP(rec, req)

			var resp dto.ConversationResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &resp)
			outcomes <- outcome{code: rec.Code, id: resp.ID}
		}(token, target)
	}
	wg.Wait()
	close(outcomes)

	ids := make(map[string]struct{})
	created := 0
	for result := range outcomes {
		require.Contains(t, []int{http.StatusOK, http.StatusCreated}, result.code)
		require.NotEmpty(t, result.id)
		if result.code == http.StatusCreated {
			created++
		}
		ids[result.id] = struct{}{}
	}
	assert.Len(t, ids, 1, "every call resolves to the same conversation")
	assert.Equal(t, 1, created, "exactly one call wins the insert")

	var count int64
	require.NoError(t, server.DB.Table("chat.conversations").
		Where("type = ?", "direct").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDirectConversationReopensAfterLeave(t *testing.T) {
	server := helpers.NewTestServer(t)

	aliceID, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")

	conversation := server.OpenDirect(t, aliceToken, bobID)
	server.SendMessage(t, aliceToken, conversation.ID, "hello")

	leaveRec := server.Do(t, http.MethodPost, "/api/conversations/"+conversation.ID+"/leave", nil, bobToken)
	require.Equal(t, http.StatusNoContent, leaveRec.Code, leaveRec.Body.String())

	// While out, the leaver cannot write.
	sendRec := server.Do(t, http.MethodPost, "/api/conversations/"+conversation.ID+"/messages",
		dto.SendMessageRequest{Content: "still there?"}, bobToken)
	require.Equal(t, http.StatusForbidden, sendRec.Code)

	// Re-opening the DM resolves to the same conversation and restores
	// membership.
	reopened := server.OpenDirect(t, bobToken, aliceID)
	assert.Equal(t, conversation.ID, reopened.ID)

	sent := server.SendMessage(t, bobToken, conversation.ID, "back again")
	assert.Equal(t, conversation.ID, sent.ConversationID)

	// The other side was never locked out.
	server.SendMessage(t, aliceToken, conversation.ID, "welcome back")
}

func TestDirectConversationWithSelfRejected(t *testing.T) {
	server := helpers.NewTestServer(t)
	selfID, token := server.RegisterUser(t, "narcissus")

	rec := server.Do(t, http.MethodPost, "/api/conversations/direct",
		dto.DirectConversationRequest{UserID: selfID}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDirectConversationBlockedPair(t *testing.T) {
	server := helpers.NewTestServer(t)
	aliceID, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")

	// Bob blocks Alice; neither side can open the DM.
	blockRec := server.Do(t, http.MethodPost, "/api/users/"+aliceID+"/block", nil, bobToken)
	require.Equal(t, http.StatusNoContent, blockRec.Code)

	rec := server.Do(t, http.MethodPost, "/api/conversations/direct",
		dto.DirectConversationRequest{UserID: bobID}, aliceToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGroupLifecycleOwnerSuccession(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")
	charlieID, _ := server.RegisterUser(t, "charlie")

	createRec := server.Do(t, http.MethodPost, "/api/conversations/group", dto.CreateGroupRequest{
		Title:     "weekend plans",
		MemberIDs: []string{bobID, charlieID},
	}, aliceToken)
	require.Equal(t, http.StatusCreated, createRec.Code, createRec.Body.String())

	var group dto.ConversationResponse
	helpers.DecodeJSON(t, createRec, &group)
	require.Len(t, group.Participants, 3)

	owners := 0
	for _, p := range group.Participants {
		if p.Role == "owner" {
			owners++
		}
	}
	assert.Equal(t, 1, owners)

	// Owner leaves; ownership must move to exactly one remaining member in
	// the same operation.
	leaveRec := server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/leave", nil, aliceToken)
	require.Equal(t, http.StatusNoContent, leaveRec.Code, leaveRec.Body.String())

	getRec := server.Do(t, http.MethodGet, "/api/conversations/"+group.ID, nil, bobToken)
	require.Equal(t, http.StatusOK, getRec.Code)

	var after dto.ConversationResponse
	helpers.DecodeJSON(t, getRec, &after)
	require.Len(t, after.Participants, 2)

	owners = 0
	for _, p := range after.Participants {
		if p.Role == "owner" {
			owners++
			assert.Contains(t, []string{bobID, charlieID}, p.UserID)
		}
	}
	assert.Equal(t, 1, owners)
	assert.True(t, after.IsActive)
}

func TestGroupRequiresMembers(t *testing.T) {
	server := helpers.NewTestServer(t)
	_, aliceToken := server.RegisterUser(t, "alice")

	rec := server.Do(t, http.MethodPost, "/api/conversations/group",
		dto.CreateGroupRequest{Title: "just me"}, aliceToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLastMemberLeavingDeactivatesGroup(t *testing.T) {
	server := helpers.NewTestServer(t)
	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")

	createRec := server.Do(t, http.MethodPost, "/api/conversations/group",
		dto.CreateGroupRequest{Title: "short-lived", MemberIDs: []string{bobID}}, aliceToken)
	require.Equal(t, http.StatusCreated, createRec.Code, createRec.Body.String())

	var group dto.ConversationResponse
	helpers.DecodeJSON(t, createRec, &group)

	leaveRec := server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/leave", nil, bobToken)
	require.Equal(t, http.StatusNoContent, leaveRec.Code)

	leaveRec = server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/leave", nil, aliceToken)
	require.Equal(t, http.StatusNoContent, leaveRec.Code)

	// The emptied conversation is closed; former members cannot write or
	// read it.
	sendRec := server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/messages",
		dto.SendMessageRequest{Content: "anyone?"}, aliceToken)
	assert.Equal(t, http.StatusForbidden, sendRec.Code)

	getRec := server.Do(t, http.MethodGet, "/api/conversations/"+group.ID, nil, aliceToken)
	assert.Equal(t, http.StatusForbidden, getRec.Code)
}

func TestParticipantManagementPermissions(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")
	charlieID, _ := server.RegisterUser(t, "charlie")

	createRec := server.Do(t, http.MethodPost, "/api/conversations/group", dto.CreateGroupRequest{
		Title:     "moderated",
		MemberIDs: []string{bobID, charlieID},
	}, aliceToken)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var group dto.ConversationResponse
	helpers.DecodeJSON(t, createRec, &group)

	// A plain member cannot remove another member.
	kickRec := server.Do(t, http.MethodDelete,
		"/api/conversations/"+group.ID+"/participants/"+charlieID, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, kickRec.Code)

	// The owner can.
	kickRec = server.Do(t, http.MethodDelete,
		"/api/conversations/"+group.ID+"/participants/"+bobID, nil, aliceToken)
	require.Equal(t, http.StatusNoContent, kickRec.Code, kickRec.Body.String())

	// Removed members lose write access.
	sendRec := server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/messages",
		dto.SendMessageRequest{Content: "still here?"}, bobToken)
	assert.Equal(t, http.StatusForbidden, sendRec.Code)

	// Adding them back reactivates membership.
	addRec := server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/participants",
		dto.AddParticipantRequest{UserID: bobID}, aliceToken)
	require.Equal(t, http.StatusCreated, addRec.Code, addRec.Body.String())

	sendRec = server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/messages",
		dto.SendMessageRequest{Content: "back again"}, bobToken)
	assert.Equal(t, http.StatusCreated, sendRec.Code)

	// Double-add conflicts.
	addRec = server.Do(t, http.MethodPost, "/api/conversations/"+group.ID+"/participants",
		dto.AddParticipantRequest{UserID: bobID}, aliceToken)
	assert.Equal(t, http.StatusConflict, addRec.Code)
}

func TestOwnershipTransfer(t *testing.T) {
	server := helpers.NewTestServer(t)

	_, aliceToken := server.RegisterUser(t, "alice")
	bobID, bobToken := server.RegisterUser(t, "bob")

	createRec := server.Do(t, http.MethodPost, "/api/conversations/group", dto.CreateGroupRequest{
		Title:     "handoff",
		MemberIDs: []string{bobID},
	}, aliceToken)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var group dto.ConversationResponse
	helpers.DecodeJSON(t, createRec, &group)

	// A member cannot grab ownership.
	grabRec := server.Do(t, http.MethodPut,
		"/api/conversations/"+group.ID+"/participants/"+bobID+"/role",
		dto.ChangeRoleRequest{Role: "admin"}, bobToken)
	assert.Equal(t, http.StatusForbidden, grabRec.Code)

	// The owner hands it over and steps down.
	transferRec := server.Do(t, http.MethodPut,
		"/api/conversations/"+group.ID+"/participants/"+bobID+"/role",
		dto.ChangeRoleRequest{Role: "owner"}, aliceToken)
	require.Equal(t, http.StatusNoContent, transferRec.Code, transferRec.Body.String())

	getRec := server.Do(t, http.MethodGet, "/api/conversations/"+group.ID, nil, bobToken)
	require.Equal(t, http.StatusOK, getRec.Code)

	var after dto.ConversationResponse
	helpers.DecodeJSON(t, getRec, &after)
	for _, p := range after.Participants {
		if p.UserID == bobID {
			assert.Equal(t, "owner", p.Role)
		} else {
			assert.Equal(t, "admin", p.Role)
		}
	}
}
