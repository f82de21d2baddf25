// Package helpers wires a real database and the full router for integration
// tests. Tests skip themselves when DATABASE_URL is not set.
package helpers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"convo_backend/database"
	"convo_backend/internal/app"
	"convo_backend/internal/dto"
)

// SetupTestDB connects to the test database and resets the chat tables.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	db, err := database.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	truncate(t, db)
	return db
}

func truncate(t *testing.T, db *gorm.DB) {
	t.Helper()
	err := db.Exec(`
		TRUNCATE chat.message_reactions, chat.messages,
			chat.conversation_participants, chat.conversations,
			user_blocks, users CASCADE
	`).Error
	require.NoError(t, err)
}

// TestServer runs the full HTTP surface against a real database.
type TestServer struct {
	Engine *gin.Engine
	DB     *gorm.DB
}

func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	db := SetupTestDB(t)
	gin.SetMode(gin.TestMode)

	router, manager, cleanup := app.SetupRouter(db)
	t.Cleanup(cleanup)
	t.Cleanup(manager.Shutdown)

	return &TestServer{Engine: router, DB: db}
}

// Do performs a request against the router. A non-empty token becomes the
// Bearer header.
func (s *TestServer) Do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON unmarshals the response body into out.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}

// RegisterUser creates an account through the API and returns its id and
// token.
func (s *TestServer) RegisterUser(t *testing.T, name string) (string, string) {
	t.Helper()

	email := fmt.Sprintf("%s-%s@example.com", name, uuid.New().String()[:8])
	rec := s.Do(t, http.MethodPost, "/api/auth/register", dto.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct-horse-battery",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.AuthResponse
	DecodeJSON(t, rec, &resp)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.User.ID)
	return resp.User.ID, resp.Token
}

// OpenDirect returns the direct conversation between the token holder and
// otherID, creating it if needed.
func (s *TestServer) OpenDirect(t *testing.T, token, otherID string) dto.ConversationResponse {
	t.Helper()

	rec := s.Do(t, http.MethodPost, "/api/conversations/direct",
		dto.DirectConversationRequest{UserID: otherID}, token)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code, rec.Body.String())

	var resp dto.ConversationResponse
	DecodeJSON(t, rec, &resp)
	return resp
}

// SendMessage posts a text message and returns the created message.
func (s *TestServer) SendMessage(t *testing.T, token, conversationID, content string) dto.MessageResponse {
	t.Helper()

	rec := s.Do(t, http.MethodPost, "/api/conversations/"+conversationID+"/messages",
		dto.SendMessageRequest{Content: content}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp dto.MessageResponse
	DecodeJSON(t, rec, &resp)
	return resp
}
