package dto

import (
	"time"

	"convo_backend/internal/events"
	"convo_backend/internal/models"
	"convo_backend/internal/models/chat"
	chatservice "convo_backend/internal/services/chat"
)

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type ParticipantResponse struct {
	UserID      string     `json:"user_id"`
	Role        string     `json:"role"`
	JoinedAt    time.Time  `json:"joined_at"`
	LastReadSeq int64      `json:"last_read_seq"`
	LastReadAt  *time.Time `json:"last_read_at,omitempty"`
}

type ConversationResponse struct {
	ID           string                `json:"id"`
	Type         string                `json:"type"`
	Title        *string               `json:"title,omitempty"`
	Description  *string               `json:"description,omitempty"`
	ImageURL     *string               `json:"image_url,omitempty"`
	IsActive     bool                  `json:"is_active"`
	CreatedAt    time.Time             `json:"created_at"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
	LastMessage  *MessageResponse      `json:"last_message,omitempty"`
	UnreadCount  int64                 `json:"unread_count"`
}

type MessageResponse struct {
	ID             string                   `json:"id"`
	ConversationID string                   `json:"conversation_id"`
	SenderID       string                   `json:"sender_id"`
	Content        string                   `json:"content"`
	MediaURL       *string                  `json:"media_url,omitempty"`
	MediaType      *string                  `json:"media_type,omitempty"`
	ReplyTo        *MessageResponse         `json:"reply_to,omitempty"`
	Seq            int64                    `json:"seq"`
	IsDeleted      bool                     `json:"is_deleted"`
	CreatedAt      time.Time                `json:"created_at"`
	EditedAt       *time.Time               `json:"edited_at,omitempty"`
	Reactions      []events.ReactionSummary `json:"reactions,omitempty"`
}

type ReactionToggleResponse struct {
	MessageID string                   `json:"message_id"`
	Added     bool                     `json:"added"`
	Reactions []events.ReactionSummary `json:"reactions"`
}

type MarkReadResponse struct {
	ConversationID string `json:"conversation_id"`
	LastReadSeq    int64  `json:"last_read_seq"`
}

type UnreadCountResponse struct {
	ConversationID string `json:"conversation_id"`
	UnreadCount    int64  `json:"unread_count"`
}

func ToUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}

func ToParticipantResponse(p *chat.ConversationParticipant) ParticipantResponse {
	return ParticipantResponse{
		UserID:      p.UserID,
		Role:        string(p.Role),
		JoinedAt:    p.JoinedAt,
		LastReadSeq: p.LastReadSeq,
		LastReadAt:  p.LastReadAt,
	}
}

// ToMessageResponse hides the body of tombstoned messages but keeps the row,
// so reply chains and history pagination stay intact.
func ToMessageResponse(m *chat.Message) MessageResponse {
	resp := MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Seq:            m.Seq,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
	}
	if m.IsDeleted {
		return resp
	}

	resp.Content = m.Content
	resp.MediaURL = m.MediaURL
	resp.MediaType = m.MediaType
	if m.UpdatedAt.After(m.CreatedAt.Add(time.Second)) {
		editedAt := m.UpdatedAt
		resp.EditedAt = &editedAt
	}
	if m.ReplyTo != nil {
		replyTo := ToMessageResponse(m.ReplyTo)
		resp.ReplyTo = &replyTo
	}
	if len(m.Reactions) > 0 {
		resp.Reactions = chatservice.SummarizeReactions(m.Reactions)
	}
	return resp
}

func ToMessageResponses(messages []chat.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		out = append(out, ToMessageResponse(&messages[i]))
	}
	return out
}

func ToConversationResponse(c *chat.Conversation, unread int64) ConversationResponse {
	resp := ConversationResponse{
		ID:          c.ID,
		Type:        string(c.Type),
		Title:       c.Title,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UnreadCount: unread,
	}
	for i := range c.Participants {
		p := &c.Participants[i]
		if !p.IsActive {
			continue
		}
		resp.Participants = append(resp.Participants, ToParticipantResponse(p))
	}
	if c.LastMessage != nil {
		last := ToMessageResponse(c.LastMessage)
		resp.LastMessage = &last
	}
	return resp
}

func ToConversationResponses(conversations []chat.Conversation, unreadByID map[string]int64) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(conversations))
	for i := range conversations {
		c := &conversations[i]
		out = append(out, ToConversationResponse(c, unreadByID[c.ID]))
	}
	return out
}
