package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"convo_backend/internal/events"
	"convo_backend/internal/logger"
	chatservice "convo_backend/internal/services/chat"
	"convo_backend/pkg/apperrors"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

const (
	ActionSendMessage    = "send_message"
	ActionToggleReaction = "toggle_reaction"
	ActionMarkRead       = "mark_read"
	ActionTyping         = "typing"
)

// clientAction is the inbound frame shape. Fields beyond Action are used
// per-action; unused ones stay empty.
type clientAction struct {
	Action         string  `json:"action"`
	ConversationID string  `json:"conversation_id"`
	MessageID      string  `json:"message_id"`
	Content        string  `json:"content"`
	MediaURL       *string `json:"media_url"`
	MediaType      *string `json:"media_type"`
	ReplyToID      *string `json:"reply_to_id"`
	Emoji          string  `json:"emoji"`
	IsTyping       bool    `json:"is_typing"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type Client struct {
	manager *Manager
	conn    *websocket.Conn
	userID  string
	send    chan []byte
}

func newClient(manager *Manager, conn *websocket.Conn, userID string) *Client {
	return &Client{
		manager: manager,
		conn:    conn,
		userID:  userID,
		send:    make(chan []byte, 64),
	}
}

// detach hands the client back to the hub. The hub stops draining unregister
// once it shuts down; closeAll handles the roster then, so a stopped hub must
// not strand the reader goroutine here.
func (c *Client) detach() {
	select {
	case c.manager.unregister <- c:
	case <-c.manager.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.detach()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("ws read error", "user_id", c.userID)
			}
			return
		}

		var action clientAction
		if err := json.Unmarshal(raw, &action); err != nil {
			c.sendError("malformed frame")
			continue
		}
		c.handleAction(action)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleAction(action clientAction) {
	deps := c.manager.deps

	switch action.Action {
	case ActionSendMessage:
		_, err := deps.Messages.Send(deps.DB, c.userID, action.ConversationID, chatservice.SendMessageInput{
			Content:   action.Content,
			MediaURL:  action.MediaURL,
			MediaType: action.MediaType,
			ReplyToID: action.ReplyToID,
		})
		if err != nil {
			c.sendServiceError(err)
		}
	case ActionToggleReaction:
		if _, _, err := deps.Reactions.Toggle(deps.DB, c.userID, action.MessageID, action.Emoji); err != nil {
			c.sendServiceError(err)
		}
	case ActionMarkRead:
		if _, err := deps.Reads.MarkRead(deps.DB, c.userID, action.ConversationID, action.MessageID); err != nil {
			c.sendServiceError(err)
		}
	case ActionTyping:
		c.handleTyping(action)
	default:
		c.sendError("unknown action")
	}
}

// handleTyping is the one action that bypasses the database write path: it
// touches the presence store and fans out directly.
func (c *Client) handleTyping(action clientAction) {
	deps := c.manager.deps

	member, err := deps.Participants.IsActiveMember(deps.DB, action.ConversationID, c.userID)
	if err != nil || !member {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := deps.Presence.SetTyping(ctx, action.ConversationID, c.userID, action.IsTyping); err != nil {
		logger.WithError(err).Debug("failed to update typing state")
	}

	roster, err := deps.Participants.ActiveUserIDs(deps.DB, action.ConversationID)
	if err != nil {
		return
	}

	envelope, err := events.NewEnvelope(events.TypeTyping, action.ConversationID, c.userID, roster,
		events.TypingPayload{UserID: c.userID, IsTyping: action.IsTyping})
	if err != nil {
		return
	}
	c.manager.Publish(envelope)
}

func (c *Client) sendServiceError(err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		c.sendError(appErr.Message)
		return
	}
	c.sendError("internal error")
}

func (c *Client) sendError(message string) {
	frame, err := json.Marshal(errorFrame{Type: "error", Message: message})
	if err != nil {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}
