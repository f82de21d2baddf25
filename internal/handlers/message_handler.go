package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"convo_backend/internal/dto"
	chatservice "convo_backend/internal/services/chat"
	"convo_backend/pkg/apperrors"
)

type MessageHandler struct {
	*BaseHandler
	messages  chatservice.MessageService
	reactions chatservice.ReactionService
}

func NewMessageHandler(
	base *BaseHandler,
	messages chatservice.MessageService,
	reactions chatservice.ReactionService,
) *MessageHandler {
	return &MessageHandler{BaseHandler: base, messages: messages, reactions: reactions}
}

// Send handles POST /api/conversations/:id/messages.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.SendMessageRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	message, err := h.messages.Send(h.GetDB(c), userID, c.Param("id"), chatservice.SendMessageInput{
		Content:   req.Content,
		MediaURL:  req.MediaURL,
		MediaType: req.MediaType,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMessageResponse(message))
}

// List handles GET /api/conversations/:id/messages.
func (h *MessageHandler) List(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var query dto.ListMessagesQuery
	if !h.BindAndValidateQuery(c, &query) {
		return
	}

	messages, err := h.messages.ListPage(h.GetDB(c), userID, c.Param("id"), query.BeforeID, query.Limit)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageResponses(messages))
}

// Get handles GET /api/messages/:id.
func (h *MessageHandler) Get(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	message, err := h.messages.Get(h.GetDB(c), userID, c.Param("id"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageResponse(message))
}

// Edit handles PATCH /api/messages/:id.
func (h *MessageHandler) Edit(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.EditMessageRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	message, err := h.messages.Edit(h.GetDB(c), userID, c.Param("id"), req.Content)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageResponse(message))
}

// Delete handles DELETE /api/messages/:id.
func (h *MessageHandler) Delete(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	if err := h.messages.Delete(h.GetDB(c), userID, c.Param("id")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleReaction handles POST /api/messages/:id/reactions.
func (h *MessageHandler) ToggleReaction(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.ToggleReactionRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}
	messageID := c.Param("id")

	summaries, added, err := h.reactions.Toggle(h.GetDB(c), userID, messageID, req.Emoji)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReactionToggleResponse{
		MessageID: messageID,
		Added:     added,
		Reactions: summaries,
	})
}
