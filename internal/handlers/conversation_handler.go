package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"convo_backend/internal/dto"
	"convo_backend/internal/models/chat"
	chatservice "convo_backend/internal/services/chat"
	"convo_backend/pkg/apperrors"
)

type ConversationHandler struct {
	*BaseHandler
	conversations chatservice.ConversationService
	reads         chatservice.ReadTracker
}

func NewConversationHandler(
	base *BaseHandler,
	conversations chatservice.ConversationService,
	reads chatservice.ReadTracker,
) *ConversationHandler {
	return &ConversationHandler{BaseHandler: base, conversations: conversations, reads: reads}
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	db := h.GetDB(c)

	conversations, err := h.conversations.ListForUser(db, userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	unread, err := h.reads.UnreadCounts(db, userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponses(conversations, unread))
}

// Get handles GET /api/conversations/:id.
func (h *ConversationHandler) Get(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	db := h.GetDB(c)
	conversationID := c.Param("id")

	conversation, err := h.conversations.Get(db, userID, conversationID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	unread, err := h.reads.UnreadCount(db, userID, conversationID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(conversation, unread))
}

// Direct handles POST /api/conversations/direct: get-or-create the DM with
// another user.
func (h *ConversationHandler) Direct(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.DirectConversationRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	conversation, created, err := h.conversations.GetOrCreateDirect(h.GetDB(c), userID, req.UserID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.ToConversationResponse(conversation, 0))
}

// CreateGroup handles POST /api/conversations/group.
func (h *ConversationHandler) CreateGroup(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.CreateGroupRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	conversation, err := h.conversations.CreateGroup(h.GetDB(c), userID, req.Title, req.Description, req.MemberIDs)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToConversationResponse(conversation, 0))
}

// Update handles PATCH /api/conversations/:id.
func (h *ConversationHandler) Update(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.UpdateGroupRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	conversation, err := h.conversations.UpdateGroup(h.GetDB(c), userID, c.Param("id"),
		req.Title, req.Description, req.ImageURL)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(conversation, 0))
}

// AddParticipant handles POST /api/conversations/:id/participants.
func (h *ConversationHandler) AddParticipant(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.AddParticipantRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	participant, err := h.conversations.AddParticipant(h.GetDB(c), userID, c.Param("id"),
		req.UserID, chat.ParticipantRole(req.Role))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToParticipantResponse(participant))
}

// RemoveParticipant handles DELETE /api/conversations/:id/participants/:userId.
func (h *ConversationHandler) RemoveParticipant(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	err := h.conversations.RemoveParticipant(h.GetDB(c), userID, c.Param("id"), c.Param("userId"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave handles POST /api/conversations/:id/leave.
func (h *ConversationHandler) Leave(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	if err := h.conversations.Leave(h.GetDB(c), userID, c.Param("id")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ChangeRole handles PUT /api/conversations/:id/participants/:userId/role.
func (h *ConversationHandler) ChangeRole(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	err := h.conversations.ChangeRole(h.GetDB(c), userID, c.Param("id"), c.Param("userId"),
		chat.ParticipantRole(req.Role))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkRead handles POST /api/conversations/:id/read.
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	var req dto.MarkReadRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}
	conversationID := c.Param("id")

	seq, err := h.reads.MarkRead(h.GetDB(c), userID, conversationID, req.MessageID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MarkReadResponse{ConversationID: conversationID, LastReadSeq: seq})
}

// UnreadCount handles GET /api/conversations/:id/unread.
func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}
	conversationID := c.Param("id")

	count, err := h.reads.UnreadCount(h.GetDB(c), userID, conversationID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UnreadCountResponse{ConversationID: conversationID, UnreadCount: count})
}
