package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"convo_backend/internal/dto"
	"convo_backend/internal/services"
	"convo_backend/pkg/apperrors"
)

type AuthHandler struct {
	*BaseHandler
	users services.UserService
}

func NewAuthHandler(base *BaseHandler, users services.UserService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, users: users}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	user, token, err := h.users.Register(h.GetDB(c), req.Name, req.Email, req.Password)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{Token: token, User: dto.ToUserResponse(user)})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	user, token, err := h.users.Login(h.GetDB(c), req.Email, req.Password)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AuthResponse{Token: token, User: dto.ToUserResponse(user)})
}

// Me handles GET /api/users/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(h.GetDB(c), userID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// Block handles POST /api/users/:id/block.
func (h *AuthHandler) Block(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	if err := h.users.Block(h.GetDB(c), userID, c.Param("id")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Unblock handles DELETE /api/users/:id/block.
func (h *AuthHandler) Unblock(c *gin.Context) {
	userID, ok := h.UserID(c)
	if !ok {
		return
	}

	if err := h.users.Unblock(h.GetDB(c), userID, c.Param("id")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
