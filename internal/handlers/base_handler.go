package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"convo_backend/internal/middleware"
	"convo_backend/internal/validator"
	"convo_backend/pkg/apperrors"
	"convo_backend/pkg/contextkeys"
)

// BaseHandler carries the pieces every handler needs: the validator and the
// shared error rendering.
type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{validator: v}
}

// GetDB pulls the request-scoped database handle injected by DBMiddleware.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	value, exists := c.Get(string(contextkeys.DBContextKey))
	if !exists {
		return nil
	}
	db, _ := value.(*gorm.DB)
	return db
}

// UserID returns the authenticated caller's id, or aborts with 401.
func (h *BaseHandler) UserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authentication required"))
		return "", false
	}
	return userID, true
}

// BindAndValidateJSON binds the JSON body into obj and runs struct
// validation, rendering the error response itself on failure.
func (h *BaseHandler) BindAndValidateJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
		return false
	}
	return h.validate(c, obj)
}

// BindAndValidateQuery does the same for query-string parameters.
func (h *BaseHandler) BindAndValidateQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid query parameters"))
		return false
	}
	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			apperrors.HandleError(c, apperrors.NewBadRequestError(err.Error()))
		}
		return false
	}
	return true
}
