package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"convo_backend/internal/handlers"
	"convo_backend/internal/middleware"
	"convo_backend/ws"
)

type Handlers struct {
	Auth          *handlers.AuthHandler
	Conversations *handlers.ConversationHandler
	Messages      *handlers.MessageHandler
	WSManager     *ws.Manager
}

// Setup registers every route on the engine.
func Setup(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/users/me", h.Auth.Me)
		protected.POST("/users/:id/block", h.Auth.Block)
		protected.DELETE("/users/:id/block", h.Auth.Unblock)

		conversations := protected.Group("/conversations")
		{
			conversations.GET("", h.Conversations.List)
			conversations.POST("/direct", h.Conversations.Direct)
			conversations.POST("/group", h.Conversations.CreateGroup)
			conversations.GET("/:id", h.Conversations.Get)
			conversations.PATCH("/:id", h.Conversations.Update)
			conversations.POST("/:id/leave", h.Conversations.Leave)
			conversations.POST("/:id/read", h.Conversations.MarkRead)
			conversations.GET("/:id/unread", h.Conversations.UnreadCount)
			conversations.POST("/:id/participants", h.Conversations.AddParticipant)
			conversations.DELETE("/:id/participants/:userId", h.Conversations.RemoveParticipant)
			conversations.PUT("/:id/participants/:userId/role", h.Conversations.ChangeRole)

			conversations.POST("/:id/messages", h.Messages.Send)
			conversations.GET("/:id/messages", h.Messages.List)
		}

		messages := protected.Group("/messages")
		{
			messages.GET("/:id", h.Messages.Get)
			messages.PATCH("/:id", h.Messages.Edit)
			messages.DELETE("/:id", h.Messages.Delete)
			messages.POST("/:id/reactions", h.Messages.ToggleReaction)
		}
	}

	if h.WSManager != nil {
		r.GET("/ws", ws.ServeWS(h.WSManager))
	}
}
