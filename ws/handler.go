package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"convo_backend/internal/auth"
	"convo_backend/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced at the edge.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades GET /ws. Browsers cannot set headers on websocket
// requests, so the token rides in the query string.
func ServeWS(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithError(err).Warn("ws upgrade failed")
			return
		}

		client := newClient(manager, conn, claims.UserID)
		select {
		case manager.register <- client:
		case <-manager.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
