package websocket

import (
	"net/http"
	"time"

	"rockspotter/logger"
	"rockspotter/middlewares"
	"rockspotter/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origins are enforced by the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NotificationHandler upgrades an authenticated request and streams the
// user's achievement and hunt notifications until the client disconnects.
func NotificationHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middlewares.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		client := NewNotificationClient(conn, userID.Hex())
		hub.Register(client)
		defer hub.Unregister(client)

		client.SafeWriteJSON(gin.H{
			"type":    "connected",
			"message": "Connected to notifications",
			"userId":  client.UserID,
		})

		// Drain incoming frames so control messages are handled until close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warning("Notification WebSocket error: %v", err)
				}
				return
			}
		}
	}
}

// NotifyAwards sends one notification per award to the awarded user
func NotifyAwards(hub *Hub, awards []models.Award) {
	for _, award := range awards {
		hub.Notify(models.NotificationEvent{
			Type:            models.NotificationAchievementAwarded,
			UserID:          award.UserID.Hex(),
			AchievementID:   award.AchievementID.Hex(),
			AchievementName: award.AchievementName,
			Timestamp:       time.Now(),
		})
	}
}

// NotifyHuntCompleted tells the user they finished a hunt
func NotifyHuntCompleted(hub *Hub, userID, huntID string) {
	hub.Notify(models.NotificationEvent{
		Type:      models.NotificationHuntCompleted,
		UserID:    userID,
		HuntID:    huntID,
		Timestamp: time.Now(),
	})
}
