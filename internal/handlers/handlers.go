package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/feed"
)

// Handler combines all handler types
type Handler struct {
	Auth         *AuthHandler
	Post         *PostHandler
	Vote         *VoteHandler
	User         *UserHandler
	Webhook      *WebhookHandler
	Notification *NotificationHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, svc *feed.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(db),
		Post:         NewPostHandler(db, svc),
		Vote:         NewVoteHandler(svc),
		User:         NewUserHandler(db, svc),
		Webhook:      NewWebhookHandler(db),
		Notification: NewNotificationHandler(db),
	}
}

// currentUserID reads the authenticated user's id set by the auth middleware.
func currentUserID(c *gin.Context) (int, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := userID.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// paramID parses a numeric path parameter, writing a 400 on failure.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
