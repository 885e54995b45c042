package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/buildfeed/backend/internal/models"
)

type WebhookHandler struct {
	db *gorm.DB
}

func NewWebhookHandler(db *gorm.DB) *WebhookHandler {
	return &WebhookHandler{db: db}
}

// CreateWebhook registers a subscriber endpoint (PROTECTED). The secret is
// generated here and included in this response only; it is never readable
// again.
func (h *WebhookHandler) CreateWebhook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input models.CreateWebhookRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := models.ValidateWebhookURL(input.URL); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateWebhookEvents(input.Events); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	secret, err := models.NewWebhookSecret()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate secret"})
		return
	}

	hook := models.Webhook{
		UserID: userID,
		URL:    input.URL,
		Secret: secret,
		Active: true,
	}
	if err := hook.SetEventList(input.Events); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode events"})
		return
	}

	if err := h.db.Create(&hook).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create webhook"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"webhook": hook,
		"secret":  secret,
	})
}

// GetWebhooks lists the caller's webhooks, secrets excluded
func (h *WebhookHandler) GetWebhooks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var hooks []models.Webhook
	if err := h.db.Where("user_id = ?", userID).Order("created_at desc").Find(&hooks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch webhooks"})
		return
	}

	if hooks == nil {
		hooks = []models.Webhook{}
	}

	c.JSON(http.StatusOK, hooks)
}

// UpdateWebhook toggles a webhook's active flag (PROTECTED)
func (h *WebhookHandler) UpdateWebhook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	webhookID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var hook models.Webhook
	if err := h.db.Where("id = ? AND user_id = ?", webhookID, userID).First(&hook).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook not found"})
		return
	}

	if err := h.db.Model(&hook).Update("active", *input.Active).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update webhook"})
		return
	}

	c.JSON(http.StatusOK, hook)
}

// DeleteWebhook removes a webhook (PROTECTED)
func (h *WebhookHandler) DeleteWebhook(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	webhookID, ok := paramID(c, "id")
	if !ok {
		return
	}

	var hook models.Webhook
	if err := h.db.Where("id = ? AND user_id = ?", webhookID, userID).First(&hook).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Webhook not found"})
		return
	}

	if err := h.db.Delete(&hook).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete webhook"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook deleted successfully"})
}
