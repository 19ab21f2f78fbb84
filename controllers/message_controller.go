package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/models"
)

// SendMessageRequest represents the request body for sending a message
type SendMessageRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}

// SendMessage handles POST /api/v1/orders/:id/messages
func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadParticipantOrder(c, user)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		details := "text must not be blank"
		if err != nil {
			details = err.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": details,
			},
		})
		return
	}

	message := models.Message{
		OrderID:    order.ID,
		SenderID:   user.ID,
		SenderName: user.Name,
		SenderRole: user.Role,
		Text:       strings.TrimSpace(req.Text),
	}
	if err := config.GetDB().Create(&message).Error; err != nil {
		log.Printf("Failed to store message on order %d: %v", order.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create message")
		return
	}

	respondData(c, http.StatusCreated, message)
}

// ListMessages handles GET /api/v1/orders/:id/messages, oldest first
func ListMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadParticipantOrder(c, user)
	if !ok {
		return
	}

	var messages []models.Message
	if err := config.GetDB().Where("order_id = ?", order.ID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		log.Printf("Failed to list messages on order %d: %v", order.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch messages")
		return
	}

	respondData(c, http.StatusOK, messages)
}
