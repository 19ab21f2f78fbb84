package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"gorm.io/gorm"
)

// ListMyOrders handles GET /api/v1/orders - the caller's orders, newest first
func ListMyOrders(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}

	var orders []models.Order
	if err := config.GetDB().Where("customer_id = ?", customer.ID).
		Preload("Items.Product").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		log.Printf("Failed to list orders for customerID=%d: %v", customer.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch orders")
		return
	}

	respondData(c, http.StatusOK, orders)
}

// GetOrder handles GET /api/v1/orders/:id. Visible to the customer who
// placed the order and to artists whose products it contains.
func GetOrder(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	order, ok := loadParticipantOrder(c, user)
	if !ok {
		return
	}

	respondData(c, http.StatusOK, order)
}

// loadParticipantOrder loads the :id order with its items, responding 404
// or 403 when it is missing or user takes no part in it.
func loadParticipantOrder(c *gin.Context, user *models.User) (*models.Order, bool) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("Items.Product").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return nil, false
		}
		log.Printf("Failed to load order %d: %v", orderID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch order")
		return nil, false
	}

	allowed, err := isOrderParticipant(db, user, &order)
	if err != nil {
		log.Printf("Failed to check access to order %d for userID=%d: %v", order.ID, user.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch order")
		return nil, false
	}
	if !allowed {
		respondError(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this order")
		return nil, false
	}

	return &order, true
}

// isOrderParticipant reports whether user is the order's customer or the
// artist of one of its products. order.Items must be loaded with products.
func isOrderParticipant(db *gorm.DB, user *models.User, order *models.Order) (bool, error) {
	switch user.Role {
	case models.RoleCustomer:
		var count int64
		err := db.Model(&models.Customer{}).
			Where("user_id = ? AND id = ?", user.ID, order.CustomerID).
			Count(&count).Error
		return count > 0, err
	case models.RoleArtist:
		var artist models.Artist
		if err := db.Where("user_id = ?", user.ID).Take(&artist).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		for _, item := range order.Items {
			if item.Product != nil && item.Product.ArtistID == artist.ID {
				return true, nil
			}
		}
	}
	return false, nil
}
