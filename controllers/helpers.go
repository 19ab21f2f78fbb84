package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/middleware"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"github.com/youssefabdellah10/craftopia-sub000/services"
	"gorm.io/gorm"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError writes err using its ServiceError kind, or a generic
// 500 for anything unexpected.
func respondServiceError(c *gin.Context, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong, please try again later")
		return
	}
	if se.HTTPStatus() >= http.StatusInternalServerError {
		log.Printf("Request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{
		"code":    se.Code,
		"message": se.Message,
	}
	if len(se.Details) > 0 {
		body["details"] = se.Details
	}
	c.JSON(se.HTTPStatus(), gin.H{
		"success": false,
		"error":   body,
	})
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// parseIDParam reads a positive integer path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// currentUser resolves the JWT subject to a registered user
func currentUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	var user models.User
	if err := config.GetDB().Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusForbidden, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
			return nil, false
		}
		log.Printf("Failed to load user auth0ID=%s: %v", auth0ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load user profile")
		return nil, false
	}
	return &user, true
}

// currentCustomer resolves the caller's customer profile, responding 403 if there is none
func currentCustomer(c *gin.Context) (*models.Customer, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}

	var customer models.Customer
	if err := config.GetDB().Where("user_id = ?", user.ID).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusForbidden, "CUSTOMER_PROFILE_REQUIRED", "Only customers can perform this action")
			return nil, false
		}
		log.Printf("Failed to load customer profile for userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load customer profile")
		return nil, false
	}
	customer.User = *user
	return &customer, true
}

// currentArtist resolves the caller's artist profile, responding 403 if there is none
func currentArtist(c *gin.Context) (*models.Artist, bool) {
	user, ok := currentUser(c)
	if !ok {
		return nil, false
	}

	var artist models.Artist
	if err := config.GetDB().Where("user_id = ?", user.ID).First(&artist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusForbidden, "ARTIST_PROFILE_REQUIRED", "Only artists can perform this action")
			return nil, false
		}
		log.Printf("Failed to load artist profile for userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load artist profile")
		return nil, false
	}
	artist.User = *user
	return &artist, true
}

func customizationService() *services.CustomizationService {
	return services.NewCustomizationService(config.GetDB())
}
