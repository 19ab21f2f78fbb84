package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/middleware"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"github.com/youssefabdellah10/craftopia-sub000/services"
	"gorm.io/gorm"
)

// CreateUserRequest carries optional profile fields. Name and email come from Auth0.
type CreateUserRequest struct {
	Username  string `json:"username" binding:"omitempty,alphanum,min=3,max=30"`
	Biography string `json:"biography"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// UpdateUserRequest represents the request body for updating a user profile
type UpdateUserRequest struct {
	Name  string `json:"name" binding:"omitempty"`
	Email string `json:"email" binding:"omitempty,email"`
}

// CreateUser handles POST /api/v1/users. It registers the caller from Auth0
// /userinfo and creates the customer or artist profile named by the role claim.
func CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	var req CreateUserRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Invalid request data",
					"details": err.Error(),
				},
			})
			return
		}
	}

	role := middleware.GetRole(c)
	if role == "" {
		role = models.RoleCustomer
	}
	if !models.IsValidRole(role) {
		respondError(c, http.StatusBadRequest, "INVALID_ROLE", "Role must be customer or artist")
		return
	}

	userInfo, err := services.NewAuth0Service(config.GetConfig()).GetUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		log.Printf("Failed to fetch Auth0 userinfo for %s: %v", auth0ID, err)
		respondError(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}
	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    userInfo.Name,
		Email:   userInfo.Email,
		Role:    role,
	}

	var profile any
	err = config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		if role == models.RoleArtist {
			artist := models.Artist{
				UserID:    user.ID,
				Name:      user.Name,
				Username:  artistUsername(req.Username, userInfo),
				Biography: optional(req.Biography),
			}
			if userInfo.Picture != "" {
				artist.ProfilePicture = &userInfo.Picture
			}
			if err := tx.Create(&artist).Error; err != nil {
				return err
			}
			profile = artist
			return nil
		}

		customer := models.Customer{
			UserID:  user.ID,
			Name:    user.Name,
			Phone:   optional(req.Phone),
			Address: optional(req.Address),
		}
		if err := tx.Create(&customer).Error; err != nil {
			return err
		}
		profile = customer
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID, email or username already exists")
			return
		}
		log.Printf("Failed to create user %s: %v", auth0ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	respondData(c, http.StatusCreated, gin.H{
		"user":    user,
		"profile": profile,
	})
}

// GetMyProfile handles GET /api/v1/users/me
func GetMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := loadProfile(config.GetDB(), user)
	if err != nil {
		log.Printf("Failed to load profile for userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load profile")
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"user":    user,
		"profile": profile,
	})
}

// UpdateMyProfile handles PUT /api/v1/users/me. The display name is copied
// to the customer or artist profile.
func UpdateMyProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if len(updates) == 0 {
		respondData(c, http.StatusOK, user)
		return
	}

	db := config.GetDB()
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(user).Updates(updates).Error; err != nil {
			return err
		}
		if req.Name == "" {
			return nil
		}
		if err := tx.Model(&models.Customer{}).Where("user_id = ?", user.ID).Update("name", req.Name).Error; err != nil {
			return err
		}
		return tx.Model(&models.Artist{}).Where("user_id = ?", user.ID).Update("name", req.Name).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			respondError(c, http.StatusConflict, "EMAIL_EXISTS", "A user with this email already exists")
			return
		}
		log.Printf("Failed to update userID=%d: %v", user.ID, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	if err := db.First(user, user.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile")
		return
	}

	respondData(c, http.StatusOK, user)
}

// loadProfile returns the customer or artist profile of user, or nil
func loadProfile(db *gorm.DB, user *models.User) (any, error) {
	if user.Role == models.RoleArtist {
		var artist models.Artist
		err := db.Where("user_id = ?", user.ID).Take(&artist).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return artist, err
	}

	var customer models.Customer
	err := db.Where("user_id = ?", user.ID).Take(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return customer, err
}

// artistUsername picks the requested username, then the Auth0 nickname,
// then the local part of the email address.
func artistUsername(requested string, info *services.Auth0UserInfo) string {
	if requested != "" {
		return requested
	}
	if info.Nickname != "" {
		return info.Nickname
	}
	local, _, _ := strings.Cut(info.Email, "@")
	return local
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation works for both PostgreSQL and SQLite, with or without error translation
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
