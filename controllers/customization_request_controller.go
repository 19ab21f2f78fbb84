package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/youssefabdellah10/craftopia-sub000/config"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"github.com/youssefabdellah10/craftopia-sub000/services"
)

// CreateCustomizationRequestBody is accepted as JSON or multipart form.
// Multipart requests may attach a reference image in the "image" field.
type CreateCustomizationRequestBody struct {
	Title       string      `json:"title" form:"title"`
	Description string      `json:"description" form:"description"`
	Budget      json.Number `json:"budget" form:"budget"`
	Deadline    string      `json:"deadline" form:"deadline"`
}

// RespondToRequestBody is an artist's offer, as JSON or multipart form
type RespondToRequestBody struct {
	Price                    json.Number `json:"price" form:"price"`
	Notes                    string      `json:"notes" form:"notes"`
	EstimationCompletionDate string      `json:"estimation_completion_date" form:"estimation_completion_date"`
}

// CreateCustomizationRequest handles POST /api/v1/customization-requests
func CreateCustomizationRequest(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}

	var body CreateCustomizationRequestBody
	if err := c.ShouldBind(&body); err != nil {
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

	request, err := customizationService().CreateRequest(c.Request.Context(), customer, services.CreateRequestInput{
		Title:       body.Title,
		Description: body.Description,
		Budget:      body.Budget.String(),
		Deadline:    body.Deadline,
	}, attachedImage(c, services.FolderCustomizationRequests))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	mailer := services.GetEmailService()
	to, name := customer.User.Email, customer.Name
	details := services.RequestEmailDetails{
		RequestID:   request.ID,
		Title:       request.Title,
		Description: request.Description,
		Budget:      request.Budget,
		Deadline:    request.Deadline,
	}
	services.GetTaskRunner().Go("customization-request-received-email", func(ctx context.Context) error {
		return mailer.SendCustomizationRequestReceivedEmail(ctx, to, name, details)
	})

	respondData(c, http.StatusCreated, request)
}

// ListOpenCustomizationRequests handles GET /api/v1/customization-requests/open (artists)
func ListOpenCustomizationRequests(c *gin.Context) {
	if _, ok := currentArtist(c); !ok {
		return
	}

	requests, err := customizationService().ListOpenRequests(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, requests)
}

// ListMyCustomizationRequests handles GET /api/v1/customization-requests/mine
func ListMyCustomizationRequests(c *gin.Context) {
	listCustomerRequests(c, false)
}

// ListMyCustomizationRequestsWithoutOffers handles GET /api/v1/customization-requests/mine/no-offers
func ListMyCustomizationRequestsWithoutOffers(c *gin.Context) {
	listCustomerRequests(c, true)
}

func listCustomerRequests(c *gin.Context, onlyWithoutOffers bool) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}

	requests, err := customizationService().ListCustomerRequests(c.Request.Context(), customer.ID, onlyWithoutOffers)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondData(c, http.StatusOK, requests)
}

// GetCustomizationRequest handles GET /api/v1/customization-requests/:id.
// Customers see their own request with every offer; artists see the request
// with only their own offer.
func GetCustomizationRequest(c *gin.Context) {
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, ok := currentUser(c)
	if !ok {
		return
	}

	db := config.GetDB()
	svc := customizationService()

	var customer models.Customer
	if err := db.Where("user_id = ?", user.ID).Take(&customer).Error; err == nil {
		detail, err := svc.GetRequestForCustomer(c.Request.Context(), customer.ID, requestID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, detail)
		return
	}

	var artist models.Artist
	if err := db.Where("user_id = ?", user.ID).Take(&artist).Error; err == nil {
		detail, err := svc.GetRequestForArtist(c.Request.Context(), artist.ID, requestID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		respondData(c, http.StatusOK, detail)
		return
	}

	respondError(c, http.StatusForbidden, "PROFILE_REQUIRED", "A customer or artist profile is required")
}

// CloseCustomizationRequest handles PATCH /api/v1/customization-requests/:id/close
func CloseCustomizationRequest(c *gin.Context) {
	customer, ok := currentCustomer(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := customizationService().CloseRequest(c.Request.Context(), customer.ID, requestID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	publish(services.EventRequestClosed, services.RequestClosedEvent{
		RequestID:    result.RequestID,
		CustomerID:   customer.ID,
		AutoDeclined: result.AutoDeclined,
	})

	respondData(c, http.StatusOK, result)
}

// RespondToCustomizationRequest handles POST /api/v1/customization-requests/:id/responses.
// A new offer returns 201; resubmitting a declined offer returns 200.
func RespondToCustomizationRequest(c *gin.Context) {
	artist, ok := currentArtist(c)
	if !ok {
		return
	}
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var body RespondToRequestBody
	if err := c.ShouldBind(&body); err != nil {
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

	result, err := customizationService().SubmitResponse(c.Request.Context(), artist, requestID, services.SubmitResponseInput{
		Price:                    body.Price.String(),
		Notes:                    body.Notes,
		EstimationCompletionDate: body.EstimationCompletionDate,
	}, attachedImage(c, services.FolderCustomizationResponses))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	notifyCustomerOfResponse(artist, result)

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	respondData(c, status, result.Response)
}

// notifyCustomerOfResponse emails the request owner in the background
func notifyCustomerOfResponse(artist *models.Artist, result *services.SubmitResult) {
	db := config.GetDB()
	mailer := services.GetEmailService()

	response := result.Response
	details := services.ResponseEmailDetails{
		RequestID:                result.Request.ID,
		RequestTitle:             result.Request.Title,
		ResponseID:               response.ID,
		ArtistName:               artist.Name,
		Price:                    response.Price,
		EstimationCompletionTime: response.EstimationCompletionTime,
		Resubmitted:              !result.Created,
	}
	if response.Notes != nil {
		details.Notes = *response.Notes
	}
	customerID := result.Request.CustomerID

	services.GetTaskRunner().Go("customization-response-email", func(ctx context.Context) error {
		var customer models.Customer
		if err := db.WithContext(ctx).Preload("User").First(&customer, customerID).Error; err != nil {
			return err
		}
		return mailer.SendCustomizationResponseEmail(ctx, customer.User.Email, customer.Name, details)
	})
}

// attachedImage returns an upload of the multipart "image" field, or nil when none was sent
func attachedImage(c *gin.Context, folder string) services.ImageUpload {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			log.Printf("Ignoring unreadable image field: %v", err)
		}
		return nil
	}

	store := services.GetImageService()
	return func(ctx context.Context) (string, error) {
		if store == nil {
			return "", errors.New("image storage is not configured")
		}
		return store.UploadImage(ctx, fileHeader, folder)
	}
}

// publish sends a domain event in the background
func publish(routingKey string, data any) {
	publisher := services.GetEventPublisher()
	services.GetTaskRunner().Go("publish "+routingKey, func(ctx context.Context) error {
		return publisher.Publish(ctx, routingKey, data)
	})
}
