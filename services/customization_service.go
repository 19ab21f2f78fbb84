package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"github.com/youssefabdellah10/craftopia-sub000/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxAmount is the first value that no longer fits a decimal(10,2) column
var maxAmount = decimal.New(1, 8)

// ImageUpload stores an attached image and returns its URL.
// A nil ImageUpload means no file was attached.
type ImageUpload func(ctx context.Context) (string, error)

// CreateRequestInput is the customer-supplied part of a new request
type CreateRequestInput struct {
	Title       string
	Description string
	Budget      string
	Deadline    string
}

// SubmitResponseInput is the artist-supplied part of an offer
type SubmitResponseInput struct {
	Price                    string
	Notes                    string
	EstimationCompletionDate string
}

// CloseResult reports the outcome of closing a request
type CloseResult struct {
	RequestID    uint   `json:"request_id"`
	Status       string `json:"status"`
	AutoDeclined int64  `json:"auto_declined_responses"`
}

// SubmitResult reports the outcome of an artist responding to a request
type SubmitResult struct {
	Response *models.CustomizationResponse
	Request  *models.CustomizationRequest
	Created  bool // false when a declined offer was resubmitted in place
}

// AcceptResult reports everything created by accepting an offer
type AcceptResult struct {
	Response     models.CustomizationResponse
	Request      models.CustomizationRequest
	Order        models.Order
	Product      models.Product
	AutoDeclined int64
}

// CustomizationService implements the request/response lifecycle
type CustomizationService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCustomizationService creates a service on top of db
func NewCustomizationService(db *gorm.DB) *CustomizationService {
	return &CustomizationService{db: db, now: time.Now}
}

// WithClock returns a copy of the service that reads the time from now
func (s *CustomizationService) WithClock(now func() time.Time) *CustomizationService {
	return &CustomizationService{db: s.db, now: now}
}

// CreateRequest validates input and opens a new request for customer.
// A failed image upload is logged and the request is created without an image.
func (s *CustomizationService) CreateRequest(ctx context.Context, customer *models.Customer, input CreateRequestInput, upload ImageUpload) (*models.CustomizationRequest, error) {
	now := s.now()

	var missing []string
	if strings.TrimSpace(input.Description) == "" {
		missing = append(missing, "description")
	}
	budget, budgetErr := decimal.NewFromString(strings.TrimSpace(input.Budget))
	if strings.TrimSpace(input.Budget) == "" || (budgetErr == nil && budget.IsZero()) {
		missing = append(missing, "budget")
	}
	if strings.TrimSpace(input.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(input.Deadline) == "" {
		missing = append(missing, "deadline")
	}
	if len(missing) > 0 {
		return nil, validationError("MISSING_FIELDS",
			"Description, budget, title and deadline are required",
			map[string]interface{}{"required_fields": []string{"description", "budget", "title", "deadline"}, "missing": missing})
	}
	if budgetErr != nil || !validAmount(budget) {
		return nil, validationError("INVALID_BUDGET", "Budget must be a positive amount below 100000000 with at most two decimal places", nil)
	}

	deadline, err := utils.ValidateDeadline(input.Deadline, now)
	if err != nil {
		return nil, dateError(err)
	}

	var image *string
	if upload != nil {
		url, err := upload(ctx)
		if err != nil {
			log.Printf("Image upload failed for new customization request (customerID=%d), continuing without image: %v", customer.ID, err)
		} else {
			image = &url
		}
	}

	request := models.CustomizationRequest{
		CustomerID:  customer.ID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Budget:      budget,
		Deadline:    deadline,
		Image:       image,
		Status:      models.RequestStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(&request).Error; err != nil {
		return nil, fmt.Errorf("create customization request: %w", err)
	}

	return &request, nil
}

// CloseRequest closes an open request owned by customerID and declines
// every offer still pending on it.
func (s *CustomizationService) CloseRequest(ctx context.Context, customerID, requestID uint) (*CloseResult, error) {
	var result *CloseResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A request owned by someone else is reported as missing
		request, err := lockRequest(tx, requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && request.CustomerID != customerID) {
			return notFoundError("REQUEST_NOT_FOUND", "Customization request not found")
		}
		if err != nil {
			return fmt.Errorf("load customization request: %w", err)
		}
		if !request.IsOpen() {
			return requestAlreadyClosedError(KindInvalidState, requestID)
		}

		closed := tx.Model(&models.CustomizationRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestStatusOpen).
			Update("status", models.RequestStatusClosed)
		if closed.Error != nil {
			return fmt.Errorf("close customization request: %w", closed.Error)
		}
		if closed.RowsAffected == 0 {
			return requestAlreadyClosedError(KindInvalidState, requestID)
		}

		declined, err := AutoDeclinePendingResponses(tx, requestID)
		if err != nil {
			return err
		}

		result = &CloseResult{RequestID: requestID, Status: models.RequestStatusClosed, AutoDeclined: declined}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SubmitResponse records artist's offer on a request. A previously declined
// offer from the same artist is overwritten and becomes pending again.
// upload runs after every precondition passes and before anything is
// written; its failure fails the submission.
func (s *CustomizationService) SubmitResponse(ctx context.Context, artist *models.Artist, requestID uint, input SubmitResponseInput, upload ImageUpload) (*SubmitResult, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	sub, err := s.checkSubmission(db, artist.ID, requestID, input, now)
	if err != nil {
		return nil, err
	}

	var image *string
	if upload != nil {
		url, err := upload(ctx)
		if err != nil {
			var fileErr *utils.FileUploadError
			if errors.As(err, &fileErr) {
				return nil, validationError(fileErr.Code, fileErr.Message, nil)
			}
			log.Printf("Image upload failed for response to request %d (artistID=%d): %v", requestID, artist.ID, err)
			return nil, newError(KindUpstream, "IMAGE_UPLOAD_FAILED", "Error uploading image", nil)
		}
		image = &url
	}

	var notes *string
	if trimmed := strings.TrimSpace(input.Notes); trimmed != "" {
		notes = &trimmed
	}

	result := &SubmitResult{Request: sub.request}
	err = db.Transaction(func(tx *gorm.DB) error {
		// Re-check under the lock; the request may have closed while uploading
		current, err := lockRequest(tx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("REQUEST_NOT_FOUND", "Customization request not found")
			}
			return fmt.Errorf("load customization request: %w", err)
		}
		if !current.IsOpen() {
			return requestNotOpenError(current)
		}
		result.Request = current

		existing := sub.prior
		if existing == nil {
			response := models.CustomizationResponse{
				RequestID:                requestID,
				ArtistID:                 artist.ID,
				Price:                    sub.price,
				Notes:                    notes,
				EstimationCompletionTime: sub.estimation,
				Image:                    image,
				Status:                   models.ResponseStatusPending,
			}
			// postgres aborts the whole transaction on a failed insert
			if err := tx.SavePoint("create_response").Error; err != nil {
				return fmt.Errorf("savepoint: %w", err)
			}
			createErr := tx.Create(&response).Error
			if createErr == nil {
				result.Response = &response
				result.Created = true
				return nil
			}
			if !isDuplicateKeyError(createErr) {
				return fmt.Errorf("create customization response: %w", createErr)
			}
			if err := tx.RollbackTo("create_response").Error; err != nil {
				return fmt.Errorf("rollback to savepoint: %w", err)
			}

			// Lost a race with a concurrent submission from the same artist
			existing, err = findResponse(tx, requestID, artist.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("create customization response: %w", createErr)
			}
		}

		if existing.Status != models.ResponseStatusDeclined {
			return alreadyRespondedError(existing)
		}

		updated := tx.Model(&models.CustomizationResponse{}).
			Where("id = ? AND status = ?", existing.ID, models.ResponseStatusDeclined).
			Updates(map[string]interface{}{
				"price":                      sub.price,
				"notes":                      notes,
				"estimation_completion_time": sub.estimation,
				"image":                      image,
				"status":                     models.ResponseStatusPending,
				"updated_at":                 now,
			})
		if updated.Error != nil {
			return fmt.Errorf("resubmit customization response: %w", updated.Error)
		}
		if updated.RowsAffected == 0 {
			if err := tx.First(existing, existing.ID).Error; err != nil {
				return fmt.Errorf("reload customization response: %w", err)
			}
			return alreadyRespondedError(existing)
		}

		var response models.CustomizationResponse
		if err := tx.First(&response, existing.ID).Error; err != nil {
			return fmt.Errorf("reload customization response: %w", err)
		}
		result.Response = &response
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// submission is a validated offer ready to be written
type submission struct {
	request    *models.CustomizationRequest
	price      decimal.Decimal
	estimation time.Time
	prior      *models.CustomizationResponse // declined offer to overwrite, nil for a first offer
}

// checkSubmission runs the read-only preconditions of SubmitResponse in order
func (s *CustomizationService) checkSubmission(db *gorm.DB, artistID, requestID uint, input SubmitResponseInput, now time.Time) (*submission, error) {
	var request models.CustomizationRequest
	if err := db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("REQUEST_NOT_FOUND", "Customization request not found")
		}
		return nil, fmt.Errorf("load customization request: %w", err)
	}
	if !request.IsOpen() {
		return nil, requestNotOpenError(&request)
	}

	if strings.TrimSpace(input.EstimationCompletionDate) == "" {
		return nil, validationError("MISSING_FIELDS", "Price and estimation completion date are required",
			map[string]interface{}{"required_fields": []string{"price", "estimation_completion_date"}})
	}
	estimation, err := utils.ValidateFutureDate("estimation_completion_date", input.EstimationCompletionDate, now)
	if err != nil {
		return nil, dateError(err)
	}

	if strings.TrimSpace(input.Price) == "" {
		return nil, validationError("MISSING_FIELDS", "Price and estimation completion date are required",
			map[string]interface{}{"required_fields": []string{"price", "estimation_completion_date"}})
	}
	price, err := decimal.NewFromString(strings.TrimSpace(input.Price))
	if err != nil || !validAmount(price) {
		return nil, validationError("INVALID_PRICE", "Price must be a positive amount below 100000000 with at most two decimal places", nil)
	}

	existing, err := findResponse(db, requestID, artistID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != models.ResponseStatusDeclined {
		return nil, alreadyRespondedError(existing)
	}

	return &submission{request: &request, price: price, estimation: estimation, prior: existing}, nil
}

// AcceptResponse accepts a pending offer on one of customerID's requests.
// In a single transaction it marks the offer accepted, creates the order,
// the bespoke product and the order line, closes the request and declines
// every other pending offer.
func (s *CustomizationService) AcceptResponse(ctx context.Context, customerID, responseID uint) (*AcceptResult, error) {
	var result *AcceptResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		response, request, err := loadOwnedResponse(tx, customerID, responseID)
		if err != nil {
			return err
		}
		now := s.now()

		if err := transitionResponse(tx, response, models.ResponseStatusAccepted); err != nil {
			return err
		}

		order := models.Order{
			CustomerID:  request.CustomerID,
			TotalAmount: response.Price,
			Status:      models.OrderStatusPending,
			CreatedAt:   now,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		product := bespokeProduct(request, response)
		if err := tx.Create(&product).Error; err != nil {
			return fmt.Errorf("create customizable product: %w", err)
		}

		item := models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 1}
		if err := tx.Create(&item).Error; err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
		order.Items = []models.OrderItem{item}

		closed := tx.Model(&models.CustomizationRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestStatusOpen).
			Updates(map[string]interface{}{"status": models.RequestStatusClosed, "order_id": order.ID})
		if closed.Error != nil {
			return fmt.Errorf("close customization request: %w", closed.Error)
		}
		if closed.RowsAffected == 0 {
			return requestAlreadyClosedError(KindConflict, request.ID)
		}
		request.Status = models.RequestStatusClosed
		request.OrderID = &order.ID

		declined, err := AutoDeclinePendingResponses(tx, request.ID)
		if err != nil {
			return err
		}

		result = &AcceptResult{
			Response:     *response,
			Request:      *request,
			Order:        order,
			Product:      product,
			AutoDeclined: declined,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeclineResponse declines a single pending offer. The request stays open.
func (s *CustomizationService) DeclineResponse(ctx context.Context, customerID, responseID uint) (*models.CustomizationResponse, error) {
	var declined *models.CustomizationResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		response, _, err := loadOwnedResponse(tx, customerID, responseID)
		if err != nil {
			return err
		}
		if err := transitionResponse(tx, response, models.ResponseStatusDeclined); err != nil {
			return err
		}
		declined = response
		return nil
	})
	if err != nil {
		return nil, err
	}

	return declined, nil
}

// AutoDeclinePendingResponses declines every pending offer on requestID and
// returns how many rows changed. Calling it again returns 0.
func AutoDeclinePendingResponses(db *gorm.DB, requestID uint) (int64, error) {
	res := db.Model(&models.CustomizationResponse{}).
		Where("request_id = ? AND status = ?", requestID, models.ResponseStatusPending).
		Update("status", models.ResponseStatusDeclined)
	if res.Error != nil {
		return 0, fmt.Errorf("auto-decline responses for request %d: %w", requestID, res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("Auto-declined %d pending responses for request %d", res.RowsAffected, requestID)
	}
	return res.RowsAffected, nil
}

// AutoDecline runs AutoDeclinePendingResponses outside any caller transaction
func (s *CustomizationService) AutoDecline(ctx context.Context, requestID uint) (int64, error) {
	return AutoDeclinePendingResponses(s.db.WithContext(ctx), requestID)
}

// loadOwnedResponse loads a pending offer and its request, checking in
// order: offer exists, request exists, caller owns request, offer pending.
func loadOwnedResponse(tx *gorm.DB, customerID, responseID uint) (*models.CustomizationResponse, *models.CustomizationRequest, error) {
	var response models.CustomizationResponse
	if err := tx.First(&response, responseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, notFoundError("RESPONSE_NOT_FOUND", "Customization response not found")
		}
		return nil, nil, fmt.Errorf("load customization response: %w", err)
	}

	request, err := lockRequest(tx, response.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Integrity violation: response %d references missing request %d", response.ID, response.RequestID)
			return nil, nil, newError(KindIntegrity, "REQUEST_MISSING", "Customization request for this response no longer exists", nil)
		}
		return nil, nil, fmt.Errorf("load customization request: %w", err)
	}

	// A competing accept or decline may have committed while we waited for the lock
	response = models.CustomizationResponse{}
	if err := tx.First(&response, responseID).Error; err != nil {
		return nil, nil, fmt.Errorf("reload customization response: %w", err)
	}

	if request.CustomerID != customerID {
		return nil, nil, forbiddenError("FORBIDDEN", "You can only manage responses to your own requests")
	}

	if !response.IsPending() {
		return nil, nil, alreadyProcessedError(&response)
	}

	return &response, request, nil
}

// lockRequest loads a request and holds its row lock until the transaction
// ends. Write paths take it before touching any of the request's responses.
func lockRequest(tx *gorm.DB, requestID uint) (*models.CustomizationRequest, error) {
	var request models.CustomizationRequest
	if err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).First(&request, requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// transitionResponse moves a pending offer to status, failing if another
// transaction got there first.
func transitionResponse(tx *gorm.DB, response *models.CustomizationResponse, status string) error {
	res := tx.Model(&models.CustomizationResponse{}).
		Where("id = ? AND status = ?", response.ID, models.ResponseStatusPending).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update customization response: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if err := tx.First(response, response.ID).Error; err != nil {
			return fmt.Errorf("reload customization response: %w", err)
		}
		return alreadyProcessedError(response)
	}
	response.Status = status
	return nil
}

func bespokeProduct(request *models.CustomizationRequest, response *models.CustomizationResponse) models.Product {
	images := []string{}
	if request.Image != nil && *request.Image != "" {
		images = append(images, *request.Image)
	}
	return models.Product{
		ArtistID:      response.ArtistID,
		Type:          models.ProductTypeCustomizable,
		Name:          request.Title,
		Description:   request.Description,
		Price:         response.Price,
		Image:         images,
		Quantity:      1,
		SellingNumber: 0,
	}
}

func findResponse(db *gorm.DB, requestID, artistID uint) (*models.CustomizationResponse, error) {
	var response models.CustomizationResponse
	err := db.Where("request_id = ? AND artist_id = ?", requestID, artistID).Take(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find customization response: %w", err)
	}
	return &response, nil
}

func requestNotOpenError(request *models.CustomizationRequest) *ServiceError {
	return newError(KindInvalidState, "REQUEST_NOT_OPEN", "This customization request is no longer accepting responses",
		map[string]interface{}{"request_id": request.ID, "status": request.Status})
}

func requestAlreadyClosedError(kind ErrorKind, requestID uint) *ServiceError {
	return newError(kind, "REQUEST_ALREADY_CLOSED", "Customization request is already closed",
		map[string]interface{}{"request_id": requestID, "status": models.RequestStatusClosed})
}

func alreadyRespondedError(existing *models.CustomizationResponse) *ServiceError {
	return conflictError("ALREADY_RESPONDED", "You have already responded to this request",
		map[string]interface{}{"response_id": existing.ID, "status": existing.Status})
}

func alreadyProcessedError(response *models.CustomizationResponse) *ServiceError {
	return conflictError("ALREADY_PROCESSED", "This response has already been processed",
		map[string]interface{}{"response_id": response.ID, "status": response.Status})
}

func dateError(err error) error {
	var dateErr *utils.DateValidationError
	if errors.As(err, &dateErr) {
		return validationError(dateErr.Code, dateErr.Message, map[string]interface{}{"field": dateErr.Field})
	}
	return err
}

// validAmount reports whether d fits a decimal(10,2) money column
func validAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThan(maxAmount) && d.Equal(d.Truncate(2))
}

// isDuplicateKeyError works for both PostgreSQL and SQLite, with or without error translation
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
