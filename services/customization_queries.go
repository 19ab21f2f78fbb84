package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/youssefabdellah10/craftopia-sub000/models"
	"gorm.io/gorm"
)

// RequestSummary is the part of a request shown next to one of its offers
type RequestSummary struct {
	ID          uint            `json:"id"`
	CustomerID  uint            `json:"customer_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	Deadline    time.Time       `json:"deadline"`
	Image       *string         `json:"image"`
	Status      string          `json:"status"`
	OrderID     *uint           `json:"order_id"`
}

// ResponseView is an offer enriched with its request and the other party
type ResponseView struct {
	models.CustomizationResponse
	RequestSummary *RequestSummary        `json:"request"`
	ArtistInfo     *models.PublicArtist   `json:"artist,omitempty"`
	CustomerInfo   *models.PublicCustomer `json:"customer,omitempty"`
}

// ResponseStatistics counts offers by status
type ResponseStatistics struct {
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Declined int `json:"declined"`
}

// ResponseListing is the result of an enrichment query
type ResponseListing struct {
	Responses  []ResponseView     `json:"responses"`
	Total      int                `json:"total"`
	Statistics ResponseStatistics `json:"statistics"`
	SelfHealed int64              `json:"auto_declined_orphans"`
}

// RequestView is a request with its offer count and owner identity
type RequestView struct {
	models.CustomizationRequest
	ResponseCount int64                  `json:"response_count"`
	CustomerInfo  *models.PublicCustomer `json:"customer,omitempty"`
}

// RequestDetail is a single request with the offers the viewer may see
type RequestDetail struct {
	RequestView
	Responses []ResponseView `json:"responses"`
}

// GetCustomerResponses returns every offer made on customerID's requests,
// each with its request summary and the responding artist.
func (s *CustomizationService) GetCustomerResponses(ctx context.Context, customerID uint) (*ResponseListing, error) {
	db := s.db.WithContext(ctx)

	var responses []models.CustomizationResponse
	err := db.Where("request_id IN (?)",
		db.Model(&models.CustomizationRequest{}).Select("id").Where("customer_id = ?", customerID)).
		Preload("Request").
		Preload("Artist").
		Order("created_at DESC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("load customer responses: %w", err)
	}

	return s.buildListing(db, responses, func(r models.CustomizationResponse) ResponseView {
		view := ResponseView{CustomizationResponse: r, RequestSummary: summarize(r.Request)}
		if r.Artist != nil {
			artist := r.Artist.Public()
			view.ArtistInfo = &artist
		}
		return view
	})
}

// GetArtistResponses returns every offer artistID made, each with its
// request summary and the customer who owns the request.
func (s *CustomizationService) GetArtistResponses(ctx context.Context, artistID uint) (*ResponseListing, error) {
	db := s.db.WithContext(ctx)

	var responses []models.CustomizationResponse
	err := db.Where("artist_id = ?", artistID).
		Preload("Request.Customer").
		Order("created_at DESC").
		Find(&responses).Error
	if err != nil {
		return nil, fmt.Errorf("load artist responses: %w", err)
	}

	return s.buildListing(db, responses, func(r models.CustomizationResponse) ResponseView {
		view := ResponseView{CustomizationResponse: r, RequestSummary: summarize(r.Request)}
		if r.Request != nil && r.Request.Customer != nil {
			customer := r.Request.Customer.Public()
			view.CustomerInfo = &customer
		}
		return view
	})
}

// buildListing declines orphaned offers (pending on a closed request),
// then projects and counts the rows.
func (s *CustomizationService) buildListing(db *gorm.DB, responses []models.CustomizationResponse, project func(models.CustomizationResponse) ResponseView) (*ResponseListing, error) {
	healed, err := declineOrphans(db, responses)
	if err != nil {
		return nil, err
	}

	views := lo.Map(responses, func(r models.CustomizationResponse, _ int) ResponseView {
		return project(r)
	})

	return &ResponseListing{
		Responses:  views,
		Total:      len(views),
		Statistics: countStatuses(responses),
		SelfHealed: healed,
	}, nil
}

// declineOrphans runs the auto-decline for every closed request that still
// has pending offers in responses, and updates the in-memory rows to match.
func declineOrphans(db *gorm.DB, responses []models.CustomizationResponse) (int64, error) {
	isOrphan := func(r models.CustomizationResponse) bool {
		return r.IsPending() && r.Request != nil && !r.Request.IsOpen()
	}

	requestIDs := lo.Uniq(lo.FilterMap(responses, func(r models.CustomizationResponse, _ int) (uint, bool) {
		return r.RequestID, isOrphan(r)
	}))
	if len(requestIDs) == 0 {
		return 0, nil
	}

	var healed int64
	for _, requestID := range requestIDs {
		n, err := AutoDeclinePendingResponses(db, requestID)
		if err != nil {
			return healed, err
		}
		healed += n
	}
	log.Printf("Declined %d orphaned responses across %d closed requests", healed, len(requestIDs))

	for i := range responses {
		if isOrphan(responses[i]) {
			responses[i].Status = models.ResponseStatusDeclined
		}
	}
	return healed, nil
}

func countStatuses(responses []models.CustomizationResponse) ResponseStatistics {
	counts := lo.CountValuesBy(responses, func(r models.CustomizationResponse) string {
		return r.Status
	})
	return ResponseStatistics{
		Pending:  counts[models.ResponseStatusPending],
		Accepted: counts[models.ResponseStatusAccepted],
		Declined: counts[models.ResponseStatusDeclined],
	}
}

func summarize(r *models.CustomizationRequest) *RequestSummary {
	if r == nil {
		return nil
	}
	return &RequestSummary{
		ID:          r.ID,
		CustomerID:  r.CustomerID,
		Title:       r.Title,
		Description: r.Description,
		Budget:      r.Budget,
		Deadline:    r.Deadline,
		Image:       r.Image,
		Status:      r.Status,
		OrderID:     r.OrderID,
	}
}

// ListOpenRequests returns every open request, newest first
func (s *CustomizationService) ListOpenRequests(ctx context.Context) ([]RequestView, error) {
	db := s.db.WithContext(ctx)

	var requests []models.CustomizationRequest
	err := db.Where("status = ?", models.RequestStatusOpen).
		Preload("Customer").
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("load open requests: %w", err)
	}

	return withResponseCounts(db, requests)
}

// ListCustomerRequests returns customerID's requests, newest first. With
// onlyWithoutOffers it returns only open requests nobody has responded to.
func (s *CustomizationService) ListCustomerRequests(ctx context.Context, customerID uint, onlyWithoutOffers bool) ([]RequestView, error) {
	db := s.db.WithContext(ctx)

	query := db.Where("customer_id = ?", customerID)
	if onlyWithoutOffers {
		query = query.
			Where("status = ?", models.RequestStatusOpen).
			Where("NOT EXISTS (?)", db.Model(&models.CustomizationResponse{}).
				Select("1").
				Where("customization_responses.request_id = customization_requests.id"))
	}

	var requests []models.CustomizationRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("load customer requests: %w", err)
	}

	return withResponseCounts(db, requests)
}

// GetRequestForCustomer returns one of customerID's requests with all its offers
func (s *CustomizationService) GetRequestForCustomer(ctx context.Context, customerID, requestID uint) (*RequestDetail, error) {
	db := s.db.WithContext(ctx)

	var request models.CustomizationRequest
	if err := db.Where("id = ? AND customer_id = ?", requestID, customerID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("REQUEST_NOT_FOUND", "Customization request not found")
		}
		return nil, fmt.Errorf("load customization request: %w", err)
	}

	var responses []models.CustomizationResponse
	if err := db.Where("request_id = ?", requestID).Preload("Artist").Order("created_at ASC").Find(&responses).Error; err != nil {
		return nil, fmt.Errorf("load request responses: %w", err)
	}
	if !request.IsOpen() {
		for i := range responses {
			responses[i].Request = &request
		}
		if _, err := declineOrphans(db, responses); err != nil {
			return nil, err
		}
	}

	views := lo.Map(responses, func(r models.CustomizationResponse, _ int) ResponseView {
		view := ResponseView{CustomizationResponse: r}
		if r.Artist != nil {
			artist := r.Artist.Public()
			view.ArtistInfo = &artist
		}
		return view
	})

	return &RequestDetail{
		RequestView: RequestView{CustomizationRequest: request, ResponseCount: int64(len(views))},
		Responses:   views,
	}, nil
}

// GetRequestForArtist returns a request with only artistID's own offer.
// Closed requests are visible only to artists who responded to them.
func (s *CustomizationService) GetRequestForArtist(ctx context.Context, artistID, requestID uint) (*RequestDetail, error) {
	db := s.db.WithContext(ctx)

	var request models.CustomizationRequest
	if err := db.Preload("Customer").First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("REQUEST_NOT_FOUND", "Customization request not found")
		}
		return nil, fmt.Errorf("load customization request: %w", err)
	}

	own, err := findResponse(db, requestID, artistID)
	if err != nil {
		return nil, err
	}
	if !request.IsOpen() && own == nil {
		return nil, notFoundError("REQUEST_NOT_FOUND", "Customization request not found")
	}

	views, err := withResponseCounts(db, []models.CustomizationRequest{request})
	if err != nil {
		return nil, err
	}

	detail := &RequestDetail{RequestView: views[0], Responses: []ResponseView{}}
	if own != nil {
		detail.Responses = append(detail.Responses, ResponseView{CustomizationResponse: *own})
	}
	return detail, nil
}

type requestCount struct {
	RequestID uint
	Count     int64
}

func withResponseCounts(db *gorm.DB, requests []models.CustomizationRequest) ([]RequestView, error) {
	if len(requests) == 0 {
		return []RequestView{}, nil
	}

	var rows []requestCount
	ids := lo.Map(requests, func(r models.CustomizationRequest, _ int) uint { return r.ID })
	err := db.Model(&models.CustomizationResponse{}).
		Select("request_id, COUNT(*) AS count").
		Where("request_id IN ?", ids).
		Group("request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count request responses: %w", err)
	}
	counts := lo.SliceToMap(rows, func(row requestCount) (uint, int64) {
		return row.RequestID, row.Count
	})

	return lo.Map(requests, func(r models.CustomizationRequest, _ int) RequestView {
		view := RequestView{CustomizationRequest: r, ResponseCount: counts[r.ID]}
		if r.Customer != nil {
			customer := r.Customer.Public()
			view.CustomerInfo = &customer
		}
		return view
	}), nil
}
