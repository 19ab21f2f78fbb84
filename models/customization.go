package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request statuses. A request only ever moves OPEN -> CLOSED.
const (
	RequestStatusOpen   = "OPEN"
	RequestStatusClosed = "CLOSED"
)

// Response statuses. ACCEPTED is terminal; DECLINED may go back to PENDING on resubmission.
const (
	ResponseStatusPending  = "PENDING"
	ResponseStatusAccepted = "ACCEPTED"
	ResponseStatusDeclined = "DECLINED"
)

// CustomizationRequest is a customer's solicitation for a bespoke piece
type CustomizationRequest struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"not null;index" json:"customer_id"`
	Customer    *Customer       `gorm:"foreignKey:CustomerID" json:"-"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Budget      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"budget"`
	Deadline    time.Time       `gorm:"not null" json:"deadline"`
	Image       *string         `json:"image"`
	Status      string          `gorm:"not null;default:'OPEN';index" json:"status"`
	OrderID     *uint           `gorm:"index" json:"order_id"` // set once, when an offer is accepted
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Responses []CustomizationResponse `gorm:"foreignKey:RequestID" json:"-"`
}

// TableName specifies the table name for the CustomizationRequest model
func (CustomizationRequest) TableName() string {
	return "customization_requests"
}

// IsOpen reports whether artists may still respond to the request
func (r CustomizationRequest) IsOpen() bool {
	return r.Status == RequestStatusOpen
}

// CustomizationResponse is an artist's priced offer against a request.
// There is at most one row per (request, artist); resubmissions update it in place.
type CustomizationResponse struct {
	ID                       uint                  `gorm:"primaryKey" json:"id"`
	RequestID                uint                  `gorm:"not null;uniqueIndex:idx_response_request_artist;index" json:"request_id"`
	Request                  *CustomizationRequest `gorm:"foreignKey:RequestID" json:"-"`
	ArtistID                 uint                  `gorm:"not null;uniqueIndex:idx_response_request_artist;index" json:"artist_id"`
	Artist                   *Artist               `gorm:"foreignKey:ArtistID" json:"-"`
	Price                    decimal.Decimal       `gorm:"type:decimal(10,2);not null" json:"price"`
	Notes                    *string               `gorm:"type:text" json:"notes"`
	EstimationCompletionTime time.Time             `gorm:"not null" json:"estimation_completion_time"`
	Image                    *string               `json:"image"`
	Status                   string                `gorm:"not null;default:'PENDING';index" json:"status"`
	CreatedAt                time.Time             `json:"created_at"`
	UpdatedAt                time.Time             `json:"updated_at"`
}

// TableName specifies the table name for the CustomizationResponse model
func (CustomizationResponse) TableName() string {
	return "customization_responses"
}

// IsPending reports whether the customer can still accept or decline the offer
func (r CustomizationResponse) IsPending() bool {
	return r.Status == ResponseStatusPending
}
