package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"

	ProductTypeNormal       = "normal"
	ProductTypeCustomizable = "customizable"
)

// Order represents a purchase made by a customer
type Order struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	CustomerID  uint            `gorm:"not null;index" json:"customer_id"`
	Customer    *Customer       `gorm:"foreignKey:CustomerID" json:"-"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	Status      string          `gorm:"not null;default:'pending'" json:"status"`
	Items       []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Product is an item sold by an artist. Customizable products are one-off
// pieces created when a customization offer is accepted.
type Product struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ArtistID      uint            `gorm:"not null;index" json:"artist_id"`
	Artist        *Artist         `gorm:"foreignKey:ArtistID" json:"-"`
	Type          string          `gorm:"not null;default:'normal'" json:"type"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Image         []string        `gorm:"serializer:json" json:"image"`
	Quantity      int             `gorm:"not null;default:0" json:"quantity"`
	SellingNumber int             `gorm:"not null;default:0" json:"selling_number"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// OrderItem links an order to the products it contains
type OrderItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int       `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
