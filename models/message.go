package models

import (
	"time"

	"gorm.io/gorm"
)

// Message is one entry in the conversation between an order's customer and artist
type Message struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	OrderID    uint           `gorm:"not null;index" json:"order_id"`
	Order      *Order         `gorm:"foreignKey:OrderID" json:"-"`
	SenderID   uint           `gorm:"not null;index" json:"sender_id"` // users.id
	Sender     *User          `gorm:"foreignKey:SenderID" json:"-"`
	SenderName string         `gorm:"not null" json:"sender_name"`
	SenderRole string         `gorm:"not null" json:"sender_role"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time      `json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Message) TableName() string {
	return "messages"
}
