package models

import (
	"time"
)

// Customer is the buyer profile attached to a user account
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Name      string    `gorm:"not null" json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// Artist is the seller profile attached to a user account
type Artist struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User           User      `gorm:"foreignKey:UserID" json:"-"`
	Name           string    `gorm:"not null" json:"name"`
	Username       string    `gorm:"uniqueIndex;not null" json:"username"`
	Biography      *string   `gorm:"type:text" json:"biography,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Artist model
func (Artist) TableName() string {
	return "artists"
}

// PublicCustomer is the identity of a customer that artists may see
type PublicCustomer struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PublicArtist is the identity of an artist that customers may see
type PublicArtist struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Public returns the customer fields safe to expose to other users
func (c Customer) Public() PublicCustomer {
	return PublicCustomer{ID: c.ID, Name: c.Name}
}

// Public returns the artist fields safe to expose to other users
func (a Artist) Public() PublicArtist {
	return PublicArtist{ID: a.ID, Name: a.Name, Username: a.Username, ProfilePicture: a.ProfilePicture}
}
