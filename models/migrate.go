package models

import "gorm.io/gorm"

// All returns every model managed by AutoMigrate, parents before children
func All() []interface{} {
	return []interface{}{
		&User{},
		&Customer{},
		&Artist{},
		&Order{},
		&Product{},
		&OrderItem{},
		&CustomizationRequest{},
		&CustomizationResponse{},
		&Message{},
	}
}

// AutoMigrate creates or updates the schema for every model
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
