package models

import "time"

// Category groups products in the catalog.
type Category struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(200);index" validate:"required,min=2,max=200"`
	Slug        string    `json:"slug" gorm:"type:varchar(200);uniqueIndex" validate:"required,max=200"`
	Description string    `json:"description" validate:"omitempty,max=2000"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
