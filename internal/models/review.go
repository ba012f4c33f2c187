package models

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a customer's rating of a product. One review per (product, user).
type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string    `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_product_user"`
	UserID    string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_review_product_user"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
