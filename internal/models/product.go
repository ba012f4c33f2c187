package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the store.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CategoryID  string          `json:"category_id" gorm:"type:varchar(36);index" validate:"required"`
	Name        string          `json:"name" gorm:"type:varchar(200);index" validate:"required,min=3,max=200"`
	Slug        string          `json:"slug" gorm:"type:varchar(200);index" validate:"omitempty,max=200"`
	Description string          `json:"description" validate:"omitempty,max=5000"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0" validate:"gte=0"`
	Available   bool            `json:"available" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InStock reports whether at least one unit is left.
func (p Product) InStock() bool {
	return p.Stock > 0
}
