package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the session-bound collection of pending purchase intentions.
// Every amount on it is derived from its items and never stored.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one (cart, product) line with the unit price captured when it was added.
type CartItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CartID    string          `json:"cart_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product"`
	ProductID string          `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product"`
	Product   Product         `json:"product" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TotalPrice is quantity x unit price.
func (i CartItem) TotalPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Subtotal is the sum of quantity x unit price over all lines.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// TotalQuantity is the number of units across all lines.
func (c Cart) TotalQuantity() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Pricing carries the shipping and tax rules applied to a cart.
type Pricing struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal // percentage, e.g. 20 for 20%
}

// DefaultPricing mirrors the storefront defaults: free shipping above 100, otherwise 5.99, 20% tax.
func DefaultPricing() Pricing {
	return Pricing{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.RequireFromString("5.99"),
		TaxRate:               decimal.NewFromInt(20),
	}
}

// ShippingCost is free when the subtotal is strictly above the threshold.
func (p Pricing) ShippingCost(c Cart) decimal.Decimal {
	if c.Subtotal().GreaterThan(p.FreeShippingThreshold) {
		return decimal.Zero
	}
	return p.FlatShippingFee
}

// TaxAmount is subtotal x rate, rounded to cents.
func (p Pricing) TaxAmount(c Cart) decimal.Decimal {
	return c.Subtotal().Mul(p.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
}

// Total is subtotal plus shipping.
func (p Pricing) Total(c Cart) decimal.Decimal {
	return c.Subtotal().Add(p.ShippingCost(c))
}
