package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DeliveryHome   = "delivery"
	DeliveryPickup = "pickup"
)

// Order is the immutable snapshot of a purchase. TotalAmount is taken once at
// creation and never recomputed from the items.
type Order struct {
	ID         string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string `json:"user_id" gorm:"type:varchar(36);index"`
	CartID     string `json:"cart_id" gorm:"type:varchar(36);index"`
	FirstName  string `json:"first_name" gorm:"type:varchar(50)"`
	LastName   string `json:"last_name" gorm:"type:varchar(50)"`
	Email      string `json:"email" gorm:"type:varchar(255)"`
	Address    string `json:"address" gorm:"type:varchar(250)"`
	PostalCode string `json:"postal_code" gorm:"type:varchar(20)"`
	City       string `json:"city" gorm:"type:varchar(100)"`
	Country    string `json:"country" gorm:"type:varchar(100)"`
	Phone      string `json:"phone" gorm:"type:varchar(20)"`

	DeliveryMethod  string `json:"delivery_method" gorm:"type:varchar(20)"`
	DeliveryAddress string `json:"delivery_address"`
	PickupLocation  string `json:"pickup_location" gorm:"type:varchar(255)"`
	TrackingNumber  string `json:"tracking_number" gorm:"type:varchar(100)"`
	Notes           string `json:"notes"`

	Status           OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	Paid             bool            `json:"paid" gorm:"not null"`
	TotalAmount      decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null"`
	PaymentSessionID string          `json:"payment_session_id" gorm:"type:varchar(255);index"`
	PaymentReference string          `json:"payment_reference" gorm:"type:varchar(255)"`
	StatusUpdatedAt  *time.Time      `json:"status_updated_at,omitempty"`
	// StockCommitted is set in the same transaction that decrements stock for
	// the order's items, so the decrement happens once however often the
	// order enters payee.
	StockCommitted bool `json:"stock_committed" gorm:"not null;default:false"`

	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem freezes the price and quantity of one product at order creation.
type OrderItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"type:varchar(36);not null;index"`
	ProductID   string          `json:"product_id" gorm:"type:varchar(36);index"`
	ProductName string          `json:"product_name" gorm:"type:varchar(200)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
}

// Cost is price x quantity.
func (i OrderItem) Cost() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsTotal sums the frozen item costs.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Cost())
	}
	return total
}

// BuyerDetails is the contact and shipping snapshot copied onto an order.
type BuyerDetails struct {
	FirstName       string `json:"first_name" validate:"required,max=50"`
	LastName        string `json:"last_name" validate:"required,max=50"`
	Email           string `json:"email" validate:"required,email"`
	Address         string `json:"address" validate:"required,max=250"`
	PostalCode      string `json:"postal_code" validate:"required,max=20"`
	City            string `json:"city" validate:"required,max=100"`
	Country         string `json:"country" validate:"required,max=100"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	DeliveryMethod  string `json:"delivery_method" validate:"omitempty,oneof=delivery pickup"`
	DeliveryAddress string `json:"delivery_address" validate:"omitempty,max=1000"`
	PickupLocation  string `json:"pickup_location" validate:"omitempty,max=255"`
	Notes           string `json:"notes" validate:"omitempty,max=2000"`
}
