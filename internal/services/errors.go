package services

import (
	"errors"
	"fmt"

	"boutique/internal/payment"
	"boutique/internal/repositories"
)

var (
	ErrNotFound           = repositories.ErrNotFound
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrDuplicateReview    = errors.New("product already reviewed by this user")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrGatewayError       = payment.ErrGateway
	ErrSignatureInvalid   = payment.ErrSignatureInvalid
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrCategoryInUse      = errors.New("category still has products")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
)

func conflictOnDuplicate(err error) error {
	if errors.Is(err, repositories.ErrDuplicate) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
