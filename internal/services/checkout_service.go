package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"boutique/internal/events"
	"boutique/internal/models"
	"boutique/internal/money"
	"boutique/internal/payment"
	"boutique/internal/repositories"
)

// OrderIDPlaceholder is replaced by the order id in redirect URL templates.
const OrderIDPlaceholder = "{ORDER_ID}"

// Redirects are the URL templates the payment page returns the buyer to.
type Redirects struct {
	SuccessURL string
	CancelURL  string
}

func (r Redirects) forOrder(orderID string) (success, cancel string) {
	return strings.ReplaceAll(r.SuccessURL, OrderIDPlaceholder, orderID),
		strings.ReplaceAll(r.CancelURL, OrderIDPlaceholder, orderID)
}

// CheckoutService turns carts into orders and opens their payment sessions.
type CheckoutService struct {
	store     *repositories.Store
	gateway   payment.Gateway
	publisher events.Publisher
	pricing   models.Pricing
	currency  string
}

func NewCheckoutService(store *repositories.Store, gateway payment.Gateway, publisher events.Publisher, pricing models.Pricing, currency string) *CheckoutService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &CheckoutService{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		pricing:   pricing,
		currency:  currency,
	}
}

// BuildOrder snapshots a cart into a pending_payment order. Every line is
// checked against current stock and any shortfall rejects the whole order.
// Stock and the cart are left untouched.
func (s *CheckoutService) BuildOrder(ctx context.Context, p models.Principal, cartID string, buyer models.BuyerDetails) (*models.Order, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if cartID == "" {
		return nil, ErrEmptyCart
	}

	var order *models.Order
	err := s.store.WithTx(ctx, func(tx *repositories.Store) error {
		cart, err := tx.Carts().GetByID(ctx, cartID)
		if errors.Is(err, ErrNotFound) {
			return ErrEmptyCart
		}
		if err != nil {
			return err
		}
		if cart.IsEmpty() {
			return ErrEmptyCart
		}

		items := make([]models.OrderItem, 0, len(cart.Items))
		for _, line := range cart.Items {
			product, err := tx.Products().GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if line.Quantity > product.Stock {
				return fmt.Errorf("%s: requested %d, %d left: %w", product.Name, line.Quantity, product.Stock, ErrInsufficientStock)
			}
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Price:       line.Price,
				Quantity:    line.Quantity,
			})
		}

		order = newOrder(p.UserID, cart.ID, buyer)
		order.TotalAmount = s.pricing.Total(*cart)
		order.Items = items
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Order %s created from cart %s (%s)", order.ID, cartID, order.TotalAmount)
	publish(ctx, s.publisher, events.OrderCreated, order, "")
	return order, nil
}

func newOrder(userID, cartID string, buyer models.BuyerDetails) *models.Order {
	method := buyer.DeliveryMethod
	if method == "" {
		method = models.DeliveryHome
	}
	now := time.Now()
	return &models.Order{
		UserID:          userID,
		CartID:          cartID,
		FirstName:       buyer.FirstName,
		LastName:        buyer.LastName,
		Email:           buyer.Email,
		Address:         buyer.Address,
		PostalCode:      buyer.PostalCode,
		City:            buyer.City,
		Country:         buyer.Country,
		Phone:           buyer.Phone,
		DeliveryMethod:  method,
		DeliveryAddress: buyer.DeliveryAddress,
		PickupLocation:  buyer.PickupLocation,
		Notes:           buyer.Notes,
		Status:          models.StatusPendingPayment,
		StatusUpdatedAt: &now,
	}
}

// Checkout builds the order and opens its payment session. When the session
// cannot be opened the order is cancelled and ErrGatewayError returned; there
// is no retry.
func (s *CheckoutService) Checkout(ctx context.Context, p models.Principal, cartID string, buyer models.BuyerDetails, redirects Redirects) (*models.Order, *payment.Session, error) {
	order, err := s.BuildOrder(ctx, p, cartID, buyer)
	if err != nil {
		return nil, nil, err
	}

	success, cancel := redirects.forOrder(order.ID)
	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		OrderID:     order.ID,
		Description: fmt.Sprintf("Commande n°%s", order.ID),
		AmountMinor: money.MinorUnits(order.TotalAmount),
		Currency:    s.currency,
		SuccessURL:  success,
		CancelURL:   cancel,
	})
	if err != nil {
		log.Printf("Payment session for order %s failed: %v", order.ID, err)
		s.abandon(ctx, order)
		if !errors.Is(err, payment.ErrGateway) {
			err = fmt.Errorf("%w: %v", ErrGatewayError, err)
		}
		return order, nil, err
	}

	if err := s.store.Orders().SetPaymentSession(ctx, order.ID, session.ID); err != nil {
		log.Printf("Failed to store payment session %s on order %s: %v", session.ID, order.ID, err)
		s.abandon(ctx, order)
		return order, nil, err
	}
	order.PaymentSessionID = session.ID
	return order, session, nil
}

// abandon cancels an order that never reached the payment page.
func (s *CheckoutService) abandon(ctx context.Context, order *models.Order) {
	now := time.Now()
	ok, err := s.store.Orders().TransitionFrom(ctx, order.ID, models.StatusPendingPayment, map[string]any{
		"status":            models.StatusCancelled,
		"status_updated_at": now,
	})
	if err != nil {
		log.Printf("Failed to cancel order %s: %v", order.ID, err)
		return
	}
	if ok {
		order.Status = models.StatusCancelled
		order.StatusUpdatedAt = &now
		publish(ctx, s.publisher, events.OrderCancelled, order, models.StatusPendingPayment)
	}
}

// publish is best effort: a broker failure never fails the operation that produced the event.
func publish(ctx context.Context, publisher events.Publisher, eventType string, order *models.Order, previous models.OrderStatus) {
	env, err := events.NewOrderEnvelope(eventType, order, previous)
	if err != nil {
		log.Printf("Failed to build %s event for order %s: %v", eventType, order.ID, err)
		return
	}
	if err := publisher.Publish(ctx, env); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}
