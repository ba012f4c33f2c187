package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"boutique/internal/cache"
	"boutique/internal/events"
	"boutique/internal/models"
	"boutique/internal/payment"
	"boutique/internal/repositories"
)

// OrderReconciler applies payment outcomes to orders. The pending_payment
// status, checked under a row lock, makes provider notifications idempotent;
// the order's stock_committed flag keeps the stock decrement to one even when
// the back office moves the order in and out of payee.
type OrderReconciler struct {
	store     *repositories.Store
	gateway   payment.Gateway
	publisher events.Publisher
	dedup     cache.Deduplicator
	carts     cache.CartCache
}

func NewOrderReconciler(store *repositories.Store, gateway payment.Gateway, publisher events.Publisher, dedup cache.Deduplicator, carts cache.CartCache) *OrderReconciler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if dedup == nil {
		dedup = cache.Nop{}
	}
	if carts == nil {
		carts = cache.Nop{}
	}
	return &OrderReconciler{
		store:     store,
		gateway:   gateway,
		publisher: publisher,
		dedup:     dedup,
		carts:     carts,
	}
}

// Reconcile moves a pending_payment order to payee or annulee. It returns
// applied=false without error when the order had already left pending_payment.
//
// On success every item's stock is decremented with a conditional update;
// if any product cannot cover its quantity the whole transaction is rolled
// back, the order stays pending_payment and ErrInsufficientStock is returned.
func (r *OrderReconciler) Reconcile(ctx context.Context, orderID string, outcome payment.Outcome, reference string) (*models.Order, bool, error) {
	if outcome != payment.OutcomeSucceeded && outcome != payment.OutcomeFailed {
		return nil, false, fmt.Errorf("%w: outcome %d cannot be reconciled", ErrInvalidInput, outcome)
	}

	var order *models.Order
	applied := false
	err := r.store.WithTx(ctx, func(tx *repositories.Store) error {
		o, err := tx.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		order = o
		if o.Status != models.StatusPendingPayment {
			return nil
		}
		if outcome == payment.OutcomeSucceeded {
			applied, err = confirmPayment(ctx, tx, o, models.StatusPendingPayment, reference)
		} else {
			applied, err = cancelPending(ctx, tx, o)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			log.Printf("Stock conflict while confirming order %s, left pending: %v", orderID, err)
		}
		return nil, false, err
	}

	if !applied {
		log.Printf("Duplicate reconciliation for order %s ignored (status %s)", orderID, order.Status)
		return order, false, nil
	}

	if outcome == payment.OutcomeSucceeded {
		r.afterPaid(ctx, order, models.StatusPendingPayment, reference)
	} else {
		log.Printf("Order %s cancelled", order.ID)
		publish(ctx, r.publisher, events.OrderCancelled, order, models.StatusPendingPayment)
	}
	return order, true, nil
}

// MarkPaid moves an order to payee from whatever status it currently holds.
// Stock is decremented only if it was never committed for this order. It
// returns applied=false when the order is already payee.
func (r *OrderReconciler) MarkPaid(ctx context.Context, orderID, reference string) (*models.Order, bool, error) {
	var (
		order    *models.Order
		previous models.OrderStatus
		applied  bool
	)
	err := r.store.WithTx(ctx, func(tx *repositories.Store) error {
		o, err := tx.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		order, previous = o, o.Status
		if o.Status == models.StatusPaid {
			return nil
		}
		applied, err = confirmPayment(ctx, tx, o, previous, reference)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			log.Printf("Stock conflict while marking order %s paid, left %s: %v", orderID, previous, err)
		}
		return nil, false, err
	}
	if !applied {
		return order, false, nil
	}
	r.afterPaid(ctx, order, previous, reference)
	return order, true, nil
}

func (r *OrderReconciler) afterPaid(ctx context.Context, order *models.Order, previous models.OrderStatus, reference string) {
	if order.CartID != "" {
		if err := r.carts.Delete(ctx, order.CartID); err != nil {
			log.Printf("cart cache invalidation error for %s: %v", order.CartID, err)
		}
	}
	log.Printf("Order %s paid (%s)", order.ID, reference)
	publish(ctx, r.publisher, events.OrderPaid, order, previous)
}

// confirmPayment moves the order from status from to payee. Stock that was
// already committed for the order is left alone; a product deleted since the
// order was built is skipped, its line keeps the name and price snapshot.
func confirmPayment(ctx context.Context, tx *repositories.Store, order *models.Order, from models.OrderStatus, reference string) (bool, error) {
	now := time.Now()
	ok, err := tx.Orders().TransitionFrom(ctx, order.ID, from, map[string]any{
		"status":            models.StatusPaid,
		"paid":              true,
		"payment_reference": reference,
		"status_updated_at": now,
		"stock_committed":   true,
	})
	if err != nil || !ok {
		return false, err
	}

	if order.StockCommitted {
		log.Printf("Stock already committed for order %s, not decremented again", order.ID)
	} else {
		for _, item := range order.Items {
			err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
			if errors.Is(err, repositories.ErrNotFound) {
				log.Printf("Product %s (%s) of order %s no longer exists, stock not decremented", item.ProductID, item.ProductName, order.ID)
				continue
			}
			if errors.Is(err, repositories.ErrStockConflict) {
				return false, fmt.Errorf("%s x%d: %w", item.ProductName, item.Quantity, ErrInsufficientStock)
			}
			if err != nil {
				return false, err
			}
		}
	}

	if order.CartID != "" {
		if err := tx.Carts().Delete(ctx, order.CartID); err != nil {
			return false, err
		}
	}

	order.Status = models.StatusPaid
	order.Paid = true
	order.PaymentReference = reference
	order.StatusUpdatedAt = &now
	order.StockCommitted = true
	return true, nil
}

func cancelPending(ctx context.Context, tx *repositories.Store, order *models.Order) (bool, error) {
	now := time.Now()
	ok, err := tx.Orders().TransitionFrom(ctx, order.ID, models.StatusPendingPayment, map[string]any{
		"status":            models.StatusCancelled,
		"status_updated_at": now,
	})
	if err != nil || !ok {
		return false, err
	}
	order.Status = models.StatusCancelled
	order.StatusUpdatedAt = &now
	return true, nil
}

// ConfirmRedirect handles the buyer's return from the payment page. The
// provider is asked for the session status; a settled session reconciles the
// order, anything else leaves it pending for the webhook.
func (r *OrderReconciler) ConfirmRedirect(ctx context.Context, sessionID, orderID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidInput)
	}
	status, err := r.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		log.Printf("Failed to retrieve payment session %s: %v", sessionID, err)
		return nil, err
	}
	if orderID == "" {
		orderID = status.OrderID
	}
	if status.OrderID != "" && status.OrderID != orderID {
		return nil, fmt.Errorf("session %s does not belong to order %s: %w", sessionID, orderID, ErrNotFound)
	}

	if !status.Paid() {
		return r.store.Orders().GetByID(ctx, orderID)
	}
	order, _, err := r.Reconcile(ctx, orderID, payment.OutcomeSucceeded, status.PaymentReference)
	return order, err
}

// HandleWebhook verifies and applies one provider notification. Nothing is
// mutated when the signature is invalid. Event ids are remembered so
// redeliveries short-circuit; the status guard still decides on its own.
func (r *OrderReconciler) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.Order, error) {
	n, err := r.gateway.ParseWebhook(payload, signature)
	if err != nil {
		log.Printf("Rejected payment notification: %v", err)
		if errors.Is(err, payment.ErrSignatureInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	outcome := n.Outcome()
	if outcome == payment.OutcomeIgnored || outcome == payment.OutcomePending {
		return nil, nil
	}
	if n.OrderID == "" {
		log.Printf("Payment notification %s (%s) carries no order id, ignored", n.EventID, n.EventType)
		return nil, nil
	}

	seen, err := r.dedup.MarkProcessed(ctx, n.EventID)
	if err != nil {
		log.Printf("webhook dedup lookup failed for %s: %v", n.EventID, err)
	}
	if seen {
		log.Printf("Duplicate payment notification %s ignored", n.EventID)
		return nil, nil
	}

	order, _, err := r.Reconcile(ctx, n.OrderID, outcome, n.PaymentReference)
	if errors.Is(err, ErrNotFound) {
		log.Printf("Payment notification %s refers to unknown order %s", n.EventID, n.OrderID)
		return nil, nil
	}
	if err != nil {
		if ferr := r.dedup.Forget(ctx, n.EventID); ferr != nil {
			log.Printf("webhook dedup reset failed for %s: %v", n.EventID, ferr)
		}
		return nil, err
	}
	return order, nil
}

// Cancel handles the buyer's return from an abandoned payment page.
func (r *OrderReconciler) Cancel(ctx context.Context, p models.Principal, orderID string) (*models.Order, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	order, err := r.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != p.UserID && !p.CanManageStore() {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	order, _, err = r.Reconcile(ctx, orderID, payment.OutcomeFailed, "")
	return order, err
}
