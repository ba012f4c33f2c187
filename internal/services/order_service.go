package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"boutique/internal/events"
	"boutique/internal/models"
	"boutique/internal/repositories"

	"github.com/shopspring/decimal"
)

const (
	historyPageSize   = 10
	adminPageSize     = 20
	dashboardLatest   = 5
	userDetailsLatest = 10
)

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders   []models.Order `json:"orders"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Dashboard summarizes the store for the back office.
type Dashboard struct {
	Products     int64           `json:"products"`
	Categories   int64           `json:"categories"`
	Orders       int64           `json:"orders"`
	Users        int64           `json:"users"`
	Revenue      decimal.Decimal `json:"revenue"`
	LatestOrders []models.Order  `json:"latest_orders"`
}

// OrderService handles order history and back-office order management.
type OrderService struct {
	store      *repositories.Store
	reconciler *OrderReconciler
	publisher  events.Publisher
}

// NewOrderService creates a new OrderService.
func NewOrderService(store *repositories.Store, reconciler *OrderReconciler, publisher events.Publisher) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &OrderService{
		store:      store,
		reconciler: reconciler,
		publisher:  publisher,
	}
}

// ListForUser returns the caller's orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, p models.Principal, page int) (*OrderPage, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	pg := repositories.Page{Number: page, Size: historyPageSize}
	orders, total, err := s.store.Orders().ListByUser(ctx, p.UserID, pg)
	if err != nil {
		return nil, err
	}
	return orderPage(orders, total, pg), nil
}

// GetForUser returns one of the caller's orders. Orders of other buyers are reported as not found.
func (s *OrderService) GetForUser(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != p.UserID {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) AdminList(ctx context.Context, p models.Principal, filter repositories.OrderFilter) (*OrderPage, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if filter.Status != "" {
		if _, err := models.ParseOrderStatus(string(filter.Status)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
		}
	}
	if filter.Page.Size == 0 {
		filter.Page.Size = adminPageSize
	}
	orders, total, err := s.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return orderPage(orders, total, filter.Page), nil
}

func (s *OrderService) AdminGet(ctx context.Context, p models.Principal, id string) (*models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	return s.store.Orders().GetByID(ctx, id)
}

func (s *OrderService) AdminDelete(ctx context.Context, p models.Principal, id string) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx *repositories.Store) error {
		return tx.Orders().Delete(ctx, id)
	})
}

// UpdateStatus force-sets an order's status from the back office; the
// lifecycle graph is not enforced here. Any move to payee goes through
// payment confirmation, which decrements stock the first time only.
func (s *OrderService) UpdateStatus(ctx context.Context, p models.Principal, id, status string) (*models.Order, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStatus, err)
	}

	current, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := current.Status

	if next == models.StatusPaid {
		order, _, err := s.reconciler.MarkPaid(ctx, id, "manual:"+p.Username)
		if err != nil {
			return nil, err
		}
		return order, nil
	}

	updates := map[string]any{
		"status":            next,
		"status_updated_at": time.Now(),
	}
	if err := s.store.Orders().Update(ctx, id, updates); err != nil {
		return nil, err
	}

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	log.Printf("Order %s status set from %s to %s by %s", id, previous, next, p.Username)
	publish(ctx, s.publisher, events.OrderStatusChanged, order, previous)
	return order, nil
}

// Dashboard gathers store counters and the latest orders.
func (s *OrderService) Dashboard(ctx context.Context, p models.Principal) (*Dashboard, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	var (
		d   Dashboard
		err error
	)
	if d.Products, err = s.store.Products().Count(ctx); err != nil {
		return nil, err
	}
	if d.Categories, err = s.store.Categories().Count(ctx); err != nil {
		return nil, err
	}
	if d.Orders, err = s.store.Orders().Count(ctx); err != nil {
		return nil, err
	}
	if d.Users, err = s.store.Users().Count(ctx); err != nil {
		return nil, err
	}
	if d.Revenue, err = s.store.Orders().PaidRevenue(ctx); err != nil {
		return nil, err
	}
	if d.LatestOrders, err = s.store.Orders().Latest(ctx, dashboardLatest); err != nil {
		return nil, err
	}
	return &d, nil
}

func orderPage(orders []models.Order, total int64, pg repositories.Page) *OrderPage {
	number := pg.Number
	if number < 1 {
		number = 1
	}
	return &OrderPage{Orders: orders, Total: total, Page: number, PageSize: pg.Size}
}
