package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"boutique/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func itemsByName(db *gorm.DB) *gorm.DB {
	return db.Order("product_name ASC")
}

// Create creates a new order and its items in the database.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Items {
		if order.Items[i].ID == "" {
			order.Items[i].ID = uuid.New().String()
		}
		order.Items[i].OrderID = order.ID
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its items.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items", itemsByName).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByIDForUpdate locks the order row, then loads its items in a separate query.
func (r *GORMOrderRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := forUpdate(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock order %s: %w", id, err)
	}
	if err := itemsByName(r.db.WithContext(ctx)).Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items of order %s: %w", id, err)
	}
	return &order, nil
}

func (r *GORMOrderRepository) TransitionFrom(ctx context.Context, id string, from models.OrderStatus, updates map[string]any) (bool, error) {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("failed to transition order %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GORMOrderRepository) SetPaymentSession(ctx context.Context, id, sessionID string) error {
	return r.Update(ctx, id, map[string]any{"payment_session_id": sessionID})
}

func (r *GORMOrderRepository) Update(ctx context.Context, id string, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for update: %w", id, ErrNotFound)
	}
	return nil
}

// ListByUser returns one page of a buyer's orders, newest first.
func (r *GORMOrderRepository) ListByUser(ctx context.Context, userID string, page Page) ([]models.Order, int64, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	}
	return r.list(base, page)
}

// List returns one page of all orders matching the filter, newest first.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if term := strings.TrimSpace(filter.Query); term != "" {
			like := "%" + strings.ToLower(term) + "%"
			q = q.Where("(LOWER(id) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?)",
				like, like, like, like)
		}
		return q
	}
	return r.list(base, filter.Page)
}

func (r *GORMOrderRepository) list(base func() *gorm.DB, page Page) ([]models.Order, int64, error) {
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}
	var orders []models.Order
	err := paginate(base().Preload("Items", itemsByName).Order("created_at DESC"), page).Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) Latest(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get latest orders: %w", err)
	}
	return orders, nil
}

func (r *GORMOrderRepository) LatestByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get latest orders of user %s: %w", userID, err)
	}
	return orders, nil
}

// Delete removes an order and its items.
func (r *GORMOrderRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete items of order %s: %w", id, err)
	}
	res := db.Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GORMOrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return n, nil
}

func (r *GORMOrderRepository) PaidRevenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	row := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("SUM(total_amount)").
		Where("paid = ?", true).
		Row()
	if err := row.Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum paid orders: %w", err)
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
