package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boutique/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{db: db}
}

func (r *GORMCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

func (r *GORMCartRepository) GetByID(ctx context.Context, id string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Items.Product").
		First(&cart, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart %s: %w", id, err)
	}
	return &cart, nil
}

func (r *GORMCartRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up cart %s: %w", id, err)
	}
	return n > 0, nil
}

func (r *GORMCartRepository) FindItem(ctx context.Context, cartID, productID string) (*models.CartItem, error) {
	// A miss is the normal case for a first add; Find does not log it as an error.
	var item models.CartItem
	res := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Limit(1).
		Find(&item)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to find cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &item, nil
}

func (r *GORMCartRepository) GetItem(ctx context.Context, itemID string) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart item %s not found: %w", itemID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get cart item %s: %w", itemID, err)
	}
	return &item, nil
}

func (r *GORMCartRepository) CreateItem(ctx context.Context, item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return fmt.Errorf("failed to create cart item: %w", translate(err))
	}
	return r.touch(ctx, item.CartID)
}

func (r *GORMCartRepository) SetItemQuantity(ctx context.Context, itemID string, quantity int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]any{"quantity": quantity, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s not found: %w", itemID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) IncrementItemQuantity(ctx context.Context, itemID string, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("id = ?", itemID).
		Updates(map[string]any{"quantity": gorm.Expr("quantity + ?", delta), "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to increment cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s not found: %w", itemID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) DeleteItem(ctx context.Context, itemID string) error {
	res := r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete cart item %s: %w", itemID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("cart item %s not found: %w", itemID, ErrNotFound)
	}
	return nil
}

func (r *GORMCartRepository) CountItems(ctx context.Context, cartID string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("cart_id = ?", cartID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count items of cart %s: %w", cartID, err)
	}
	return n, nil
}

func (r *GORMCartRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("cart_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete items of cart %s: %w", id, err)
	}
	if err := db.Delete(&models.Cart{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", id, err)
	}
	return nil
}

func (r *GORMCartRepository) touch(ctx context.Context, cartID string) error {
	err := r.db.WithContext(ctx).Model(&models.Cart{}).Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch cart %s: %w", cartID, err)
	}
	return nil
}
