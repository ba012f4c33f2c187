package services

import (
	"context"

	"boutique/internal/models"
	"boutique/internal/repositories"
)

// UserDetail is a user with their most recent orders.
type UserDetail struct {
	User         *models.User   `json:"user"`
	LatestOrders []models.Order `json:"latest_orders"`
}

// UserPage is one page of the back-office user listing.
type UserPage struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
}

// UserService serves the back-office user pages.
type UserService struct {
	store *repositories.Store
}

func NewUserService(store *repositories.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) List(ctx context.Context, p models.Principal, query string, page int) (*UserPage, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	users, total, err := s.store.Users().List(ctx, query, repositories.Page{Number: page, Size: adminPageSize})
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	return &UserPage{Users: users, Total: total, Page: page}, nil
}

func (s *UserService) Get(ctx context.Context, p models.Principal, id string) (*UserDetail, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	orders, err := s.store.Orders().LatestByUser(ctx, id, userDetailsLatest)
	if err != nil {
		return nil, err
	}
	return &UserDetail{User: user, LatestOrders: orders}, nil
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, p models.Principal) (*models.User, error) {
	if !p.Authenticated() {
		return nil, ErrUnauthenticated
	}
	return s.store.Users().GetByID(ctx, p.UserID)
}
