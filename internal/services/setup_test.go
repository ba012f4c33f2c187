package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"boutique/internal/database"
	"boutique/internal/events"
	"boutique/internal/models"
	"boutique/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *repositories.Store {
	t.Helper()
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewStore(db)
}

func seedProduct(t *testing.T, store *repositories.Store, name, unitPrice string, stock int) *models.Product {
	t.Helper()
	category := &models.Category{Name: "Cat " + name, Slug: uuid.NewString()}
	require.NoError(t, store.Categories().Create(ctx, category))
	product := &models.Product{
		CategoryID: category.ID,
		Name:       name,
		Price:      price(unitPrice),
		Stock:      stock,
		Available:  true,
	}
	require.NoError(t, store.Products().Create(ctx, product))
	return product
}

func stockOf(t *testing.T, store *repositories.Store, id string) int {
	t.Helper()
	p, err := store.Products().GetByID(ctx, id)
	require.NoError(t, err)
	return p.Stock
}

type memorySession struct {
	cartID string
}

func (m *memorySession) CartID() string           { return m.cartID }
func (m *memorySession) BindCart(id string) error { m.cartID = id; return nil }
func (m *memorySession) UnbindCart() error        { m.cartID = ""; return nil }

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Envelope
}

func (r *recordingPublisher) Publish(_ context.Context, env events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

var buyerDetails = models.BuyerDetails{
	FirstName:  "Ada",
	LastName:   "Lovelace",
	Email:      "ada@example.com",
	Address:    "12 rue des Lilas",
	PostalCode: "75011",
	City:       "Paris",
	Country:    "France",
}
