package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const cartSessionKey = "cart_id"

// cartSession binds a cart to the visitor's server-side Fiber session.
type cartSession struct {
	sess  *session.Session
	dirty bool
}

func loadCartSession(c *fiber.Ctx, store *session.Store) (*cartSession, error) {
	sess, err := store.Get(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &cartSession{sess: sess}, nil
}

func (s *cartSession) CartID() string {
	id, _ := s.sess.Get(cartSessionKey).(string)
	return id
}

func (s *cartSession) BindCart(cartID string) error {
	s.sess.Set(cartSessionKey, cartID)
	s.dirty = true
	return nil
}

func (s *cartSession) UnbindCart() error {
	s.sess.Delete(cartSessionKey)
	s.dirty = true
	return nil
}

// save persists the session only when the binding changed.
func (s *cartSession) save() error {
	if !s.dirty {
		return nil
	}
	s.dirty = false
	return s.sess.Save()
}
