package handlers

import (
	"boutique/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CartHandler exposes the session cart.
type CartHandler struct {
	carts    *services.CartService
	sessions *session.Store
	validate *validator.Validate
}

func NewCartHandler(carts *services.CartService, sessions *session.Store) *CartHandler {
	return &CartHandler{
		carts:    carts,
		sessions: sessions,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Post("/items", h.HandleAddItem)
	cartRoutes.Patch("/items/:id", h.HandleUpdateItem)
	cartRoutes.Delete("/items/:id", h.HandleRemoveItem)
}

// AddItemRequest is the body of POST /cart/items.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,min=1"`
}

// UpdateItemRequest is the body of PATCH /cart/items/:id. Zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	sess, err := loadCartSession(c, h.sessions)
	if err != nil {
		return respondError(c, err, "Could not load session")
	}
	return h.respondWithCart(c, sess, fiber.StatusOK)
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req AddItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx := c.UserContext()
	sess, err := loadCartSession(c, h.sessions)
	if err != nil {
		return respondError(c, err, "Could not load session")
	}
	cart, err := h.carts.GetOrCreateCart(ctx, sess)
	if err != nil {
		return respondError(c, err, "Could not create cart")
	}
	if _, err := h.carts.AddItem(ctx, cart.ID, req.ProductID, req.Quantity); err != nil {
		return respondError(c, err, "Could not add item to cart")
	}
	return h.respondWithCart(c, sess, fiber.StatusCreated)
}

func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req UpdateItemRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	sess, err := loadCartSession(c, h.sessions)
	if err != nil {
		return respondError(c, err, "Could not load session")
	}
	if _, err := h.carts.UpdateItemQuantity(c.UserContext(), sess.CartID(), c.Params("id"), req.Quantity); err != nil {
		return respondError(c, err, "Could not update cart item")
	}
	return h.respondWithCart(c, sess, fiber.StatusOK)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	sess, err := loadCartSession(c, h.sessions)
	if err != nil {
		return respondError(c, err, "Could not load session")
	}
	if _, err := h.carts.RemoveItem(c.UserContext(), sess.CartID(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not remove cart item")
	}
	return h.respondWithCart(c, sess, fiber.StatusOK)
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	sess, err := loadCartSession(c, h.sessions)
	if err != nil {
		return respondError(c, err, "Could not load session")
	}
	if err := h.carts.Clear(c.UserContext(), sess); err != nil {
		return respondError(c, err, "Could not clear cart")
	}
	if err := sess.save(); err != nil {
		return respondError(c, err, "Could not save session")
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}

func (h *CartHandler) respondWithCart(c *fiber.Ctx, sess *cartSession, status int) error {
	cart, err := h.carts.GetCart(c.UserContext(), sess)
	if err != nil {
		return respondError(c, err, "Could not retrieve cart")
	}
	if err := sess.save(); err != nil {
		return respondError(c, err, "Could not save session")
	}
	return c.Status(status).JSON(h.carts.Summarize(cart))
}
