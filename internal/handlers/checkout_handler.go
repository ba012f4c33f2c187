package handlers

import (
	"log"

	"boutique/internal/middleware"
	"boutique/internal/models"
	"boutique/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// CheckoutHandler turns the session cart into an order and handles the
// payment provider's redirects and notifications.
type CheckoutHandler struct {
	checkout   *services.CheckoutService
	reconciler *services.OrderReconciler
	sessions   *session.Store
	redirects  services.Redirects
	validate   *validator.Validate
}

func NewCheckoutHandler(checkout *services.CheckoutService, reconciler *services.OrderReconciler, sessions *session.Store, redirects services.Redirects) *CheckoutHandler {
	return &CheckoutHandler{
		checkout:   checkout,
		reconciler: reconciler,
		sessions:   sessions,
		redirects:  redirects,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers checkout and payment routes. The webhook is
// authenticated by its signature, not by a token.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Post("/", auth, h.HandleCheckout)
	checkoutRoutes.Get("/success", h.HandleSuccess)
	checkoutRoutes.Get("/cancel", auth, h.HandleCancel)

	router.Post("/payments/webhook", h.HandleWebhook)
}

// HandleCheckout creates the order and returns the payment page URL.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var buyer models.BuyerDetails
	if ok, err := parseAndValidate(c, h.validate, &buyer); !ok {
		return err
	}

	sess, err := loadCartSession(c, h.sessions)
	if err != nil {
		return respondError(c, err, "Could not load session")
	}

	order, paymentSession, err := h.checkout.Checkout(c.UserContext(), middleware.CurrentPrincipal(c), sess.CartID(), buyer, h.redirects)
	if err != nil {
		return respondError(c, err, "Checkout failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Order created, awaiting payment",
		"order":       order,
		"payment_url": paymentSession.URL,
		"session_id":  paymentSession.ID,
	})
}

// HandleSuccess is where the payment page sends the buyer back. The order is
// confirmed only if the provider reports the session as paid.
func (h *CheckoutHandler) HandleSuccess(c *fiber.Ctx) error {
	order, err := h.reconciler.ConfirmRedirect(c.UserContext(), c.Query("session_id"), c.Query("order_id"))
	if err != nil {
		return respondError(c, err, "Could not confirm payment")
	}

	if order.Status == models.StatusPaid {
		if sess, err := loadCartSession(c, h.sessions); err == nil && sess.CartID() == order.CartID {
			if err := sess.UnbindCart(); err == nil {
				if err := sess.save(); err != nil {
					log.Printf("Failed to unbind paid cart %s from session: %v", order.CartID, err)
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "Payment status for order " + order.ID + ": " + order.Status.Label(),
		"order":   order,
	})
}

// HandleCancel cancels the order the buyer abandoned on the payment page.
func (h *CheckoutHandler) HandleCancel(c *fiber.Ctx) error {
	order, err := h.reconciler.Cancel(c.UserContext(), middleware.CurrentPrincipal(c), c.Query("order_id"))
	if err != nil {
		return respondError(c, err, "Could not cancel order")
	}
	return c.JSON(fiber.Map{
		"message": "Order " + order.ID + ": " + order.Status.Label(),
		"order":   order,
	})
}

// HandleWebhook applies one signed provider notification. Any failure other
// than a bad request is answered 5xx or 409 so the provider retries.
func (h *CheckoutHandler) HandleWebhook(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	order, err := h.reconciler.HandleWebhook(c.UserContext(), payload, c.Get(SignatureHeader))
	if err != nil {
		return respondError(c, err, "Webhook rejected")
	}

	body := fiber.Map{"received": true}
	if order != nil {
		body["order_id"] = order.ID
		body["status"] = order.Status
	}
	return c.JSON(body)
}
