// Package app assembles the services and HTTP routes of the storefront.
package app

import (
	"time"

	"boutique/internal/cache"
	"boutique/internal/events"
	"boutique/internal/handlers"
	"boutique/internal/middleware"
	"boutique/internal/models"
	"boutique/internal/payment"
	"boutique/internal/repositories"
	"boutique/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Deps are the infrastructure pieces the services run on.
type Deps struct {
	Store     *repositories.Store
	Gateway   payment.Gateway
	Publisher events.Publisher
	Carts     cache.CartCache
	Dedup     cache.Deduplicator
	Pricing   models.Pricing
	Currency  string
	JWTSecret string
}

// Services groups every domain service.
type Services struct {
	Auth       *services.AuthService
	Users      *services.UserService
	Products   *services.ProductService
	Categories *services.CategoryService
	Carts      *services.CartService
	Checkout   *services.CheckoutService
	Reconciler *services.OrderReconciler
	Orders     *services.OrderService
	Reviews    *services.ReviewService
}

// NewServices wires the domain services over the given dependencies.
func NewServices(d Deps) Services {
	reconciler := services.NewOrderReconciler(d.Store, d.Gateway, d.Publisher, d.Dedup, d.Carts)
	return Services{
		Auth:       services.NewAuthService(d.Store.Users(), d.JWTSecret),
		Users:      services.NewUserService(d.Store),
		Products:   services.NewProductService(d.Store.Products(), d.Store.Categories()),
		Categories: services.NewCategoryService(d.Store.Categories()),
		Carts:      services.NewCartService(d.Store, d.Carts, d.Pricing),
		Checkout:   services.NewCheckoutService(d.Store, d.Gateway, d.Publisher, d.Pricing, d.Currency),
		Reconciler: reconciler,
		Orders:     services.NewOrderService(d.Store, reconciler, d.Publisher),
		Reviews:    services.NewReviewService(d.Store),
	}
}

// RedirectsFor builds the payment page return URLs under baseURL. The
// session id placeholder is filled in by the payment provider.
func RedirectsFor(baseURL string) services.Redirects {
	return services.Redirects{
		SuccessURL: baseURL + "/api/v1/checkout/success?order_id=" + services.OrderIDPlaceholder + "&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  baseURL + "/api/v1/checkout/cancel?order_id=" + services.OrderIDPlaceholder,
	}
}

// New builds the Fiber app with every route under /api/v1.
func New(svc Services, sessions *session.Store, redirects services.Redirects) *fiber.App {
	app := fiber.New()

	// --- Middleware ---
	app.Use(recover.New())
	app.Use(logger.New()) // Request logger

	if sessions == nil {
		sessions = session.New()
	}
	authRequired := middleware.AuthRequired(svc.Auth)
	optionalAuth := middleware.OptionalAuth(svc.Auth)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1", optionalAuth)

	handlers.NewAuthHandler(svc.Auth, svc.Users).RegisterRoutes(apiV1, authRequired)
	handlers.NewCatalogHandler(svc.Products, svc.Categories, svc.Reviews).RegisterRoutes(apiV1, authRequired)
	handlers.NewCartHandler(svc.Carts, sessions).RegisterRoutes(apiV1)
	handlers.NewCheckoutHandler(svc.Checkout, svc.Reconciler, sessions, redirects).RegisterRoutes(apiV1, authRequired)
	handlers.NewOrderHandler(svc.Orders).RegisterRoutes(apiV1, authRequired)
	handlers.NewAdminHandler(svc.Products, svc.Categories, svc.Orders, svc.Users, svc.Reviews).RegisterRoutes(apiV1, authRequired)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app
}
