package handlers

import (
	"log"

	"boutique/internal/middleware"
	"boutique/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves the storefront catalog and product reviews.
type CatalogHandler struct {
	products   *services.ProductService
	categories *services.CategoryService
	reviews    *services.ReviewService
	validate   *validator.Validate
}

func NewCatalogHandler(products *services.ProductService, categories *services.CategoryService, reviews *services.ReviewService) *CatalogHandler {
	return &CatalogHandler{
		products:   products,
		categories: categories,
		reviews:    reviews,
		validate:   validator.New(),
	}
}

// RegisterRoutes registers the catalog routes. Writing a review requires auth.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/categories", h.HandleListCategories)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Get("/:id/reviews", h.HandleListReviews)
	productRoutes.Post("/:id/reviews", auth, h.HandleCreateReview)
}

// HandleListProducts lists available products. Query parameters: category
// (slug), q, sort (price_asc, price_desc, name) and page.
func (h *CatalogHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := h.products.ListCatalog(c.UserContext(), services.CatalogQuery{
		CategorySlug: c.Query("category"),
		Query:        c.Query("q"),
		Sort:         c.Query("sort"),
		Page:         pageParam(c),
	})
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

// HandleGetProduct returns a product with related products and its rating summary.
func (h *CatalogHandler) HandleGetProduct(c *fiber.Ctx) error {
	ctx := c.UserContext()
	product, err := h.products.GetAvailableProduct(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}

	related, err := h.products.Related(ctx, product)
	if err != nil {
		log.Printf("Error loading related products for %s: %v", product.ID, err)
	}
	summary, err := h.reviews.Summary(ctx, product.ID)
	if err != nil {
		return respondError(c, err, "Could not compute product rating")
	}

	return c.JSON(fiber.Map{
		"product": product,
		"related": related,
		"rating":  summary,
	})
}

func (h *CatalogHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

func (h *CatalogHandler) HandleListReviews(c *fiber.Ctx) error {
	page, err := h.reviews.ListForProduct(c.UserContext(), c.Params("id"), pageParam(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve reviews")
	}
	return c.JSON(page)
}

// ReviewRequest is the body of a new review.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

func (h *CatalogHandler) HandleCreateReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	review, err := h.reviews.RecordReview(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"), req.Rating, req.Comment)
	if err != nil {
		return respondError(c, err, "Could not record review")
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}
