package handlers

import (
	"boutique/internal/middleware"
	"boutique/internal/models"
	"boutique/internal/repositories"
	"boutique/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// AdminHandler serves the back office. Every route requires a token; the
// staff capability is checked by the services.
type AdminHandler struct {
	products   *services.ProductService
	categories *services.CategoryService
	orders     *services.OrderService
	users      *services.UserService
	reviews    *services.ReviewService
	validate   *validator.Validate
}

func NewAdminHandler(products *services.ProductService, categories *services.CategoryService, orders *services.OrderService, users *services.UserService, reviews *services.ReviewService) *AdminHandler {
	return &AdminHandler{
		products:   products,
		categories: categories,
		orders:     orders,
		users:      users,
		reviews:    reviews,
		validate:   validator.New(),
	}
}

func (h *AdminHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	admin := router.Group("/admin", auth)
	admin.Get("/dashboard", h.HandleDashboard)

	admin.Get("/categories", h.HandleListCategories)
	admin.Post("/categories", h.HandleCreateCategory)
	admin.Get("/categories/:id", h.HandleGetCategory)
	admin.Put("/categories/:id", h.HandleUpdateCategory)
	admin.Delete("/categories/:id", h.HandleDeleteCategory)

	admin.Get("/products", h.HandleListProducts)
	admin.Post("/products", h.HandleCreateProduct)
	admin.Get("/products/:id", h.HandleGetProduct)
	admin.Put("/products/:id", h.HandleUpdateProduct)
	admin.Delete("/products/:id", h.HandleDeleteProduct)
	admin.Patch("/products/:id/stock", h.HandleAdjustStock)

	admin.Get("/orders", h.HandleListOrders)
	admin.Get("/orders/:id", h.HandleGetOrder)
	admin.Patch("/orders/:id/status", h.HandleUpdateOrderStatus)
	admin.Delete("/orders/:id", h.HandleDeleteOrder)

	admin.Get("/users", h.HandleListUsers)
	admin.Get("/users/:id", h.HandleGetUser)

	admin.Patch("/reviews/:id", h.HandleSetReviewApproval)
}

func (h *AdminHandler) HandleDashboard(c *fiber.Ctx) error {
	d, err := h.orders.Dashboard(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return respondError(c, err, "Could not build dashboard")
	}
	return c.JSON(d)
}

// CategoryRequest is the body of category create and update.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Slug        string `json:"slug" validate:"omitempty,max=200"`
	Description string `json:"description"`
}

func (r CategoryRequest) category(id string) *models.Category {
	return &models.Category{ID: id, Name: r.Name, Slug: r.Slug, Description: r.Description}
}

func (h *AdminHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.AdminList(c.UserContext(), middleware.CurrentPrincipal(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve categories")
	}
	return c.JSON(categories)
}

func (h *AdminHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	category := req.category("")
	if err := h.categories.Create(c.UserContext(), middleware.CurrentPrincipal(c), category); err != nil {
		return respondError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *AdminHandler) HandleGetCategory(c *fiber.Ctx) error {
	category, err := h.categories.Get(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve category")
	}
	return c.JSON(category)
}

func (h *AdminHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	category := req.category(c.Params("id"))
	if err := h.categories.Update(c.UserContext(), middleware.CurrentPrincipal(c), category); err != nil {
		return respondError(c, err, "Could not update category")
	}
	return c.JSON(category)
}

func (h *AdminHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ProductRequest is the body of product create and update. Stock is only
// read on create; later changes go through the stock endpoint.
type ProductRequest struct {
	CategoryID  string          `json:"category_id" validate:"required"`
	Name        string          `json:"name" validate:"required,min=3,max=200"`
	Slug        string          `json:"slug" validate:"omitempty,max=200"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Available   *bool           `json:"available"`
}

func (r ProductRequest) product(id string) *models.Product {
	available := true
	if r.Available != nil {
		available = *r.Available
	}
	return &models.Product{
		ID:          id,
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Available:   available,
	}
}

func (h *AdminHandler) HandleListProducts(c *fiber.Ctx) error {
	page, err := h.products.AdminListProducts(c.UserContext(), middleware.CurrentPrincipal(c), repositories.ProductFilter{
		CategoryID: c.Query("category_id"),
		Query:      c.Query("q"),
		Sort:       c.Query("sort"),
		Page:       repositories.Page{Number: pageParam(c)},
	})
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(page)
}

func (h *AdminHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	product := req.product("")
	if err := h.products.CreateProduct(c.UserContext(), middleware.CurrentPrincipal(c), product); err != nil {
		return respondError(c, err, "Could not create product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *AdminHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.products.AdminGetProduct(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

func (h *AdminHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	ctx := c.UserContext()
	p := middleware.CurrentPrincipal(c)
	if err := h.products.UpdateProduct(ctx, p, req.product(c.Params("id"))); err != nil {
		return respondError(c, err, "Could not update product")
	}
	product, err := h.products.AdminGetProduct(ctx, p, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve product")
	}
	return c.JSON(product)
}

func (h *AdminHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.products.DeleteProduct(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// StockRequest adds delta units (negative to remove) to a product's stock.
type StockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

func (h *AdminHandler) HandleAdjustStock(c *fiber.Ctx) error {
	var req StockRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	stock, err := h.products.AdjustStock(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"), req.Delta)
	if err != nil {
		return respondError(c, err, "Could not adjust stock")
	}
	return c.JSON(fiber.Map{"id": c.Params("id"), "stock": stock})
}

func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	page, err := h.orders.AdminList(c.UserContext(), middleware.CurrentPrincipal(c), repositories.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Query:  c.Query("q"),
		Page:   repositories.Page{Number: pageParam(c)},
	})
	if err != nil {
		return respondError(c, err, "Could not retrieve orders")
	}
	return c.JSON(page)
}

func (h *AdminHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orders.AdminGet(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve order")
	}
	return c.JSON(order)
}

// StatusRequest is the body of an order status change.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *AdminHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req StatusRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err, "Order update failed")
	}
	return c.JSON(fiber.Map{
		"message": "Order " + order.ID + " status updated to " + order.Status.Label(),
		"order":   order,
	})
}

func (h *AdminHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if err := h.orders.AdminDelete(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete order")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AdminHandler) HandleListUsers(c *fiber.Ctx) error {
	page, err := h.users.List(c.UserContext(), middleware.CurrentPrincipal(c), c.Query("q"), pageParam(c))
	if err != nil {
		return respondError(c, err, "Could not retrieve users")
	}
	return c.JSON(page)
}

func (h *AdminHandler) HandleGetUser(c *fiber.Ctx) error {
	detail, err := h.users.Get(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not retrieve user")
	}
	return c.JSON(detail)
}

// ApprovalRequest publishes or hides a review.
type ApprovalRequest struct {
	Approved bool `json:"approved"`
}

func (h *AdminHandler) HandleSetReviewApproval(c *fiber.Ctx) error {
	var req ApprovalRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	review, err := h.reviews.SetApproval(c.UserContext(), middleware.CurrentPrincipal(c), c.Params("id"), req.Approved)
	if err != nil {
		return respondError(c, err, "Could not update review")
	}
	return c.JSON(review)
}
