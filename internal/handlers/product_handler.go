package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/boutique-commerce/backoffice/internal/domain"
	"github.com/boutique-commerce/backoffice/internal/httpx"
	"github.com/boutique-commerce/backoffice/internal/repository"
	"github.com/boutique-commerce/backoffice/internal/service"
)

type ProductHandler struct {
	catalog *service.CatalogService
}

func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type ProductRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Quantity      int             `json:"quantity"`
	IsBestseller  bool            `json:"is_bestseller"`
	ImageURL      string          `json:"image_url"`
}

func (r ProductRequest) toInput() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		SKU:           r.SKU,
		Price:         r.Price,
		OriginalPrice: r.OriginalPrice,
		Quantity:      r.Quantity,
		IsBestseller:  r.IsBestseller,
		ImageURL:      r.ImageURL,
	}
}

// AdjustStockRequest moves a product's quantity by quantity_change, which may
// be negative. The reason defaults to manual_adjustment.
type AdjustStockRequest struct {
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason"`
	Note           string `json:"note"`
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var request ProductRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	product, err := h.catalog.Create(c.Context(), request.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Created(c, "Product created successfully", product)
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("id"),
		})
	}

	product, err := h.catalog.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Product retrieved successfully", product)
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	filter := repository.ProductFilter{
		Search:         c.Query("search"),
		BestsellerOnly: c.QueryBool("bestseller"),
		IncludeHidden:  c.QueryBool("include_hidden"),
		Limit:          queryInt(c, "limit", 20),
		Offset:         queryInt(c, "offset", 0),
	}

	products, err := h.catalog.List(c.Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Products retrieved successfully", products)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("id"),
		})
	}

	var request ProductRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	product, err := h.catalog.Update(c.Context(), id, request.toInput())
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Product updated successfully", product)
}

func (h *ProductHandler) Deactivate(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("id"),
		})
	}

	if err := h.catalog.Deactivate(c.Context(), id); err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Product deactivated successfully", nil)
}

// AdjustStock changes on-hand quantity through the stock ledger so every
// manual correction leaves an audit record.
func (h *ProductHandler) AdjustStock(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("id"),
		})
	}

	var request AdjustStockRequest
	if err := c.BodyParser(&request); err != nil {
		return httpx.BadRequest(c, "Invalid request body", map[string]interface{}{
			"parse_error": err.Error(),
		})
	}

	product, err := h.catalog.AdjustStock(c.Context(), id, request.QuantityChange, domain.AdjustmentReason(request.Reason), request.Note)
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Stock adjusted successfully", product)
}

func (h *ProductHandler) InventoryHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return httpx.BadRequest(c, "Invalid product ID", map[string]interface{}{
			"product_id": c.Params("id"),
		})
	}

	history, err := h.catalog.InventoryHistory(c.Context(), id, queryInt(c, "limit", 50))
	if err != nil {
		return respondError(c, err)
	}
	return httpx.Success(c, "Inventory history retrieved successfully", history)
}
