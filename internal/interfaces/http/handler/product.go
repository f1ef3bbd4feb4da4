package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	catalogapp "github.com/tropa/backend/internal/application/catalog"
	"github.com/tropa/backend/internal/application/settlement"
	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/interfaces/http/dto"
	"github.com/tropa/backend/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader is the optional client-supplied settlement key.
const IdempotencyKeyHeader = "Idempotency-Key"

// ProductHandler handles product catalog and sale endpoints.
type ProductHandler struct {
	BaseHandler
	products   *catalogapp.Service
	settlement *settlement.Service
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *catalogapp.Service, settlement *settlement.Service) *ProductHandler {
	return &ProductHandler{products: products, settlement: settlement}
}

// SellProductRequest is the single-product sale request body.
type SellProductRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	Note      string `json:"note" binding:"max=500"`
	// UserID is the wallet owner being charged; empty means the caller
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// CreateProductRequest is the product creation request body.
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,min=1,max=200"`
	Description string  `json:"description" binding:"max=2000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"min=0"`
	Type        string  `json:"type" binding:"required,oneof=uniform insignia camping handicraft other"`
}

// UpdateProductRequest is the product update request body; omitted fields are
// left unchanged.
type UpdateProductRequest struct {
	Name        *string  `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
}

// RestockRequest is the restock request body.
type RestockRequest struct {
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Note     string `json:"note" binding:"max=500"`
}

// ProductListFilter holds product list query parameters.
type ProductListFilter struct {
	dto.ListRequest
	Type       string `form:"type" binding:"omitempty,oneof=uniform insignia camping handicraft other"`
	Status     string `form:"status" binding:"omitempty,oneof=active inactive"`
	OnlyActive bool   `form:"only_active"`
}

// Sell settles a one-line sale: deducts stock, records the order, debits the
// wallet and appends the audit entry, all in one transaction.
func (h *ProductHandler) Sell(c *gin.Context) {
	var req SellProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID := uuid.MustParse(req.ProductID)
	userID, err := parseOptionalUserID(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user_id format")
		return
	}

	result, err := h.settlement.Sell(c.Request.Context(), settlement.SellRequest{
		RequesterID:    middleware.CurrentUserID(c),
		RequesterRole:  middleware.CurrentRole(c),
		UserID:         userID,
		Lines:          []settlement.OrderLine{{ProductID: productID, Quantity: req.Quantity}},
		Note:           req.Note,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	product, err := h.products.Get(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{
		"product":     product,
		"order":       result.Order,
		"transaction": result.Transaction,
		"balance":     result.Balance,
	})
}

// Create adds a new product to the catalog.
func (h *ProductHandler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.products.Create(c.Request.Context(), middleware.CurrentRole(c), catalogapp.CreateProductRequest{
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromFloat(req.Price),
		Stock:       req.Stock,
		Type:        catalog.ProductType(req.Type),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// List lists catalog products with optional filtering.
func (h *ProductHandler) List(c *gin.Context) {
	var filter ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainFilter := catalog.ProductFilter{
		OnlyActive: filter.OnlyActive,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}
	if filter.Type != "" {
		t := catalog.ProductType(filter.Type)
		domainFilter.Type = &t
	}
	if filter.Status != "" {
		s := catalog.ProductStatus(filter.Status)
		domainFilter.Status = &s
	}

	products, total, err := h.products.List(c.Request.Context(), domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, products, total, filter.Page, filter.PageSize)
}

// Get returns a single product by ID.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Update modifies a product's name, description or price.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := catalogapp.UpdateProductRequest{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Price != nil {
		price := decimal.NewFromFloat(*req.Price)
		appReq.Price = &price
	}

	product, err := h.products.Update(c.Request.Context(), middleware.CurrentRole(c), id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Restock adds stock to a product and appends an audit entry.
func (h *ProductHandler) Restock(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	product, err := h.products.Restock(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), id, req.Quantity, req.Note)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Deactivate soft-deletes a product: it stays readable but can no longer be
// sold, and its remaining stock is written off.
func (h *ProductHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.products.Deactivate(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadImage stores a product image and records its URL.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		h.BadRequest(c, "Missing image file")
		return
	}
	defer file.Close()

	product, err := h.products.SetImage(c.Request.Context(),
		middleware.CurrentRole(c), id, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// Logs lists one product's audit log in chronological order.
func (h *ProductHandler) Logs(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	logs, total, err := h.products.Logs(c.Request.Context(), id, catalog.ProductLogFilter{
		Page:     list.Page,
		PageSize: list.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, list.Page, list.PageSize)
}

// AllLogs lists the audit log across all products.
func (h *ProductHandler) AllLogs(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	logs, total, err := h.products.AllLogs(c.Request.Context(), middleware.CurrentRole(c), catalog.ProductLogFilter{
		Page:     list.Page,
		PageSize: list.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, list.Page, list.PageSize)
}

// GetLog returns a single audit log entry by ID.
func (h *ProductHandler) GetLog(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	log, err := h.products.Log(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, log)
}
