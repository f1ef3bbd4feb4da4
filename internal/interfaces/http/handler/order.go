package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/tropa/backend/internal/application/ordering"
	"github.com/tropa/backend/internal/application/settlement"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/interfaces/http/dto"
	"github.com/tropa/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints. Order creation and reversal run
// through the settlement coordinator; reads and cancellation do not.
type OrderHandler struct {
	BaseHandler
	orders     *orderapp.Service
	settlement *settlement.Service
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *orderapp.Service, settlement *settlement.Service) *OrderHandler {
	return &OrderHandler{orders: orders, settlement: settlement}
}

// OrderLineRequest is one requested line item.
type OrderLineRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest is the multi-line order request body. Unit prices are
// snapshotted server-side; the client never supplies amounts.
type CreateOrderRequest struct {
	OrderNote string             `json:"order_note" binding:"max=500"`
	Details   []OrderLineRequest `json:"details" binding:"required,min=1,dive"`
	// UserID is the wallet owner being charged; empty means the caller
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// RevertOrderRequest is the optional reversal request body.
type RevertOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter holds order list query parameters.
type OrderListFilter struct {
	dto.ListRequest
	Status string `form:"status" binding:"omitempty,oneof=pending confirmed cancelled reverted"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

// Create settles a multi-line order in one transaction.
func (h *OrderHandler) Create(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := parseOptionalUserID(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user_id format")
		return
	}

	lines := make([]settlement.OrderLine, len(req.Details))
	for i, d := range req.Details {
		lines[i] = settlement.OrderLine{
			ProductID: uuid.MustParse(d.ProductID),
			Quantity:  d.Quantity,
		}
	}

	result, err := h.settlement.Sell(c.Request.Context(), settlement.SellRequest{
		RequesterID:    middleware.CurrentUserID(c),
		RequesterRole:  middleware.CurrentRole(c),
		UserID:         userID,
		Lines:          lines,
		Note:           req.OrderNote,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List lists orders. Scouts only see their own; managers see everything.
func (h *OrderHandler) List(c *gin.Context) {
	var filter OrderListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	domainFilter := ordering.OrderFilter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Status != "" {
		s := ordering.OrderStatus(filter.Status)
		domainFilter.Status = &s
	}
	if filter.UserID != "" {
		id := uuid.MustParse(filter.UserID)
		domainFilter.UserID = &id
	}

	orders, total, err := h.orders.List(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), domainFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, orders, total, filter.Page, filter.PageSize)
}

// Get returns a single order with its details.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Get(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Cancel marks an order cancelled. Stock and wallet are untouched; use
// Revert for a settled sale.
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.Cancel(c.Request.Context(), middleware.CurrentRole(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Revert undoes a settled sale: restocks every line, refunds the wallet via
// an inverse ledger entry and marks the order reverted.
func (h *OrderHandler) Revert(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req RevertOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.settlement.RevertSale(c.Request.Context(), settlement.RevertRequest{
		RequesterID:   middleware.CurrentUserID(c),
		RequesterRole: middleware.CurrentRole(c),
		OrderID:       id,
		Reason:        req.Reason,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
