package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/application/settlement"
	walletapp "github.com/tropa/backend/internal/application/wallet"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/domain/wallet"
	"github.com/tropa/backend/internal/interfaces/http/dto"
	"github.com/tropa/backend/internal/interfaces/http/middleware"
)

// WalletHandler handles wallet balance, ledger and top-up endpoints.
type WalletHandler struct {
	BaseHandler
	wallets    *walletapp.Service
	settlement *settlement.Service
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets *walletapp.Service, settlement *settlement.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets, settlement: settlement}
}

// TopUpRequest is the wallet credit request body.
type TopUpRequest struct {
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"max=500"`
	// UserID is the wallet owner being credited; empty means the caller
	UserID string `json:"user_id" binding:"omitempty,uuid"`
}

// TransactionListFilter holds ledger list query parameters.
type TransactionListFilter struct {
	dto.ListRequest
	Action string `form:"action"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

// TopUp credits a user's wallet and records a zero-line top-up order for
// traceability.
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := parseOptionalUserID(req.UserID)
	if err != nil {
		h.BadRequest(c, "Invalid user_id format")
		return
	}

	result, err := h.settlement.TopUp(c.Request.Context(), settlement.TopUpRequest{
		RequesterID:    middleware.CurrentUserID(c),
		RequesterRole:  middleware.CurrentRole(c),
		UserID:         userID,
		Amount:         decimal.NewFromFloat(req.Amount),
		Description:    req.Description,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetBalance returns the caller's wallet balance. Managers may pass
// ?user_id= to inspect another user's balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, err := h.resolveTargetUser(c, c.Query("user_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.wallets.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListTransactions lists the caller's ledger entries, most recent first.
// Managers may pass ?user_id= to inspect another user's ledger.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	var filter TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	userID, err := h.resolveTargetUser(c, filter.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	transactions, total, err := h.wallets.ListTransactions(c.Request.Context(), userID, wallet.TransactionFilter{
		Action:   filter.Action,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, transactions, total, filter.Page, filter.PageSize)
}

// GetTransaction returns a single ledger entry. Ownership is enforced by the
// application service.
func (h *WalletHandler) GetTransaction(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	transaction, err := h.wallets.GetTransaction(c.Request.Context(),
		middleware.CurrentUserID(c), middleware.CurrentRole(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transaction)
}

// resolveTargetUser resolves the wallet owner for a read: the caller itself,
// or another user when the caller may manage the store.
func (h *WalletHandler) resolveTargetUser(c *gin.Context, raw string) (userID uuid.UUID, err error) {
	requesterID := middleware.CurrentUserID(c)
	target, err := parseOptionalUserID(raw)
	if err != nil {
		return uuid.Nil, shared.NewDomainError("INVALID_INPUT", "Invalid user_id format")
	}
	if target == uuid.Nil || target == requesterID {
		return requesterID, nil
	}
	if !middleware.CurrentRole(c).CanManageTroopStore() {
		return uuid.Nil, shared.ErrForbidden
	}
	return target, nil
}
