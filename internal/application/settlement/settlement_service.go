package settlement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tropa/backend/internal/domain/catalog"
	"github.com/tropa/backend/internal/domain/ordering"
	"github.com/tropa/backend/internal/domain/shared"
	"github.com/tropa/backend/internal/domain/wallet"
	"go.uber.org/zap"
)

// Service coordinates the settlement flows: the atomic combination of stock
// adjustment, order persistence and ledger entry for one business event.
// Every flow runs inside a single database transaction; a failure at any step
// rolls back all stock, order and ledger writes.
type Service struct {
	scope       TransactionScope
	idempotency shared.IdempotencyStore
	idemCfg     shared.IdempotencyConfig
	minBalance  decimal.Decimal
	logger      *zap.Logger
}

// NewService creates a new settlement service. minBalance is the lowest
// balance a debit may leave behind (the balance floor). idempotency may be
// nil to disable duplicate-request detection.
func NewService(
	scope TransactionScope,
	idempotency shared.IdempotencyStore,
	minBalance decimal.Decimal,
	logger *zap.Logger,
) *Service {
	return &Service{
		scope:       scope,
		idempotency: idempotency,
		idemCfg:     shared.DefaultIdempotencyConfig(),
		minBalance:  minBalance,
		logger:      logger,
	}
}

// Sell settles a sale: validates the request, assembles the order with price
// snapshots, deducts stock per line with an audit entry each, persists the
// order and debits the wallet ledger for the total. All writes commit or roll
// back together.
func (s *Service) Sell(ctx context.Context, req SellRequest) (*SellResult, error) {
	if !req.RequesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order must contain at least one line item")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
		}
	}

	userID := req.UserID
	if userID == uuid.Nil {
		userID = req.RequesterID
	}

	if err := s.reserveIdempotency(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	var result SellResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		owner, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !owner.IsActive() {
			return shared.ErrNotFound
		}

		order, err := ordering.NewOrder(userID, req.Note)
		if err != nil {
			return err
		}

		// Assemble with current price snapshots and fail fast on stock.
		for _, line := range req.Lines {
			product, err := repos.Products().FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := product.CanDeduct(line.Quantity); err != nil {
				return err
			}
			if err := order.AddLine(product.ID, line.Quantity, product.Price); err != nil {
				return err
			}
		}
		if err := order.Confirm(); err != nil {
			return err
		}

		// Deduct stock per line; the conditional update closes the
		// check-then-act race under concurrent sales.
		changes := make([]StockChange, 0, len(req.Lines))
		for _, line := range req.Lines {
			after, err := repos.Products().DeductStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return err
			}
			before := after + line.Quantity
			entry, err := catalog.NewProductLog(
				line.ProductID,
				req.RequesterID,
				catalog.ProductActionSale,
				fmt.Sprintf("Order %s: sold %d units", order.Reference, line.Quantity),
				before,
				after,
			)
			if err != nil {
				return err
			}
			if err := repos.ProductLogs().Create(ctx, entry); err != nil {
				return err
			}
			changes = append(changes, StockChange{ProductID: line.ProductID, Before: before, After: after})
		}

		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		total := order.TotalAmount
		balanceAfter, err := repos.Users().ApplyBalanceDelta(ctx, userID, total.Neg(), s.minBalance)
		if err != nil {
			return err
		}

		tx, err := wallet.NewSaleTransaction(userID, total, balanceAfter.Add(total), "Order "+order.Reference)
		if err != nil {
			return err
		}
		tx.WithOrderID(order.ID)
		if err := repos.WalletTransactions().Create(ctx, tx); err != nil {
			return err
		}

		result = SellResult{
			Order:        order,
			Transaction:  tx,
			StockChanges: changes,
			Balance:      balanceAfter,
		}
		return nil
	})
	if err != nil {
		s.releaseIdempotency(ctx, req.IdempotencyKey)
		return nil, err
	}

	s.logger.Info("sale settled",
		zap.String("order", result.Order.Reference),
		zap.String("user_id", userID.String()),
		zap.String("total", result.Order.TotalAmount.String()),
	)
	return &result, nil
}

// TopUp credits a user's wallet. A zero-line top-up order is created for
// traceability and the ledger entry references it.
func (s *Service) TopUp(ctx context.Context, req TopUpRequest) (*TopUpResult, error) {
	if !req.RequesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Top-up amount must be positive")
	}

	userID := req.UserID
	if userID == uuid.Nil {
		userID = req.RequesterID
	}

	if err := s.reserveIdempotency(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	var result TopUpResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		owner, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !owner.IsActive() {
			return shared.ErrNotFound
		}

		order, err := ordering.NewOrder(userID, "Recarga de saldo")
		if err != nil {
			return err
		}
		if err := order.Confirm(); err != nil {
			return err
		}
		if err := repos.Orders().Create(ctx, order); err != nil {
			return err
		}

		balanceAfter, err := repos.Users().ApplyBalanceDelta(ctx, userID, req.Amount, s.minBalance)
		if err != nil {
			return err
		}

		tx, err := wallet.NewTopUpTransaction(userID, req.Amount, balanceAfter.Sub(req.Amount), req.Description)
		if err != nil {
			return err
		}
		tx.WithOrderID(order.ID)
		if err := repos.WalletTransactions().Create(ctx, tx); err != nil {
			return err
		}

		result = TopUpResult{Order: order, Transaction: tx, Balance: balanceAfter}
		return nil
	})
	if err != nil {
		s.releaseIdempotency(ctx, req.IdempotencyKey)
		return nil, err
	}

	s.logger.Info("top-up settled",
		zap.String("user_id", userID.String()),
		zap.String("amount", req.Amount.String()),
	)
	return &result, nil
}

// RevertSale undoes a settled sale: each line is restocked with an audit
// entry, the order is marked reverted and an inverse ledger entry referencing
// the original is appended. History is never edited; a sale can be reverted
// at most once.
func (s *Service) RevertSale(ctx context.Context, req RevertRequest) (*RevertResult, error) {
	if !req.RequesterRole.CanManageTroopStore() {
		return nil, shared.ErrForbidden
	}

	var result RevertResult
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, req.OrderID)
		if err != nil {
			return err
		}
		if order.IsTopUp() {
			return shared.NewDomainError("INVALID_STATE", "Top-up orders cannot be reverted")
		}

		entries, err := repos.WalletTransactions().FindByOrderID(ctx, order.ID)
		if err != nil {
			return err
		}
		var saleTx *wallet.Transaction
		for _, e := range entries {
			if e.Action == wallet.ActionSale {
				saleTx = e
				break
			}
		}
		if saleTx == nil {
			return shared.NewDomainError("INVALID_STATE", "Order has no sale transaction to revert")
		}

		reversals, err := repos.WalletTransactions().FindByParentID(ctx, saleTx.ID)
		if err != nil {
			return err
		}
		if len(reversals) > 0 {
			return shared.NewDomainError("ALREADY_REVERTED", "Sale has already been reverted")
		}

		if err := order.MarkReverted(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, order); err != nil {
			return err
		}

		changes := make([]StockChange, 0, len(order.Details))
		for i := range order.Details {
			detail := &order.Details[i]
			after, err := repos.Products().AddStock(ctx, detail.ProductID, detail.Quantity)
			if err != nil {
				return err
			}
			before := after - detail.Quantity
			entry, err := catalog.NewProductLog(
				detail.ProductID,
				req.RequesterID,
				catalog.ProductActionReversal,
				fmt.Sprintf("Order %s reverted: restocked %d units", order.Reference, detail.Quantity),
				before,
				after,
			)
			if err != nil {
				return err
			}
			if err := repos.ProductLogs().Create(ctx, entry); err != nil {
				return err
			}
			changes = append(changes, StockChange{ProductID: detail.ProductID, Before: before, After: after})
		}

		refund := saleTx.Amount.Neg()
		balanceAfter, err := repos.Users().ApplyBalanceDelta(ctx, order.UserID, refund, s.minBalance)
		if err != nil {
			return err
		}

		description := req.Reason
		if description == "" {
			description = "Reverted order " + order.Reference
		}
		reversal, err := wallet.NewReversalTransaction(saleTx, balanceAfter.Sub(refund), description)
		if err != nil {
			return err
		}
		if err := repos.WalletTransactions().Create(ctx, reversal); err != nil {
			return err
		}

		result = RevertResult{
			Order:        order,
			Transaction:  reversal,
			StockChanges: changes,
			Balance:      balanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("sale reverted",
		zap.String("order", result.Order.Reference),
		zap.String("user_id", result.Order.UserID.String()),
	)
	return &result, nil
}

// reserveIdempotency atomically claims a key before any write. The SETNX-style
// mark admits only the first of two concurrent submissions; the duplicate is
// rejected here without side effects. A store error degrades to no protection
// rather than blocking the sale.
func (s *Service) reserveIdempotency(ctx context.Context, key string) error {
	if s.idempotency == nil || key == "" {
		return nil
	}
	newly, err := s.idempotency.MarkProcessed(ctx, key, s.idemCfg.TTL)
	if err != nil {
		s.logger.Warn("idempotency reservation failed", zap.Error(err))
		return nil
	}
	if !newly {
		return shared.NewDomainError("ALREADY_EXISTS", "Request with this idempotency key was already processed")
	}
	return nil
}

// releaseIdempotency frees a reserved key after a failed flow so the same
// request may be retried.
func (s *Service) releaseIdempotency(ctx context.Context, key string) {
	if s.idempotency == nil || key == "" {
		return
	}
	if err := s.idempotency.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release idempotency key", zap.Error(err))
	}
}
