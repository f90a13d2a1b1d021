// Package ledger performs the balance-mutating operations. Each operation
// is a single atomic unit: the transaction record write and the balance
// write commit together or not at all.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/domain"
)

// Service executes balance mutations against the store.
type Service struct {
	store  domain.Store
	logger *zap.Logger
}

// NewService creates a new ledger Service instance.
func NewService(store domain.Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// RechargeResult is the outcome of a successful recharge.
type RechargeResult struct {
	NewBalance    decimal.Decimal
	TransactionID int64
}

// Recharge credits amount to the client identified by (document, phone).
// The completed deposit transaction and the balance increment commit in
// one atomic unit.
func (s *Service) Recharge(ctx context.Context, document, phone string, amount decimal.Decimal) (*RechargeResult, error) {
	if document == "" {
		return nil, &domain.ErrValidation{Field: "document", Message: "is required"}
	}
	if phone == "" {
		return nil, &domain.ErrValidation{Field: "phone", Message: "is required"}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}

	var result RechargeResult
	err := s.store.RunAtomic(ctx, func(ctx context.Context, store domain.Store) error {
		client, err := store.FindClientByDocumentAndPhone(ctx, document, phone)
		if err != nil {
			return err
		}

		deposit := domain.NewDeposit(client.ID, amount)
		if err := store.SaveTransaction(ctx, deposit); err != nil {
			return fmt.Errorf("failed to record deposit: %w", err)
		}

		client.Balance = client.Balance.Add(amount)
		if err := store.SaveClient(ctx, client); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		result = RechargeResult{NewBalance: client.Balance, TransactionID: deposit.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("wallet recharged",
		zap.String("document", document),
		zap.String("amount", amount.String()),
		zap.Int64("transaction_id", result.TransactionID),
	)
	return &result, nil
}

// DebitResult is the outcome of a successfully confirmed payment.
type DebitResult struct {
	TransactionID int64
	NewBalance    decimal.Decimal
}

// Debit settles the pending payment matching (sessionID, token).
//
// The balance is re-checked here: it may have drifted since the payment
// was started. With sufficient funds the debit and the completed status
// commit together. Otherwise the payment is cancelled — that single
// write commits on its own, the balance is untouched, and the call
// reports ErrInsufficientFunds. Either way the transaction leaves
// pending exactly once; a second confirm finds nothing and gets
// ErrNotFound.
func (s *Service) Debit(ctx context.Context, sessionID, token string) (*DebitResult, error) {
	var result DebitResult
	var insufficient *domain.ErrInsufficientFunds

	err := s.store.RunAtomic(ctx, func(ctx context.Context, store domain.Store) error {
		// The row lock taken by this lookup serializes concurrent
		// confirms of the same (session, token) pair.
		payment, err := store.FindPendingPayment(ctx, sessionID, token)
		if err != nil {
			return err
		}

		client, err := store.FindClientByID(ctx, payment.ClientID)
		if err != nil {
			return err
		}

		if !client.CanPay(payment.Amount) {
			if err := payment.Settle(domain.TransactionStatusCancelled); err != nil {
				return err
			}
			if err := store.SaveTransaction(ctx, payment); err != nil {
				return fmt.Errorf("failed to cancel payment: %w", err)
			}
			insufficient = &domain.ErrInsufficientFunds{
				Available: client.Balance,
				Required:  payment.Amount,
			}
			// Returning nil commits the cancellation.
			return nil
		}

		client.Balance = client.Balance.Sub(payment.Amount)
		if err := store.SaveClient(ctx, client); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		if err := payment.Settle(domain.TransactionStatusCompleted); err != nil {
			return err
		}
		if err := store.SaveTransaction(ctx, payment); err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}

		result = DebitResult{TransactionID: payment.ID, NewBalance: client.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if insufficient != nil {
		s.logger.Warn("payment cancelled on confirm: insufficient funds",
			zap.String("session_id", sessionID),
			zap.String("available", insufficient.Available.String()),
			zap.String("required", insufficient.Required.String()),
		)
		return nil, insufficient
	}

	s.logger.Info("payment debited",
		zap.String("session_id", sessionID),
		zap.Int64("transaction_id", result.TransactionID),
	)
	return &result, nil
}
