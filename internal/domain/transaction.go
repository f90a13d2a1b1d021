package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes balance increments from payment debits.
type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypePayment TransactionType = "payment"
)

// TransactionStatus is the lifecycle state of a transaction.
// Deposits are born completed; payments are born pending and settle
// exactly once into completed or cancelled.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction records a single balance change or payment attempt.
// Every balance mutation is paired with exactly one transaction.
type Transaction struct {
	ID       int64
	ClientID int64
	Type     TransactionType
	Amount   decimal.Decimal
	Status   TransactionStatus

	// SessionID and Token are set only for payment transactions and
	// correlate the start/confirm pair.
	SessionID string
	Token     string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDeposit creates a completed deposit transaction for amount.
func NewDeposit(clientID int64, amount decimal.Decimal) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ClientID:  clientID,
		Type:      TransactionTypeDeposit,
		Amount:    amount,
		Status:    TransactionStatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewPendingPayment creates a pending payment transaction carrying the
// session identifier and confirmation token issued at start time.
func NewPendingPayment(clientID int64, amount decimal.Decimal, sessionID, token string) *Transaction {
	now := time.Now().UTC()
	return &Transaction{
		ClientID:  clientID,
		Type:      TransactionTypePayment,
		Amount:    amount,
		Status:    TransactionStatusPending,
		SessionID: sessionID,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Settle moves a pending payment to a terminal status.
// A transaction leaves pending at most once; settling anything that is
// not a pending payment is an error.
func (t *Transaction) Settle(status TransactionStatus) error {
	if t.Type != TransactionTypePayment {
		return errors.New("only payment transactions can be settled")
	}
	if t.Status != TransactionStatusPending {
		return fmt.Errorf("transaction %d is not pending (status %s)", t.ID, t.Status)
	}
	if status != TransactionStatusCompleted && status != TransactionStatusCancelled {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}
