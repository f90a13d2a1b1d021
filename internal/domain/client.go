package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Client represents a registered wallet holder.
// Document, email and phone are each globally unique across all clients.
type Client struct {
	ID        int64
	Document  string
	Name      string
	Email     string
	Phone     string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewClient creates a client with a zero balance.
// The ID is assigned by the store on first save.
func NewClient(document, name, email, phone string) *Client {
	now := time.Now().UTC()
	return &Client{
		Document:  document,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanPay reports whether the current balance covers amount.
func (c *Client) CanPay(amount decimal.Decimal) bool {
	return c.Balance.GreaterThanOrEqual(amount)
}
