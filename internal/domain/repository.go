package domain

import (
	"context"
)

// Store defines the persistence contract for clients and transactions.
//
// Lookup methods return *ErrNotFound when no row matches. Inside a
// RunAtomic callback, client and pending-payment lookups take row-level
// locks, so concurrent balance mutations against the same client
// serialize instead of clobbering each other.
type Store interface {
	// FindClientByDocumentAndPhone retrieves the client matching both keys.
	FindClientByDocumentAndPhone(ctx context.Context, document, phone string) (*Client, error)

	// FindClientByID retrieves a client by its surrogate id.
	FindClientByID(ctx context.Context, id int64) (*Client, error)

	// ClientExists reports whether any client already uses the document,
	// email or phone (logical OR — any single collision counts).
	ClientExists(ctx context.Context, document, email, phone string) (bool, error)

	// SaveClient inserts the client when its ID is zero, assigning it,
	// and updates it otherwise. UpdatedAt is bumped on every save.
	SaveClient(ctx context.Context, client *Client) error

	// FindPendingPayment retrieves the payment transaction matching
	// (sessionID, token, status=pending) exactly.
	FindPendingPayment(ctx context.Context, sessionID, token string) (*Transaction, error)

	// PendingTokenExists reports whether the client already has a pending
	// payment carrying token.
	PendingTokenExists(ctx context.Context, clientID int64, token string) (bool, error)

	// SaveTransaction inserts the transaction when its ID is zero,
	// assigning it, and updates its status otherwise.
	SaveTransaction(ctx context.Context, tx *Transaction) error

	// RunAtomic executes fn under one commit/rollback boundary. The Store
	// passed to fn is scoped to that boundary; either every write inside
	// fn commits or none does.
	RunAtomic(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
