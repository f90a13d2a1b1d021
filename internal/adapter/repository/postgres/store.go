package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/ncastano/virtual-wallet/internal/domain"
)

// uniqueViolation is the postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store implements domain.Store.
// A pool-backed store runs each call on its own connection; RunAtomic
// hands the callback a tx-scoped store whose lookups take row locks.
type store struct {
	q       queryer
	db      *DB // nil when tx-scoped
	locking bool
}

// NewStore creates a store backed by the connection pool.
func NewStore(db *DB) domain.Store {
	return &store{q: db.DB, db: db}
}

// RunAtomic executes fn inside one database transaction.
func (s *store) RunAtomic(ctx context.Context, fn func(ctx context.Context, s domain.Store) error) error {
	if s.db == nil {
		// Already inside a transaction; reuse it.
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &store{q: tx, locking: true}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// FindClientByDocumentAndPhone retrieves the client matching both keys.
func (s *store) FindClientByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error) {
	query := `
		SELECT id, document, name, email, phone, balance, created_at, updated_at
		FROM clients
		WHERE document = $1 AND phone = $2
	`
	if s.locking {
		query += " FOR UPDATE"
	}
	return s.scanClient(s.q.QueryRowContext(ctx, query, document, phone), document)
}

// FindClientByID retrieves a client by its surrogate id.
func (s *store) FindClientByID(ctx context.Context, id int64) (*domain.Client, error) {
	query := `
		SELECT id, document, name, email, phone, balance, created_at, updated_at
		FROM clients
		WHERE id = $1
	`
	if s.locking {
		query += " FOR UPDATE"
	}
	return s.scanClient(s.q.QueryRowContext(ctx, query, id), fmt.Sprintf("%d", id))
}

func (s *store) scanClient(row *sql.Row, key string) (*domain.Client, error) {
	var client domain.Client
	var balanceStr string

	err := row.Scan(
		&client.ID,
		&client.Document,
		&client.Name,
		&client.Email,
		&client.Phone,
		&balanceStr,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "client", Key: key}
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	client.Balance = balance

	return &client, nil
}

// ClientExists reports whether any client uses the document, email or phone.
func (s *store) ClientExists(ctx context.Context, document, email, phone string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM clients
			WHERE document = $1 OR email = $2 OR phone = $3
		)
	`

	var exists bool
	if err := s.q.QueryRowContext(ctx, query, document, email, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check client existence: %w", err)
	}
	return exists, nil
}

// SaveClient inserts the client when its ID is zero and updates it otherwise.
func (s *store) SaveClient(ctx context.Context, client *domain.Client) error {
	client.UpdatedAt = time.Now().UTC()

	if client.ID == 0 {
		query := `
			INSERT INTO clients (document, name, email, phone, balance, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		err := s.q.QueryRowContext(ctx, query,
			client.Document,
			client.Name,
			client.Email,
			client.Phone,
			client.Balance.String(),
			client.CreatedAt,
			client.UpdatedAt,
		).Scan(&client.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return &domain.ErrConflict{
					Message: "a client already exists with the given document, email or phone",
				}
			}
			return fmt.Errorf("failed to insert client: %w", err)
		}
		return nil
	}

	query := `
		UPDATE clients
		SET balance = $1, updated_at = $2
		WHERE id = $3
	`
	if _, err := s.q.ExecContext(ctx, query, client.Balance.String(), client.UpdatedAt, client.ID); err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// FindPendingPayment retrieves the payment matching (sessionID, token, pending).
func (s *store) FindPendingPayment(ctx context.Context, sessionID, token string) (*domain.Transaction, error) {
	query := `
		SELECT id, client_id, type, amount, status, session_id, token, created_at, updated_at
		FROM transactions
		WHERE session_id = $1 AND token = $2 AND status = $3
	`
	if s.locking {
		query += " FOR UPDATE"
	}

	var tx domain.Transaction
	var amountStr string
	var sessionIDCol, tokenCol sql.NullString

	err := s.q.QueryRowContext(ctx, query, sessionID, token, string(domain.TransactionStatusPending)).Scan(
		&tx.ID,
		&tx.ClientID,
		&tx.Type,
		&amountStr,
		&tx.Status,
		&sessionIDCol,
		&tokenCol,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "transaction", Key: sessionID}
		}
		return nil, fmt.Errorf("failed to get pending payment: %w", err)
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}
	tx.Amount = amount
	tx.SessionID = sessionIDCol.String
	tx.Token = tokenCol.String

	return &tx, nil
}

// PendingTokenExists reports whether the client has a pending payment
// carrying token.
func (s *store) PendingTokenExists(ctx context.Context, clientID int64, token string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE client_id = $1 AND token = $2 AND status = $3
		)
	`

	var exists bool
	err := s.q.QueryRowContext(ctx, query, clientID, token, string(domain.TransactionStatusPending)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending token: %w", err)
	}
	return exists, nil
}

// SaveTransaction inserts the transaction when its ID is zero and
// updates its status otherwise.
func (s *store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	tx.UpdatedAt = time.Now().UTC()

	if tx.ID == 0 {
		query := `
			INSERT INTO transactions (client_id, type, amount, status, session_id, token, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err := s.q.QueryRowContext(ctx, query,
			tx.ClientID,
			string(tx.Type),
			tx.Amount.String(),
			string(tx.Status),
			nullIfEmpty(tx.SessionID),
			nullIfEmpty(tx.Token),
			tx.CreatedAt,
			tx.UpdatedAt,
		).Scan(&tx.ID)
		if err != nil {
			return fmt.Errorf("failed to insert transaction: %w", err)
		}
		return nil
	}

	query := `
		UPDATE transactions
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	if _, err := s.q.ExecContext(ctx, query, string(tx.Status), tx.UpdatedAt, tx.ID); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
