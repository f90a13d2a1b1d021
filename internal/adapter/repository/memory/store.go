// Package memory provides an in-memory implementation of the store
// contract. It backs unit and scenario tests; the real engine runs on
// the postgres adapter.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ncastano/virtual-wallet/internal/domain"
)

// Store keeps clients and transactions in mutex-guarded maps.
type Store struct {
	mu           sync.Mutex
	clients      map[int64]*domain.Client
	transactions map[int64]*domain.Transaction
	nextClientID int64
	nextTxID     int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		clients:      make(map[int64]*domain.Client),
		transactions: make(map[int64]*domain.Transaction),
		nextClientID: 1,
		nextTxID:     1,
	}
}

// RunAtomic executes fn under the store lock, restoring the previous
// state when fn fails so partial writes never survive.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context, st domain.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapClients := cloneClients(s.clients)
	snapTxs := cloneTransactions(s.transactions)
	snapClientID, snapTxID := s.nextClientID, s.nextTxID

	if err := fn(ctx, &txStore{s: s}); err != nil {
		s.clients = snapClients
		s.transactions = snapTxs
		s.nextClientID, s.nextTxID = snapClientID, snapTxID
		return err
	}
	return nil
}

func (s *Store) FindClientByDocumentAndPhone(ctx context.Context, document, phone string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findClientByDocumentAndPhone(document, phone)
}

func (s *Store) FindClientByID(ctx context.Context, id int64) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findClientByID(id)
}

func (s *Store) ClientExists(ctx context.Context, document, email, phone string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientExists(document, email, phone), nil
}

func (s *Store) SaveClient(ctx context.Context, client *domain.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveClient(client)
}

func (s *Store) FindPendingPayment(ctx context.Context, sessionID, token string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findPendingPayment(sessionID, token)
}

func (s *Store) PendingTokenExists(ctx context.Context, clientID int64, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingTokenExists(clientID, token), nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTransaction(tx)
}

// Transaction returns a copy of the stored transaction, for test assertions.
func (s *Store) Transaction(id int64) (*domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, false
	}
	cp := *tx
	return &cp, true
}

// Transactions returns copies of all stored transactions, for test assertions.
func (s *Store) Transactions() []*domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		cp := *tx
		out = append(out, &cp)
	}
	return out
}

// txStore is the view handed to RunAtomic callbacks; the store lock is
// already held.
type txStore struct {
	s *Store
}

func (t *txStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, st domain.Store) error) error {
	// Already inside the atomic boundary; reuse it.
	return fn(ctx, t)
}

func (t *txStore) FindClientByDocumentAndPhone(_ context.Context, document, phone string) (*domain.Client, error) {
	return t.s.findClientByDocumentAndPhone(document, phone)
}

func (t *txStore) FindClientByID(_ context.Context, id int64) (*domain.Client, error) {
	return t.s.findClientByID(id)
}

func (t *txStore) ClientExists(_ context.Context, document, email, phone string) (bool, error) {
	return t.s.clientExists(document, email, phone), nil
}

func (t *txStore) SaveClient(_ context.Context, client *domain.Client) error {
	return t.s.saveClient(client)
}

func (t *txStore) FindPendingPayment(_ context.Context, sessionID, token string) (*domain.Transaction, error) {
	return t.s.findPendingPayment(sessionID, token)
}

func (t *txStore) PendingTokenExists(_ context.Context, clientID int64, token string) (bool, error) {
	return t.s.pendingTokenExists(clientID, token), nil
}

func (t *txStore) SaveTransaction(_ context.Context, tx *domain.Transaction) error {
	return t.s.saveTransaction(tx)
}

// Unsynchronized internals. Callers hold s.mu.

func (s *Store) findClientByDocumentAndPhone(document, phone string) (*domain.Client, error) {
	for _, c := range s.clients {
		if c.Document == document && c.Phone == phone {
			cp := *c
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "client", Key: document}
}

func (s *Store) findClientByID(id int64) (*domain.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", Key: fmt.Sprintf("%d", id)}
	}
	cp := *c
	return &cp, nil
}

func (s *Store) clientExists(document, email, phone string) bool {
	for _, c := range s.clients {
		if c.Document == document || c.Email == email || c.Phone == phone {
			return true
		}
	}
	return false
}

func (s *Store) saveClient(client *domain.Client) error {
	if client.ID == 0 {
		if s.clientExists(client.Document, client.Email, client.Phone) {
			return &domain.ErrConflict{
				Message: "a client already exists with the given document, email or phone",
			}
		}
		client.ID = s.nextClientID
		s.nextClientID++
	}
	cp := *client
	s.clients[client.ID] = &cp
	return nil
}

func (s *Store) findPendingPayment(sessionID, token string) (*domain.Transaction, error) {
	for _, tx := range s.transactions {
		if tx.SessionID == sessionID && tx.Token == token && tx.Status == domain.TransactionStatusPending {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", Key: sessionID}
}

func (s *Store) pendingTokenExists(clientID int64, token string) bool {
	for _, tx := range s.transactions {
		if tx.ClientID == clientID && tx.Token == token && tx.Status == domain.TransactionStatusPending {
			return true
		}
	}
	return false
}

func (s *Store) saveTransaction(tx *domain.Transaction) error {
	if tx.ID == 0 {
		tx.ID = s.nextTxID
		s.nextTxID++
	}
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

func cloneClients(in map[int64]*domain.Client) map[int64]*domain.Client {
	out := make(map[int64]*domain.Client, len(in))
	for id, c := range in {
		cp := *c
		out[id] = &cp
	}
	return out
}

func cloneTransactions(in map[int64]*domain.Transaction) map[int64]*domain.Transaction {
	out := make(map[int64]*domain.Transaction, len(in))
	for id, tx := range in {
		cp := *tx
		out[id] = &cp
	}
	return out
}
