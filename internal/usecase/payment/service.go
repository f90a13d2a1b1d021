// Package payment manages the two-step payment flow: start issues a
// session id and a confirmation token against a pending transaction;
// confirm resolves the pair and delegates the debit to the ledger.
package payment

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/domain"
	"github.com/ncastano/virtual-wallet/internal/notifier"
	"github.com/ncastano/virtual-wallet/internal/usecase/ledger"
)

const (
	tokenMin = 100000
	tokenMax = 999999

	// Collision odds among one client's pending payments are tiny;
	// after this many regenerations the last candidate is accepted.
	tokenAttempts = 5
)

// Service manages payment sessions and their confirmation.
type Service struct {
	store    domain.Store
	ledger   *ledger.Service
	notifier notifier.Notifier
	logger   *zap.Logger

	// tokenFn generates a candidate confirmation token. Swappable in
	// tests; defaults to a uniform 6-digit code.
	tokenFn func() string
}

// NewService creates a new payment Service instance.
func NewService(store domain.Store, ledgerSvc *ledger.Service, n notifier.Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		ledger:   ledgerSvc,
		notifier: n,
		logger:   logger,
		tokenFn:  randomToken,
	}
}

// randomToken draws a token uniformly from the 6-digit range.
// Unpredictability is not a requirement of this flow.
func randomToken() string {
	return strconv.Itoa(tokenMin + rand.Intn(tokenMax-tokenMin+1))
}

// StartResult is the outcome of a started payment.
type StartResult struct {
	SessionID string
	Token     string
}

// Start begins a payment: it checks the client can currently cover the
// amount (a fail-fast courtesy — the balance is re-checked at confirm
// time), creates a pending transaction carrying a fresh session id and
// token, and hands the token to the notifier for out-of-band delivery.
func (s *Service) Start(ctx context.Context, document, phone string, amount decimal.Decimal) (*StartResult, error) {
	if document == "" {
		return nil, &domain.ErrValidation{Field: "document", Message: "is required"}
	}
	if phone == "" {
		return nil, &domain.ErrValidation{Field: "phone", Message: "is required"}
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be greater than zero"}
	}

	client, err := s.store.FindClientByDocumentAndPhone(ctx, document, phone)
	if err != nil {
		return nil, err
	}

	if !client.CanPay(amount) {
		return nil, &domain.ErrInsufficientFunds{Available: client.Balance, Required: amount}
	}

	token, err := s.freshToken(ctx, client.ID)
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()

	pending := domain.NewPendingPayment(client.ID, amount, sessionID, token)
	if err := s.store.SaveTransaction(ctx, pending); err != nil {
		return nil, err
	}

	s.deliverToken(client.Email, sessionID, token)

	s.logger.Info("payment started",
		zap.Int64("client_id", client.ID),
		zap.String("session_id", sessionID),
		zap.String("amount", amount.String()),
	)
	return &StartResult{SessionID: sessionID, Token: token}, nil
}

// freshToken generates a token that no pending payment of the client is
// currently using, regenerating on collision.
func (s *Service) freshToken(ctx context.Context, clientID int64) (string, error) {
	var token string
	for i := 0; i < tokenAttempts; i++ {
		token = s.tokenFn()
		exists, err := s.store.PendingTokenExists(ctx, clientID, token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}
	return token, nil
}

// deliverToken hands the token to the notifier without blocking the
// payment flow. Delivery failures are logged, never surfaced.
func (s *Service) deliverToken(email, sessionID, token string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.notifier.NotifyToken(ctx, email, sessionID, token); err != nil {
			s.logger.Warn("token delivery failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}()
}

// Confirm resolves a started payment by its (session, token) pair and
// debits the client. Wrong token, wrong session, already processed and
// never existed are indistinguishable: all surface as ErrNotFound.
func (s *Service) Confirm(ctx context.Context, sessionID, token string) (*ledger.DebitResult, error) {
	if sessionID == "" {
		return nil, &domain.ErrValidation{Field: "session_id", Message: "is required"}
	}
	if token == "" {
		return nil, &domain.ErrValidation{Field: "token", Message: "is required"}
	}

	return s.ledger.Debit(ctx, sessionID, token)
}
