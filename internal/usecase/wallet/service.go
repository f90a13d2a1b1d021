// Package wallet is the engine façade: it exposes the five wallet
// operations under one surface and maps every outcome — success or
// failure — to the uniform result envelope.
package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/domain"
	"github.com/ncastano/virtual-wallet/internal/observability"
	"github.com/ncastano/virtual-wallet/internal/usecase/ledger"
	"github.com/ncastano/virtual-wallet/internal/usecase/payment"
	"github.com/ncastano/virtual-wallet/internal/usecase/registry"
)

// Service orchestrates the wallet operations.
type Service struct {
	registry *registry.Service
	ledger   *ledger.Service
	payment  *payment.Service
	store    domain.Store
	metrics  *observability.Metrics
	logger   *zap.Logger

	// returnToken echoes the confirmation token in the start-payment
	// response. Development shortcut, off in production.
	returnToken bool
}

// New creates the wallet façade.
func New(
	registrySvc *registry.Service,
	ledgerSvc *ledger.Service,
	paymentSvc *payment.Service,
	store domain.Store,
	metrics *observability.Metrics,
	logger *zap.Logger,
	returnToken bool,
) *Service {
	return &Service{
		registry:    registrySvc,
		ledger:      ledgerSvc,
		payment:     paymentSvc,
		store:       store,
		metrics:     metrics,
		logger:      logger,
		returnToken: returnToken,
	}
}

// RegisterClient registers a new client with a zero balance.
func (s *Service) RegisterClient(ctx context.Context, document, name, email, phone string) Result {
	op := "registerClient"
	start := time.Now()

	client, err := s.registry.Register(ctx, registry.RegisterInput{
		Document: document,
		Name:     name,
		Email:    email,
		Phone:    phone,
	})
	if err != nil {
		return s.failure(op, start, err)
	}

	return s.success(op, start, 201, "client registered", RegisterData{ClientID: client.ID})
}

// RechargeWallet credits amount to the client's balance.
func (s *Service) RechargeWallet(ctx context.Context, document, phone string, amount decimal.Decimal) Result {
	op := "rechargeWallet"
	start := time.Now()

	res, err := s.ledger.Recharge(ctx, document, phone, amount)
	if err != nil {
		return s.failure(op, start, err)
	}

	return s.success(op, start, 200, "wallet recharged", RechargeData{
		NewBalance:    res.NewBalance,
		TransactionID: res.TransactionID,
	})
}

// StartPayment begins a payment and issues the confirmation pair.
func (s *Service) StartPayment(ctx context.Context, document, phone string, amount decimal.Decimal) Result {
	op := "startPayment"
	start := time.Now()

	res, err := s.payment.Start(ctx, document, phone, amount)
	if err != nil {
		return s.failure(op, start, err)
	}

	data := StartPaymentData{SessionID: res.SessionID}
	if s.returnToken {
		data.Token = res.Token
	}
	return s.success(op, start, 200, "a confirmation token has been sent to the registered email", data)
}

// ConfirmPayment settles a started payment by its session and token.
func (s *Service) ConfirmPayment(ctx context.Context, sessionID, token string) Result {
	op := "confirmPayment"
	start := time.Now()

	res, err := s.payment.Confirm(ctx, sessionID, token)
	if err != nil {
		result := s.failure(op, start, err)
		// Wrong session, wrong token and already settled are deliberately
		// indistinguishable to the caller.
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			result.Message = "transaction not found or already processed"
		}
		return result
	}

	return s.success(op, start, 200, "payment confirmed", ConfirmPaymentData{
		TransactionID: res.TransactionID,
		NewBalance:    res.NewBalance,
	})
}

// GetBalance returns the client snapshot for (document, phone).
// Pure read: no transaction history, no side effects.
func (s *Service) GetBalance(ctx context.Context, document, phone string) Result {
	op := "getBalance"
	start := time.Now()

	if document == "" {
		return s.failure(op, start, &domain.ErrValidation{Field: "document", Message: "is required"})
	}
	if phone == "" {
		return s.failure(op, start, &domain.ErrValidation{Field: "phone", Message: "is required"})
	}

	client, err := s.store.FindClientByDocumentAndPhone(ctx, document, phone)
	if err != nil {
		return s.failure(op, start, err)
	}

	return s.success(op, start, 200, "balance retrieved", BalanceData{
		ClientID: client.ID,
		Document: client.Document,
		Name:     client.Name,
		Balance:  client.Balance,
	})
}

func (s *Service) success(op string, start time.Time, code int, message string, data any) Result {
	s.metrics.ObserveOperation(op, code, time.Since(start))
	return Result{Success: true, Code: code, Message: message, Data: data}
}

// failure maps a business error to its envelope code. Anything outside
// the taxonomy is an internal error: logged with the cause, surfaced
// with a generic message only.
func (s *Service) failure(op string, start time.Time, err error) Result {
	var (
		validation   *domain.ErrValidation
		notFound     *domain.ErrNotFound
		conflict     *domain.ErrConflict
		insufficient *domain.ErrInsufficientFunds
	)

	var code int
	var message string
	switch {
	case errors.As(err, &validation):
		code, message = 400, err.Error()
	case errors.As(err, &insufficient):
		code, message = 400, "insufficient funds to complete the payment"
	case errors.As(err, &notFound):
		code, message = 404, err.Error()
	case errors.As(err, &conflict):
		code, message = 409, err.Error()
	default:
		code, message = 500, "unable to process the request"
		s.logger.Error("wallet operation failed",
			zap.String("operation", op),
			zap.Error(err),
		)
	}

	s.metrics.ObserveOperation(op, code, time.Since(start))
	return Result{Success: false, Code: code, Message: message}
}
