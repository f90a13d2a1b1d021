package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/repository/postgres"
	"github.com/ncastano/virtual-wallet/internal/adapter/soap"
	"github.com/ncastano/virtual-wallet/internal/config"
	"github.com/ncastano/virtual-wallet/internal/notifier"
	"github.com/ncastano/virtual-wallet/internal/observability"
	"github.com/ncastano/virtual-wallet/internal/usecase/ledger"
	"github.com/ncastano/virtual-wallet/internal/usecase/payment"
	"github.com/ncastano/virtual-wallet/internal/usecase/registry"
	"github.com/ncastano/virtual-wallet/internal/usecase/wallet"
)

func main() {
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	// 1. Setup Database
	db, err := postgres.NewDB(cfg.DBConnStr)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to apply database schema", zap.Error(err))
	}

	store := postgres.NewStore(db)

	// 2. Token delivery
	var tokenNotifier notifier.Notifier
	if cfg.TokenWebhookURL != "" {
		tokenNotifier = notifier.NewWebhookNotifier(cfg.TokenWebhookURL, logger)
	} else {
		tokenNotifier = notifier.NewLogNotifier(logger)
	}

	// 3. Initialize Services (Use Cases)
	registrySvc := registry.NewService(store, logger)
	ledgerSvc := ledger.NewService(store, logger)
	paymentSvc := payment.NewService(store, ledgerSvc, tokenNotifier, logger)

	metrics := observability.NewMetrics()
	walletSvc := wallet.New(registrySvc, ledgerSvc, paymentSvc, store, metrics, logger, cfg.ReturnTokenInResponse)

	// 4. Start HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.WalletPort),
		Handler:      soap.NewRouter(walletSvc, metrics, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("wallet engine listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	waitForShutdown(srv, logger)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server.
func waitForShutdown(srv *http.Server, logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("wallet engine stopped")
}
