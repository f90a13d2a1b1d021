// Package gateway is the REST front for the wallet engine: JSON in,
// envelope over the wire to walletd, JSON out. It validates argument
// presence so malformed requests never leave the edge, and maps the
// envelope's domain code onto the HTTP status.
package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/observability"
)

// NewRouter creates the gateway's HTTP router.
func NewRouter(client *WalletClient, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/clients", registerClientHandler(client, logger))
		r.Post("/wallets/recharge", rechargeWalletHandler(client, logger))
		r.Post("/payments/start", startPaymentHandler(client, logger))
		r.Post("/payments/confirm", confirmPaymentHandler(client, logger))
		r.Get("/wallets/balance", getBalanceHandler(client, logger))
	})

	return r
}
