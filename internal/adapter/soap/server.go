// Package soap exposes the wallet engine over HTTP: a single envelope
// endpoint plus the operational surface (health, metrics, descriptor).
package soap

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/envelope"
	"github.com/ncastano/virtual-wallet/internal/observability"
	"github.com/ncastano/virtual-wallet/internal/usecase/wallet"
)

// NewRouter creates the wallet engine's HTTP router.
func NewRouter(svc *wallet.Service, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
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
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/soap/wallet", descriptorHandler)
	r.Post("/soap/wallet", envelopeHandler(svc, logger))

	return r
}

// envelopeHandler decodes the request envelope, dispatches the typed
// operation to the façade and writes the result envelope back. Like the
// SOAP endpoints it replaces, the HTTP status is always 200; the domain
// code travels inside the envelope.
func envelopeHandler(svc *wallet.Service, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := envelope.DecodeRequest(r.Body)
		if err != nil {
			logger.Warn("rejected request envelope", zap.Error(err))
			writeEnvelope(w, "unknown", wallet.Result{
				Success: false,
				Code:    400,
				Message: "invalid request envelope",
			}, logger)
			return
		}

		ctx := r.Context()
		var res wallet.Result
		switch req.Op {
		case envelope.OpRegisterClient:
			res = svc.RegisterClient(ctx, req.Register.Document, req.Register.Name, req.Register.Email, req.Register.Phone)
		case envelope.OpRechargeWallet:
			res = svc.RechargeWallet(ctx, req.Recharge.Document, req.Recharge.Phone, req.Recharge.Amount)
		case envelope.OpStartPayment:
			res = svc.StartPayment(ctx, req.Start.Document, req.Start.Phone, req.Start.Amount)
		case envelope.OpConfirmPayment:
			res = svc.ConfirmPayment(ctx, req.Confirm.SessionID, req.Confirm.Token)
		case envelope.OpGetBalance:
			res = svc.GetBalance(ctx, req.Balance.Document, req.Balance.Phone)
		}

		writeEnvelope(w, req.Op, res, logger)
	}
}

func writeEnvelope(w http.ResponseWriter, op envelope.Operation, res wallet.Result, logger *zap.Logger) {
	body, err := envelope.EncodeResponse(op, res)
	if err != nil {
		logger.Error("failed to encode response envelope", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// descriptorHandler serves a minimal static service descriptor.
func descriptorHandler(w http.ResponseWriter, _ *http.Request) {
	const descriptor = `<?xml version="1.0" encoding="UTF-8"?>
<service name="WalletService">
  <endpoint path="/soap/wallet" method="POST" contentType="text/xml"/>
  <operations>
    <operation name="registerClient"/>
    <operation name="rechargeWallet"/>
    <operation name="startPayment"/>
    <operation name="confirmPayment"/>
    <operation name="getBalance"/>
  </operations>
</service>`

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(descriptor))
}
