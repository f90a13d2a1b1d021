package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/envelope"
)

// response is the JSON rendering of the wallet envelope.
type response struct {
	Success bool                   `json:"success"`
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    *envelope.ResponseData `json:"data,omitempty"`
}

type registerClientRequest struct {
	Document string `json:"document"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type rechargeWalletRequest struct {
	Document string          `json:"document"`
	Phone    string          `json:"phone"`
	Amount   decimal.Decimal `json:"amount"`
}

type startPaymentRequest struct {
	Document string          `json:"document"`
	Phone    string          `json:"phone"`
	Amount   decimal.Decimal `json:"amount"`
}

type confirmPaymentRequest struct {
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

func registerClientHandler(client *WalletClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerClientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "invalid JSON body")
			return
		}
		if req.Document == "" || req.Name == "" || req.Email == "" || req.Phone == "" {
			writeValidationError(w, "document, name, email and phone are required")
			return
		}

		forward(w, r, client, logger, &envelope.Request{
			Op: envelope.OpRegisterClient,
			Register: &envelope.RegisterClientRequest{
				Document: req.Document,
				Name:     req.Name,
				Email:    req.Email,
				Phone:    req.Phone,
			},
		})
	}
}

func rechargeWalletHandler(client *WalletClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rechargeWalletRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "invalid JSON body")
			return
		}
		if req.Document == "" || req.Phone == "" {
			writeValidationError(w, "document and phone are required")
			return
		}
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			writeValidationError(w, "amount must be greater than zero")
			return
		}

		forward(w, r, client, logger, &envelope.Request{
			Op: envelope.OpRechargeWallet,
			Recharge: &envelope.RechargeWalletRequest{
				Document: req.Document,
				Phone:    req.Phone,
				Amount:   req.Amount,
			},
		})
	}
}

func startPaymentHandler(client *WalletClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "invalid JSON body")
			return
		}
		if req.Document == "" || req.Phone == "" {
			writeValidationError(w, "document and phone are required")
			return
		}
		if req.Amount.LessThanOrEqual(decimal.Zero) {
			writeValidationError(w, "amount must be greater than zero")
			return
		}

		forward(w, r, client, logger, &envelope.Request{
			Op: envelope.OpStartPayment,
			Start: &envelope.StartPaymentRequest{
				Document: req.Document,
				Phone:    req.Phone,
				Amount:   req.Amount,
			},
		})
	}
}

func confirmPaymentHandler(client *WalletClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req confirmPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeValidationError(w, "invalid JSON body")
			return
		}
		if req.SessionID == "" || req.Token == "" {
			writeValidationError(w, "session_id and token are required")
			return
		}

		forward(w, r, client, logger, &envelope.Request{
			Op: envelope.OpConfirmPayment,
			Confirm: &envelope.ConfirmPaymentRequest{
				SessionID: req.SessionID,
				Token:     req.Token,
			},
		})
	}
}

func getBalanceHandler(client *WalletClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		document := r.URL.Query().Get("document")
		phone := r.URL.Query().Get("phone")
		if document == "" || phone == "" {
			writeValidationError(w, "document and phone query parameters are required")
			return
		}

		forward(w, r, client, logger, &envelope.Request{
			Op: envelope.OpGetBalance,
			Balance: &envelope.GetBalanceRequest{
				Document: document,
				Phone:    phone,
			},
		})
	}
}

// forward sends the envelope to the wallet engine and writes its result
// back as JSON, using the envelope code as the HTTP status.
func forward(w http.ResponseWriter, r *http.Request, client *WalletClient, logger *zap.Logger, req *envelope.Request) {
	resp, err := client.Call(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		message := "wallet service unavailable"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			status = http.StatusServiceUnavailable
		}
		logger.Error("wallet engine call failed",
			zap.String("operation", string(req.Op)),
			zap.Error(err),
		)
		writeJSON(w, status, response{Success: false, Code: status, Message: message})
		return
	}

	writeJSON(w, resp.Code, response{
		Success: resp.Success,
		Code:    resp.Code,
		Message: resp.Message,
		Data:    resp.Data,
	})
}

func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, response{Success: false, Code: 400, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
