package wallet

import (
	"github.com/shopspring/decimal"
)

// Result is the uniform envelope every wallet operation returns.
// Code is a domain status (200/201/400/404/409/500) independent of the
// transport carrying it; callers must key off Success and Code only,
// never parse Message.
type Result struct {
	Success bool   `json:"success" xml:"success"`
	Code    int    `json:"code" xml:"code"`
	Message string `json:"message" xml:"message"`
	Data    any    `json:"data,omitempty" xml:"data,omitempty"`
}

// RegisterData is the payload of a successful registration.
type RegisterData struct {
	ClientID int64 `json:"client_id" xml:"clientId"`
}

// RechargeData is the payload of a successful recharge.
type RechargeData struct {
	NewBalance    decimal.Decimal `json:"new_balance" xml:"newBalance"`
	TransactionID int64           `json:"transaction_id" xml:"transactionId"`
}

// StartPaymentData is the payload of a successfully started payment.
// Token is present only when the engine is configured to echo it.
type StartPaymentData struct {
	SessionID string `json:"session_id" xml:"sessionId"`
	Token     string `json:"token,omitempty" xml:"token,omitempty"`
}

// ConfirmPaymentData is the payload of a successfully confirmed payment.
type ConfirmPaymentData struct {
	TransactionID int64           `json:"transaction_id" xml:"transactionId"`
	NewBalance    decimal.Decimal `json:"new_balance" xml:"newBalance"`
}

// BalanceData is the client snapshot returned by getBalance.
type BalanceData struct {
	ClientID int64           `json:"client_id" xml:"clientId"`
	Document string          `json:"document" xml:"document"`
	Name     string          `json:"name" xml:"name"`
	Balance  decimal.Decimal `json:"balance" xml:"balance"`
}
