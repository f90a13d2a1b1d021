// Package envelope implements the XML wire envelope carried between the
// gateway and the wallet engine. The operation is an explicit
// discriminator attribute; it is never inferred from which fields happen
// to be present. Decoding yields a closed set of typed requests, so the
// engine only ever sees strongly-typed records.
package envelope

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/ncastano/virtual-wallet/internal/usecase/wallet"
)

// Operation names the wallet operations carried on the wire.
type Operation string

const (
	OpRegisterClient Operation = "registerClient"
	OpRechargeWallet Operation = "rechargeWallet"
	OpStartPayment   Operation = "startPayment"
	OpConfirmPayment Operation = "confirmPayment"
	OpGetBalance     Operation = "getBalance"
)

// RegisterClientRequest carries a registration.
type RegisterClientRequest struct {
	Document string
	Name     string
	Email    string
	Phone    string
}

// RechargeWalletRequest carries a recharge.
type RechargeWalletRequest struct {
	Document string
	Phone    string
	Amount   decimal.Decimal
}

// StartPaymentRequest carries a payment start.
type StartPaymentRequest struct {
	Document string
	Phone    string
	Amount   decimal.Decimal
}

// ConfirmPaymentRequest carries a payment confirmation.
type ConfirmPaymentRequest struct {
	SessionID string
	Token     string
}

// GetBalanceRequest carries a balance query.
type GetBalanceRequest struct {
	Document string
	Phone    string
}

// Request is the closed set of wallet operations. Exactly one payload
// field is non-nil, matching Op.
type Request struct {
	Op       Operation
	Register *RegisterClientRequest
	Recharge *RechargeWalletRequest
	Start    *StartPaymentRequest
	Confirm  *ConfirmPaymentRequest
	Balance  *GetBalanceRequest
}

// rawRequest is the wire shape of a request envelope.
type rawRequest struct {
	Operation string `xml:"operation,attr"`
	Document  string `xml:"document,omitempty"`
	Name      string `xml:"name,omitempty"`
	Email     string `xml:"email,omitempty"`
	Phone     string `xml:"phone,omitempty"`
	Amount    string `xml:"amount,omitempty"`
	SessionID string `xml:"sessionId,omitempty"`
	Token     string `xml:"token,omitempty"`
}

type requestEnvelope struct {
	XMLName xml.Name   `xml:"walletEnvelope"`
	Request rawRequest `xml:"request"`
}

// DecodeRequest reads a request envelope and returns its typed variant.
// A missing or unknown operation discriminator, malformed XML, or a
// malformed amount all fail decoding; nothing is guessed.
func DecodeRequest(r io.Reader) (*Request, error) {
	var env requestEnvelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	raw := env.Request
	switch Operation(raw.Operation) {
	case OpRegisterClient:
		return &Request{Op: OpRegisterClient, Register: &RegisterClientRequest{
			Document: raw.Document,
			Name:     raw.Name,
			Email:    raw.Email,
			Phone:    raw.Phone,
		}}, nil

	case OpRechargeWallet:
		amount, err := parseAmount(raw.Amount)
		if err != nil {
			return nil, err
		}
		return &Request{Op: OpRechargeWallet, Recharge: &RechargeWalletRequest{
			Document: raw.Document,
			Phone:    raw.Phone,
			Amount:   amount,
		}}, nil

	case OpStartPayment:
		amount, err := parseAmount(raw.Amount)
		if err != nil {
			return nil, err
		}
		return &Request{Op: OpStartPayment, Start: &StartPaymentRequest{
			Document: raw.Document,
			Phone:    raw.Phone,
			Amount:   amount,
		}}, nil

	case OpConfirmPayment:
		return &Request{Op: OpConfirmPayment, Confirm: &ConfirmPaymentRequest{
			SessionID: raw.SessionID,
			Token:     raw.Token,
		}}, nil

	case OpGetBalance:
		return &Request{Op: OpGetBalance, Balance: &GetBalanceRequest{
			Document: raw.Document,
			Phone:    raw.Phone,
		}}, nil

	case "":
		return nil, fmt.Errorf("missing operation discriminator")

	default:
		return nil, fmt.Errorf("unknown operation %q", raw.Operation)
	}
}

// parseAmount converts the wire amount. An absent amount decodes to
// zero and is rejected by the engine's own validation.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed amount %q", s)
	}
	return amount, nil
}

// EncodeRequest renders a typed request as a wire envelope.
func EncodeRequest(req *Request) ([]byte, error) {
	raw := rawRequest{Operation: string(req.Op)}

	switch req.Op {
	case OpRegisterClient:
		raw.Document = req.Register.Document
		raw.Name = req.Register.Name
		raw.Email = req.Register.Email
		raw.Phone = req.Register.Phone
	case OpRechargeWallet:
		raw.Document = req.Recharge.Document
		raw.Phone = req.Recharge.Phone
		raw.Amount = req.Recharge.Amount.String()
	case OpStartPayment:
		raw.Document = req.Start.Document
		raw.Phone = req.Start.Phone
		raw.Amount = req.Start.Amount.String()
	case OpConfirmPayment:
		raw.SessionID = req.Confirm.SessionID
		raw.Token = req.Confirm.Token
	case OpGetBalance:
		raw.Document = req.Balance.Document
		raw.Phone = req.Balance.Phone
	default:
		return nil, fmt.Errorf("unknown operation %q", req.Op)
	}

	body, err := xml.MarshalIndent(requestEnvelope{Request: raw}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode request envelope: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// responseEnvelope is the wire shape of a response. Data holds the
// operation-specific payload struct from the wallet façade.
type responseEnvelope struct {
	XMLName  xml.Name     `xml:"walletEnvelope"`
	Response responseBody `xml:"response"`
}

type responseBody struct {
	Operation string `xml:"operation,attr"`
	Success   bool   `xml:"success"`
	Code      int    `xml:"code"`
	Message   string `xml:"message"`
	Data      any    `xml:"data,omitempty"`
}

// EncodeResponse renders a wallet result as a wire envelope.
func EncodeResponse(op Operation, res wallet.Result) ([]byte, error) {
	env := responseEnvelope{Response: responseBody{
		Operation: string(op),
		Success:   res.Success,
		Code:      res.Code,
		Message:   res.Message,
		Data:      res.Data,
	}}

	body, err := xml.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode response envelope: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// ResponseData is the union of the payload fields a response can carry.
// Pointer fields distinguish absent values from zero values when the
// gateway re-serializes the envelope as JSON.
type ResponseData struct {
	ClientID      int64            `xml:"clientId" json:"client_id,omitempty"`
	Document      string           `xml:"document" json:"document,omitempty"`
	Name          string           `xml:"name" json:"name,omitempty"`
	Balance       *decimal.Decimal `xml:"balance" json:"balance,omitempty"`
	NewBalance    *decimal.Decimal `xml:"newBalance" json:"new_balance,omitempty"`
	TransactionID int64            `xml:"transactionId" json:"transaction_id,omitempty"`
	SessionID     string           `xml:"sessionId" json:"session_id,omitempty"`
	Token         string           `xml:"token" json:"token,omitempty"`
}

// Response is a decoded response envelope.
type Response struct {
	Operation string
	Success   bool
	Code      int
	Message   string
	Data      *ResponseData
}

type rawResponseEnvelope struct {
	XMLName  xml.Name        `xml:"walletEnvelope"`
	Response rawResponseBody `xml:"response"`
}

type rawResponseBody struct {
	Operation string        `xml:"operation,attr"`
	Success   bool          `xml:"success"`
	Code      int           `xml:"code"`
	Message   string        `xml:"message"`
	Data      *ResponseData `xml:"data"`
}

// DecodeResponse reads a response envelope.
func DecodeResponse(r io.Reader) (*Response, error) {
	var env rawResponseEnvelope
	if err := xml.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("malformed response envelope: %w", err)
	}
	return &Response{
		Operation: env.Response.Operation,
		Success:   env.Response.Success,
		Code:      env.Response.Code,
		Message:   env.Response.Message,
		Data:      env.Response.Data,
	}, nil
}
