package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/envelope"
	"github.com/ncastano/virtual-wallet/internal/resilience"
	"github.com/ncastano/virtual-wallet/internal/usecase/wallet"
)

// fakeEngine answers envelope requests with canned wallet results.
func fakeEngine(t *testing.T, results map[envelope.Operation]wallet.Result) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := envelope.DecodeRequest(r.Body)
		require.NoError(t, err)

		res, ok := results[req.Op]
		require.True(t, ok, "unexpected operation %s", req.Op)

		body, err := envelope.EncodeResponse(req.Op, res)
		require.NoError(t, err)
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T, engineURL string) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	client := NewWalletClient(
		&http.Client{Timeout: 2 * time.Second},
		engineURL,
		resilience.NewCircuitBreaker(t.Name()),
		resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond},
		logger,
	)
	return NewRouter(client, logger)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestRegisterClient_ForwardsAndMapsStatus(t *testing.T) {
	engine := fakeEngine(t, map[envelope.Operation]wallet.Result{
		envelope.OpRegisterClient: {
			Success: true,
			Code:    201,
			Message: "client registered",
			Data:    wallet.RegisterData{ClientID: 7},
		},
	})
	gw := newGateway(t, engine.URL)

	rec, resp := doJSON(t, gw, http.MethodPost, "/api/clients",
		`{"document":"12345678","name":"Ada Lovelace","email":"ada@example.com","phone":"3001112233"}`)

	assert.Equal(t, 201, rec.Code, "HTTP status mirrors the envelope code")
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, int64(7), resp.Data.ClientID)
}

func TestRegisterClient_MissingFieldRejectedLocally(t *testing.T) {
	// No engine behind the gateway: validation never leaves the process.
	gw := newGateway(t, "http://127.0.0.1:0")

	rec, resp := doJSON(t, gw, http.MethodPost, "/api/clients",
		`{"document":"12345678","name":"Ada Lovelace"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestRecharge_InvalidAmountRejectedLocally(t *testing.T) {
	gw := newGateway(t, "http://127.0.0.1:0")

	rec, _ := doJSON(t, gw, http.MethodPost, "/api/wallets/recharge",
		`{"document":"12345678","phone":"3001112233","amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecharge_AcceptsQuotedAndBareAmounts(t *testing.T) {
	engine := fakeEngine(t, map[envelope.Operation]wallet.Result{
		envelope.OpRechargeWallet: {Success: true, Code: 200, Message: "wallet recharged"},
	})
	gw := newGateway(t, engine.URL)

	rec, _ := doJSON(t, gw, http.MethodPost, "/api/wallets/recharge",
		`{"document":"12345678","phone":"3001112233","amount":"50.25"}`)
	assert.Equal(t, 200, rec.Code)

	rec, _ = doJSON(t, gw, http.MethodPost, "/api/wallets/recharge",
		`{"document":"12345678","phone":"3001112233","amount":50.25}`)
	assert.Equal(t, 200, rec.Code)
}

func TestConfirmPayment_DomainFailureKeepsEnvelopeCode(t *testing.T) {
	engine := fakeEngine(t, map[envelope.Operation]wallet.Result{
		envelope.OpConfirmPayment: {
			Success: false,
			Code:    404,
			Message: "transaction not found or already processed",
		},
	})
	gw := newGateway(t, engine.URL)

	rec, resp := doJSON(t, gw, http.MethodPost, "/api/payments/confirm",
		`{"session_id":"7f2c9a4e","token":"482913"}`)

	assert.Equal(t, 404, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "transaction not found or already processed", resp.Message)
}

func TestGetBalance_QueryParams(t *testing.T) {
	engine := fakeEngine(t, map[envelope.Operation]wallet.Result{
		envelope.OpGetBalance: {
			Success: true,
			Code:    200,
			Message: "balance retrieved",
			Data: wallet.BalanceData{
				ClientID: 7,
				Document: "12345678",
				Name:     "Ada Lovelace",
			},
		},
	})
	gw := newGateway(t, engine.URL)

	rec, resp := doJSON(t, gw, http.MethodGet, "/api/wallets/balance?document=12345678&phone=3001112233", "")
	assert.Equal(t, 200, rec.Code)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "12345678", resp.Data.Document)
}

func TestGetBalance_MissingParams(t *testing.T) {
	gw := newGateway(t, "http://127.0.0.1:0")

	rec, _ := doJSON(t, gw, http.MethodGet, "/api/wallets/balance", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEngineUnreachable_BadGateway(t *testing.T) {
	gw := newGateway(t, "http://127.0.0.1:1")

	rec, resp := doJSON(t, gw, http.MethodPost, "/api/payments/confirm",
		`{"session_id":"7f2c9a4e","token":"482913"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "wallet service unavailable", resp.Message)
}
