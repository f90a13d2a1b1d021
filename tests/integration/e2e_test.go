//go:build integration

// End-to-end flow against a real Postgres instance. Run with:
//
//	DB_CONN_STR="host=localhost user=postgres password=postgres dbname=wallet_test sslmode=disable" \
//	  go test -tags=integration ./tests/integration/
package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/envelope"
	"github.com/ncastano/virtual-wallet/internal/adapter/repository/postgres"
	"github.com/ncastano/virtual-wallet/internal/adapter/soap"
	"github.com/ncastano/virtual-wallet/internal/domain"
	"github.com/ncastano/virtual-wallet/internal/notifier"
	"github.com/ncastano/virtual-wallet/internal/observability"
	"github.com/ncastano/virtual-wallet/internal/usecase/ledger"
	"github.com/ncastano/virtual-wallet/internal/usecase/payment"
	"github.com/ncastano/virtual-wallet/internal/usecase/registry"
	"github.com/ncastano/virtual-wallet/internal/usecase/wallet"
)

var store domain.Store

func TestMain(m *testing.M) {
	connStr := os.Getenv("DB_CONN_STR")
	if connStr == "" {
		fmt.Println("DB_CONN_STR not set; skipping integration tests")
		os.Exit(0)
	}

	db, err := postgres.NewDB(connStr)
	if err != nil {
		fmt.Printf("failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		fmt.Printf("failed to apply schema: %v\n", err)
		os.Exit(1)
	}

	store = postgres.NewStore(db)
	os.Exit(m.Run())
}

func newEngine(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop()

	registrySvc := registry.NewService(store, logger)
	ledgerSvc := ledger.NewService(store, logger)
	paymentSvc := payment.NewService(store, ledgerSvc, notifier.NewLogNotifier(logger), logger)
	metrics := observability.NewMetrics()
	svc := wallet.New(registrySvc, ledgerSvc, paymentSvc, store, metrics, logger, true)

	srv := httptest.NewServer(soap.NewRouter(svc, metrics, logger))
	t.Cleanup(srv.Close)
	return srv
}

// uniqueSuffix keeps repeated runs from tripping the unique constraints.
func uniqueSuffix() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func post(t *testing.T, srv *httptest.Server, op string, fields map[string]string) *envelope.Response {
	t.Helper()
	var sb strings.Builder
	fmt.Fprintf(&sb, `<walletEnvelope><request operation=%q>`, op)
	for k, v := range fields {
		fmt.Fprintf(&sb, "<%s>%s</%s>", k, v, k)
	}
	sb.WriteString(`</request></walletEnvelope>`)

	httpResp, err := http.Post(srv.URL+"/soap/wallet", "text/xml", strings.NewReader(sb.String()))
	require.NoError(t, err)
	defer httpResp.Body.Close()
	require.Equal(t, http.StatusOK, httpResp.StatusCode)

	resp, err := envelope.DecodeResponse(httpResp.Body)
	require.NoError(t, err)
	return resp
}

func TestFullFlowAgainstPostgres(t *testing.T) {
	srv := newEngine(t)
	suffix := uniqueSuffix()
	document := "doc-" + suffix
	phone := "300" + suffix
	email := fmt.Sprintf("client-%s@example.com", suffix)

	resp := post(t, srv, "registerClient", map[string]string{
		"document": document,
		"name":     "Integration Client",
		"email":    email,
		"phone":    phone,
	})
	require.True(t, resp.Success, resp.Message)
	require.Equal(t, 201, resp.Code)

	resp = post(t, srv, "rechargeWallet", map[string]string{
		"document": document,
		"phone":    phone,
		"amount":   "100.50",
	})
	require.True(t, resp.Success, resp.Message)
	require.NotNil(t, resp.Data.NewBalance)
	assert.True(t, resp.Data.NewBalance.Equal(decimal.RequireFromString("100.50")))

	resp = post(t, srv, "startPayment", map[string]string{
		"document": document,
		"phone":    phone,
		"amount":   "30.25",
	})
	require.True(t, resp.Success, resp.Message)
	sessionID, token := resp.Data.SessionID, resp.Data.Token
	require.NotEmpty(t, sessionID)
	require.Len(t, token, 6)

	resp = post(t, srv, "confirmPayment", map[string]string{
		"sessionId": sessionID,
		"token":     token,
	})
	require.True(t, resp.Success, resp.Message)
	require.NotNil(t, resp.Data.NewBalance)
	assert.True(t, resp.Data.NewBalance.Equal(decimal.RequireFromString("70.25")))

	// Replay is rejected and the balance holds.
	resp = post(t, srv, "confirmPayment", map[string]string{
		"sessionId": sessionID,
		"token":     token,
	})
	assert.False(t, resp.Success)
	assert.Equal(t, 404, resp.Code)

	resp = post(t, srv, "getBalance", map[string]string{
		"document": document,
		"phone":    phone,
	})
	require.True(t, resp.Success, resp.Message)
	require.NotNil(t, resp.Data.Balance)
	assert.True(t, resp.Data.Balance.Equal(decimal.RequireFromString("70.25")))
}

func TestDuplicateRegistrationAgainstPostgres(t *testing.T) {
	srv := newEngine(t)
	suffix := uniqueSuffix()
	document := "doc-" + suffix
	phone := "301" + suffix
	email := fmt.Sprintf("dup-%s@example.com", suffix)

	resp := post(t, srv, "registerClient", map[string]string{
		"document": document,
		"name":     "First",
		"email":    email,
		"phone":    phone,
	})
	require.True(t, resp.Success, resp.Message)

	resp = post(t, srv, "registerClient", map[string]string{
		"document": document,
		"name":     "Second",
		"email":    "other-" + email,
		"phone":    "302" + suffix,
	})
	assert.False(t, resp.Success)
	assert.Equal(t, 409, resp.Code)
}

func TestInsufficientFundsAtConfirmAgainstPostgres(t *testing.T) {
	srv := newEngine(t)
	suffix := uniqueSuffix()
	document := "doc-" + suffix
	phone := "303" + suffix

	post(t, srv, "registerClient", map[string]string{
		"document": document,
		"name":     "Broke Client",
		"email":    fmt.Sprintf("broke-%s@example.com", suffix),
		"phone":    phone,
	})
	post(t, srv, "rechargeWallet", map[string]string{
		"document": document, "phone": phone, "amount": "100",
	})

	first := post(t, srv, "startPayment", map[string]string{
		"document": document, "phone": phone, "amount": "80",
	})
	require.True(t, first.Success)
	second := post(t, srv, "startPayment", map[string]string{
		"document": document, "phone": phone, "amount": "80",
	})
	require.True(t, second.Success)

	resp := post(t, srv, "confirmPayment", map[string]string{
		"sessionId": first.Data.SessionID, "token": first.Data.Token,
	})
	require.True(t, resp.Success, resp.Message)

	resp = post(t, srv, "confirmPayment", map[string]string{
		"sessionId": second.Data.SessionID, "token": second.Data.Token,
	})
	assert.False(t, resp.Success)
	assert.Equal(t, 400, resp.Code)

	// The cancelled payment is gone for good.
	resp = post(t, srv, "confirmPayment", map[string]string{
		"sessionId": second.Data.SessionID, "token": second.Data.Token,
	})
	assert.Equal(t, 404, resp.Code)

	resp = post(t, srv, "getBalance", map[string]string{
		"document": document, "phone": phone,
	})
	require.True(t, resp.Success)
	assert.True(t, resp.Data.Balance.Equal(decimal.RequireFromString("20")))
}
