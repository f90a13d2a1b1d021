package soap

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/envelope"
	"github.com/ncastano/virtual-wallet/internal/adapter/repository/memory"
	"github.com/ncastano/virtual-wallet/internal/notifier"
	"github.com/ncastano/virtual-wallet/internal/observability"
	"github.com/ncastano/virtual-wallet/internal/usecase/ledger"
	"github.com/ncastano/virtual-wallet/internal/usecase/payment"
	"github.com/ncastano/virtual-wallet/internal/usecase/registry"
	"github.com/ncastano/virtual-wallet/internal/usecase/wallet"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	logger := zap.NewNop()

	registrySvc := registry.NewService(store, logger)
	ledgerSvc := ledger.NewService(store, logger)
	paymentSvc := payment.NewService(store, ledgerSvc, notifier.NewLogNotifier(logger), logger)
	metrics := observability.NewMetrics()
	svc := wallet.New(registrySvc, ledgerSvc, paymentSvc, store, metrics, logger, true)

	srv := httptest.NewServer(NewRouter(svc, metrics, logger))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, *envelope.Response) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/soap/wallet", "text/xml", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	decoded, err := envelope.DecodeResponse(resp.Body)
	require.NoError(t, err)
	return resp, decoded
}

func requestBody(op string, fields map[string]string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<walletEnvelope><request operation=%q>`, op)
	for k, v := range fields {
		fmt.Fprintf(&sb, "<%s>%s</%s>", k, v, k)
	}
	sb.WriteString(`</request></walletEnvelope>`)
	return sb.String()
}

func TestEnvelopeEndpoint_FullFlow(t *testing.T) {
	srv := newTestServer(t)

	httpResp, resp := post(t, srv, requestBody("registerClient", map[string]string{
		"document": "12345678",
		"name":     "Ada Lovelace",
		"email":    "ada@example.com",
		"phone":    "3001112233",
	}))
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)
	require.True(t, resp.Success)
	assert.Equal(t, 201, resp.Code)
	require.NotNil(t, resp.Data)
	assert.NotZero(t, resp.Data.ClientID)

	_, resp = post(t, srv, requestBody("rechargeWallet", map[string]string{
		"document": "12345678",
		"phone":    "3001112233",
		"amount":   "100",
	}))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data.NewBalance)
	assert.Equal(t, "100", resp.Data.NewBalance.String())

	_, resp = post(t, srv, requestBody("startPayment", map[string]string{
		"document": "12345678",
		"phone":    "3001112233",
		"amount":   "30",
	}))
	require.True(t, resp.Success)
	sessionID, token := resp.Data.SessionID, resp.Data.Token
	require.NotEmpty(t, sessionID)
	require.NotEmpty(t, token)

	_, resp = post(t, srv, requestBody("confirmPayment", map[string]string{
		"sessionId": sessionID,
		"token":     token,
	}))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data.NewBalance)
	assert.Equal(t, "70", resp.Data.NewBalance.String())

	_, resp = post(t, srv, requestBody("getBalance", map[string]string{
		"document": "12345678",
		"phone":    "3001112233",
	}))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data.Balance)
	assert.Equal(t, "70", resp.Data.Balance.String())
}

func TestEnvelopeEndpoint_DomainErrorStaysHTTP200(t *testing.T) {
	srv := newTestServer(t)

	httpResp, resp := post(t, srv, requestBody("getBalance", map[string]string{
		"document": "99999999",
		"phone":    "3000000000",
	}))
	assert.Equal(t, http.StatusOK, httpResp.StatusCode, "domain code travels inside the envelope")
	assert.False(t, resp.Success)
	assert.Equal(t, 404, resp.Code)
}

func TestEnvelopeEndpoint_UnknownOperation(t *testing.T) {
	srv := newTestServer(t)

	httpResp, resp := post(t, srv, requestBody("transferFunds", nil))
	assert.Equal(t, http.StatusOK, httpResp.StatusCode)
	assert.False(t, resp.Success)
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "invalid request envelope", resp.Message)
}

func TestEnvelopeEndpoint_MalformedXML(t *testing.T) {
	srv := newTestServer(t)

	_, resp := post(t, srv, `<walletEnvelope><request`)
	assert.False(t, resp.Success)
	assert.Equal(t, 400, resp.Code)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// Generate one observation first.
	post(t, srv, requestBody("getBalance", map[string]string{"document": "x", "phone": "y"}))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServiceDescriptor(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/soap/wallet")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
}
