package gateway

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/ncastano/virtual-wallet/internal/adapter/envelope"
	"github.com/ncastano/virtual-wallet/internal/resilience"
)

// WalletClient speaks the wallet envelope protocol over HTTP.
// Calls run through a circuit breaker; only balance lookups — the one
// pure read — additionally retry with backoff.
type WalletClient struct {
	http    *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker
	retry   resilience.Config
	logger  *zap.Logger
}

// NewWalletClient creates a client for the wallet engine at baseURL.
func NewWalletClient(httpClient *http.Client, baseURL string, breaker *gobreaker.CircuitBreaker, retry resilience.Config, logger *zap.Logger) *WalletClient {
	return &WalletClient{
		http:    httpClient,
		baseURL: baseURL,
		breaker: breaker,
		retry:   retry,
		logger:  logger,
	}
}

// Call sends the request envelope and returns the decoded response.
func (c *WalletClient) Call(ctx context.Context, req *envelope.Request) (*envelope.Response, error) {
	if req.Op != envelope.OpGetBalance {
		return c.callOnce(ctx, req)
	}

	// Recharge and confirm are not safe to retry blindly; getBalance is.
	var resp *envelope.Response
	err := resilience.RetryWithBackoff(ctx, c.retry, func() error {
		var callErr error
		resp, callErr = c.callOnce(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *WalletClient) callOnce(ctx context.Context, req *envelope.Request) (*envelope.Response, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return result.(*envelope.Response), nil
}

func (c *WalletClient) do(ctx context.Context, req *envelope.Request) (*envelope.Response, error) {
	body, err := envelope.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/soap/wallet", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("wallet engine unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wallet engine returned HTTP %d", httpResp.StatusCode)
	}

	resp, err := envelope.DecodeResponse(httpResp.Body)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
