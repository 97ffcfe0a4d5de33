package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client submits signed transactions to the chain gateway. The
// interface exists so the sync worker can be tested against a fake.
type Client interface {
	Submit(ctx context.Context, tx SignedTx) error
}

// RPCClient talks to the chain gateway over HTTP
type RPCClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewRPCClient(baseURL, serviceToken string) (*RPCClient, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid chain RPC URL %q: %w", baseURL, err)
	}
	return &RPCClient{
		baseURL: baseURL,
		token:   serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Submit posts the signed transaction for inclusion. A nil error only
// means the gateway accepted the submission; the outcome arrives later
// on the event stream.
func (c *RPCClient) Submit(ctx context.Context, tx SignedTx) error {
	body, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to encode transaction: %w", err)
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base chain RPC URL '%s': %w", c.baseURL, err)
	}
	finalURL := endpoint.JoinPath("/api/v1/tx").String()

	req, err := http.NewRequestWithContext(ctx, "POST", finalURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to chain gateway failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chain gateway non-200 response: %d — %s", resp.StatusCode, string(errBody))
	}
	return nil
}
