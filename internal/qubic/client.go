// Package qubic is a read-only client for Qubic RPC endpoints plus helpers
// for turning the loosely typed payloads into display values and history
// points. Payload shapes differ between RPC deployments, so every field is
// extracted best-effort with fallback key names.
package qubic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

// DefaultEndpoint is the public testnet RPC used when none is configured.
const DefaultEndpoint = "https://testnet-rpc.qubicdev.com"

var (
	// ErrTickNotAvailable signals that the RPC does not expose /v1/tick.
	ErrTickNotAvailable = errors.New("tick endpoint /v1/tick not available on this RPC")
	// ErrNoIdentity is returned for balance lookups without an identity.
	ErrNoIdentity = errors.New("no identity provided")
)

// Client calls a Qubic RPC endpoint over HTTP.
type Client struct {
	endpoint string
	hc       *http.Client
}

// NewClient builds a Client for the given endpoint; requests time out after
// the given duration. Empty endpoint falls back to DefaultEndpoint.
func NewClient(endpoint string, timeout time.Duration) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		hc:       &http.Client{Timeout: timeout},
	}
}

func (c *Client) getJSON(ctx context.Context, path string) (map[string]any, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, err
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return nil, resp.StatusCode, errors.New("unexpected payload")
	}
	return m, resp.StatusCode, nil
}

// Status calls /v1/status.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	m, _, err := c.getJSON(ctx, "/v1/status")
	if err != nil {
		return nil, err
	}
	return attachFetchMeta(m), nil
}

// TickInfo calls /v1/tick. Public RPC deployments commonly do not expose it;
// a 404 maps to ErrTickNotAvailable.
func (c *Client) TickInfo(ctx context.Context) (map[string]any, error) {
	m, status, err := c.getJSON(ctx, "/v1/tick")
	if err != nil {
		if status == http.StatusNotFound {
			return nil, ErrTickNotAvailable
		}
		return nil, err
	}
	return attachFetchMeta(m), nil
}

// Balance calls /v1/balances/{identity}.
func (c *Client) Balance(ctx context.Context, identity string) (map[string]any, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, ErrNoIdentity
	}
	m, _, err := c.getJSON(ctx, "/v1/balances/"+identity)
	if err != nil {
		return nil, err
	}
	return attachFetchMeta(m), nil
}

// attachFetchMeta stamps a successful payload with the fetch time.
func attachFetchMeta(payload map[string]any) map[string]any {
	payload["_fetched_at"] = timex.Timestamp(time.Now()) + "Z"
	return payload
}
