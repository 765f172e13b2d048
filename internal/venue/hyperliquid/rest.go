package hyperliquid

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hyperflow/internal/pipeerr"
)

const defaultAPIURL = "https://api.hyperliquid.xyz/info"

// RestClient issues the request/response calls the periodic collectors poll:
// instrument metadata, open-interest snapshots and the liquidation feed.
// Safe for concurrent callers; requests share one rate limiter.
type RestClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewRestClient builds a client for the venue info API. An empty baseURL
// falls back to the public endpoint, a nil limiter disables rate limiting.
func NewRestClient(baseURL string, timeout time.Duration, limiter *rate.Limiter) *RestClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RestClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Meta fetches the instrument metadata list.
func (c *RestClient) Meta(ctx context.Context) ([]RawInstrument, error) {
	body, err := c.get(ctx, "/meta")
	if err != nil {
		return nil, err
	}
	var resp metaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, pipeerr.Newf(pipeerr.KindParse, "decode meta response: %v", err)
	}
	return resp.Symbols, nil
}

// OpenInterest fetches the current open-interest list.
func (c *RestClient) OpenInterest(ctx context.Context) ([]RawOpenInterest, error) {
	body, err := c.get(ctx, "/openInterest")
	if err != nil {
		return nil, err
	}
	var out []RawOpenInterest
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, pipeerr.Newf(pipeerr.KindParse, "decode open-interest response: %v", err)
	}
	return out, nil
}

// Liquidations fetches recent liquidation events.
func (c *RestClient) Liquidations(ctx context.Context) ([]RawTrade, error) {
	body, err := c.get(ctx, "/liquidations")
	if err != nil {
		return nil, err
	}
	var out []RawTrade
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, pipeerr.Newf(pipeerr.KindParse, "decode liquidations response: %v", err)
	}
	return out, nil
}

func (c *RestClient) get(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, pipeerr.New(pipeerr.KindTransientNetwork, err)
		}
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, pipeerr.New(pipeerr.KindTransientNetwork, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.KindTransientNetwork, "get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pipeerr.Newf(pipeerr.KindTransientNetwork, "get %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pipeerr.Newf(pipeerr.KindTransientNetwork, "read %s response: %v", url, err)
	}
	return body, nil
}

// BaseURL exposes the resolved endpoint, mainly for startup logging.
func (c *RestClient) BaseURL() string {
	return c.baseURL
}
