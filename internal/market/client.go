// Package market is a thin read-only client for a CoinGecko-compatible
// market data API.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the public CoinGecko API base URL.
const DefaultEndpoint = "https://api.coingecko.com/api/v3"

const userAgent = "QubicBoard/1.0"

// Client calls a market data API over HTTP.
type Client struct {
	endpoint string
	hc       *http.Client
}

// NewClient builds a Client for the given base endpoint; requests time out
// after the given duration. Empty endpoint falls back to DefaultEndpoint.
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

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.endpoint + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// SimplePrice calls /simple/price for the given coin IDs, including 24h
// change, volume, market cap and last-updated metadata.
func (c *Client) SimplePrice(ctx context.Context, ids []string, vs string) (map[string]map[string]float64, error) {
	params := url.Values{
		"ids":                     {strings.Join(ids, ",")},
		"vs_currencies":           {vs},
		"include_24hr_change":     {"true"},
		"include_24hr_vol":        {"true"},
		"include_market_cap":      {"true"},
		"include_last_updated_at": {"true"},
	}

	var out map[string]map[string]float64
	if err := c.get(ctx, "/simple/price", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Coin is one row of a /coins/markets response. Only the fields the
// dashboard displays are decoded.
type Coin struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	MarketCapRank  int     `json:"market_cap_rank"`
	TotalVolume    float64 `json:"total_volume"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`
}

// Markets calls /coins/markets ordered by market cap.
func (c *Client) Markets(ctx context.Context, vs string, perPage, page int) ([]Coin, error) {
	params := url.Values{
		"vs_currency":             {vs},
		"order":                   {"market_cap_desc"},
		"per_page":                {strconv.Itoa(perPage)},
		"page":                    {strconv.Itoa(page)},
		"sparkline":               {"false"},
		"price_change_percentage": {"1h,24h,7d"},
	}

	var out []Coin
	if err := c.get(ctx, "/coins/markets", params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Chart is a /coins/{id}/market_chart response: [timestamp_ms, value] pairs.
type Chart struct {
	Prices       [][2]float64 `json:"prices"`
	MarketCaps   [][2]float64 `json:"market_caps"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// MarketChart calls /coins/{id}/market_chart for the given number of days.
func (c *Client) MarketChart(ctx context.Context, coinID, vs string, days int) (*Chart, error) {
	params := url.Values{
		"vs_currency": {vs},
		"days":        {strconv.Itoa(days)},
	}

	var out Chart
	if err := c.get(ctx, "/coins/"+url.PathEscape(coinID)+"/market_chart", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
