// Package tradecal is a Go SDK for the tradecal-server HTTP API.
package tradecal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client provides a Go SDK for interacting with the tradecal-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new tradecal API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tradecal: %d: %s", e.StatusCode, e.Message)
}

// Hours describes the session of one exchange date.
type Hours struct {
	Exchange   string     `json:"exchange"`
	Date       string     `json:"date"`
	TradingDay bool       `json:"trading_day"`
	Holiday    bool       `json:"holiday"`
	Special    bool       `json:"special"`
	OpenTime   string     `json:"open_time"`
	CloseTime  string     `json:"close_time"`
	Open       *time.Time `json:"open,omitempty"`
	Close      *time.Time `json:"close,omitempty"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func exchangePath(name, suffix string) string {
	return "/api/exchanges/" + url.PathEscape(name) + suffix
}

// Exchanges lists the served exchanges.
func (c *Client) Exchanges(ctx context.Context) ([]string, error) {
	var out struct {
		Exchanges []string `json:"exchanges"`
	}
	if err := c.get(ctx, "/api/exchanges", nil, &out); err != nil {
		return nil, err
	}
	return out.Exchanges, nil
}

// IsTradingTime reports whether t is a trading time on the named exchange.
func (c *Client) IsTradingTime(ctx context.Context, exchange string, t time.Time) (bool, error) {
	var out struct {
		Trading bool `json:"trading"`
	}
	q := url.Values{"at": {t.Format(time.RFC3339Nano)}}
	if err := c.get(ctx, exchangePath(exchange, "/trading-time"), q, &out); err != nil {
		return false, err
	}
	return out.Trading, nil
}

// NextTradingTime returns the next trading time after t.
func (c *Client) NextTradingTime(ctx context.Context, exchange string, after time.Time) (time.Time, error) {
	var out struct {
		Next time.Time `json:"next"`
	}
	q := url.Values{"after": {after.Format(time.RFC3339Nano)}}
	if err := c.get(ctx, exchangePath(exchange, "/next"), q, &out); err != nil {
		return time.Time{}, err
	}
	return out.Next, nil
}

// TradingTimes returns the sampled trading instants of [start, end]. Both
// bounds are sent as RFC 3339 instants, so end is exact; pass the last
// nanosecond of a day to cover all of it. A positive limit caps the result;
// truncated reports whether it did.
func (c *Client) TradingTimes(ctx context.Context, exchange string, start, end time.Time, limit int) (times []time.Time, truncated bool, err error) {
	var out struct {
		Truncated bool        `json:"truncated"`
		Times     []time.Time `json:"times"`
	}
	q := url.Values{
		"start": {start.Format(time.RFC3339Nano)},
		"end":   {end.Format(time.RFC3339Nano)},
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if err := c.get(ctx, exchangePath(exchange, "/trading-times"), q, &out); err != nil {
		return nil, false, err
	}
	return out.Times, out.Truncated, nil
}

// Hours returns the session classification of date ("YYYY-MM-DD").
func (c *Client) Hours(ctx context.Context, exchange, date string) (Hours, error) {
	var out Hours
	err := c.get(ctx, exchangePath(exchange, "/hours"), url.Values{"date": {date}}, &out)
	return out, err
}
