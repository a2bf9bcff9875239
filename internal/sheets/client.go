// Package sheets is the tabular transport: it exchanges range-addressed
// read/write requests with the Google Sheets values API. It knows nothing
// about entity schemas; callers hand it A1 ranges and 2-D text grids.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sheetdesk/sheetdesk/internal/apperr"
)

// AccessTokenProvider yields a bearer token for one request. Production wires
// a service-account token source (see token.go); tests inject a stub.
type AccessTokenProvider func(ctx context.Context) (string, error)

type ClientOptions struct {
	BaseURL       string
	SpreadsheetID string
	TokenProvider AccessTokenProvider
	HTTPClient    *http.Client
	UserAgent     string
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
}

// Client talks to one spreadsheet. All methods perform exactly one logical
// API call; reads and full-row overwrites get bounded retry on transient
// failures (network errors, 429, 5xx), appends are sent at most once. Every
// failure surfaces as apperr.ErrExternal. No state is cached.
type Client struct {
	baseURL       string
	spreadsheetID string
	tokenProvider AccessTokenProvider
	httpClient    *http.Client
	userAgent     string
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
}

func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://sheets.googleapis.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:       baseURL,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		userAgent:     strings.TrimSpace(opts.UserAgent),
		maxRetries:    maxRetries,
		baseDelay:     baseDelay,
		maxDelay:      maxDelay,
	}
}

type valueRange struct {
	Range  string     `json:"range,omitempty"`
	Values [][]string `json:"values,omitempty"`
}

// ReadRange returns the grid of text cells in an A1 range. An empty range is
// an empty grid, not an error.
func (c *Client) ReadRange(ctx context.Context, a1Range string) ([][]string, error) {
	var out valueRange
	endpoint := c.valuesURL(a1Range, "")
	if err := c.do(ctx, http.MethodGet, "read", endpoint, nil, &out); err != nil {
		return nil, err
	}
	if out.Values == nil {
		return [][]string{}, nil
	}
	return out.Values, nil
}

// WriteRange overwrites exactly the addressed cells.
func (c *Client) WriteRange(ctx context.Context, a1Range string, rows [][]string) error {
	endpoint := c.valuesURL(a1Range, "") + "?valueInputOption=RAW"
	payload := valueRange{Range: a1Range, Values: rows}
	return c.do(ctx, http.MethodPut, "write", endpoint, payload, nil)
}

// AppendRange appends rows after the last populated row of the addressed
// sheet. The backing API decides the landing row; callers that need the row
// number compute it from a prior scan (see rowstore.Append for the caveat).
// The POST is sent exactly once: an append that committed server-side before
// the response was lost would be duplicated by a retry.
func (c *Client) AppendRange(ctx context.Context, a1Range string, rows [][]string) error {
	endpoint := c.valuesURL(a1Range, ":append") + "?valueInputOption=RAW&insertDataOption=INSERT_ROWS"
	payload := valueRange{Values: rows}
	return c.do(ctx, http.MethodPost, "append", endpoint, payload, nil)
}

// WriteCell is WriteRange with a 1x1 payload.
func (c *Client) WriteCell(ctx context.Context, a1Range, value string) error {
	return c.WriteRange(ctx, a1Range, [][]string{{value}})
}

func (c *Client) valuesURL(a1Range, suffix string) string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(a1Range), suffix)
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, op, endpoint string, payload, out any) error {
	if c == nil {
		return apperr.Internal("sheets client is nil")
	}
	if c.tokenProvider == nil {
		return apperr.External("token provider is required")
	}
	token, err := c.tokenProvider(ctx)
	if err != nil {
		return apperr.Wrap(apperr.ErrExternal, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return apperr.External("access token is empty")
	}
	var bodyBytes []byte
	if payload != nil {
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
	}

	// Retry only reads and idempotent full-row writes. An append may have
	// committed before the failure response; re-POSTing it inserts the row
	// again.
	retryable := op != "append"

	start := time.Now()
	outcome := "error"
	defer func() {
		observeRequest(op, outcome, time.Since(start))
	}()

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return apperr.Wrap(apperr.ErrInternal, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				// Timed-out writes may have partially applied; callers must
				// re-scan before retrying.
				return apperr.Wrap(apperr.ErrExternal, ctx.Err())
			}
			if retryable && attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return apperr.Wrap(apperr.ErrExternal, waitErr)
				}
				continue
			}
			return apperr.Wrap(apperr.ErrExternal, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return apperr.Wrap(apperr.ErrExternal, readErr)
		}
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			outcome = "ok"
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return apperr.External("malformed response from sheets API: %v", err)
				}
			}
			return nil
		}

		if retryable && (resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599)) && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return apperr.Wrap(apperr.ErrExternal, waitErr)
			}
			continue
		}

		message := strings.TrimSpace(string(respBody))
		var parsed apiError
		if json.Unmarshal(respBody, &parsed) == nil && strings.TrimSpace(parsed.Error.Message) != "" {
			message = parsed.Error.Message
		}
		return apperr.External("sheets %s failed: status=%d message=%s", op, resp.StatusCode, message)
	}
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
