// Package copper is a read-only client for the Copper CRM developer API.
package copper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "copper-intel-workers/internal/common/http"
	"copper-intel-workers/internal/common/metrics"
	"copper-intel-workers/internal/models"

	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://api.copper.com/developer_api/v1"

var (
	ErrNotFound    = errors.New("copper: record not found")
	ErrRateLimited = errors.New("copper: rate limit exceeded")
	ErrMalformed   = errors.New("copper: malformed response")
)

// Filter is a Copper search body. Paging keys are managed by the client.
type Filter map[string]interface{}

type Options struct {
	BaseURL       string
	APIKey        string
	UserEmail     string
	Timeout       time.Duration
	RatePerMinute int
	PageSize      int
	MaxPages      int
	HTTPClient    commonhttp.Doer
}

type Client struct {
	baseURL    string
	apiKey     string
	userEmail  string
	pageSize   int
	maxPages   int
	httpClient commonhttp.Doer
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 200
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 25
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = commonhttp.NewClient(opts.Timeout)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerMinute > 0 {
		burst := opts.RatePerMinute / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60.0), burst)
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		userEmail:  opts.UserEmail,
		pageSize:   opts.PageSize,
		maxPages:   opts.MaxPages,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
	}
}

// Search returns every record of the collection matching filter, following pages
// until a short page or MaxPages.
func (c *Client) Search(ctx context.Context, collection models.Collection, filter Filter) ([]models.Record, error) {
	var all []models.Record
	for page := 1; page <= c.maxPages; page++ {
		body := make(Filter, len(filter)+2)
		for k, v := range filter {
			body[k] = v
		}
		body["page_size"] = c.pageSize
		body["page_number"] = page

		records, err := c.searchPage(ctx, collection, body)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
		if len(records) < c.pageSize {
			break
		}
	}
	return all, nil
}

func (c *Client) searchPage(ctx context.Context, collection models.Collection, body Filter) ([]models.Record, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search filter: %w", err)
	}

	raw, err := c.do(ctx, "search", collection, http.MethodPost, fmt.Sprintf("%s/%s/search", c.baseURL, collection), payload)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: search %s: %v", ErrMalformed, collection, err)
	}
	return records, nil
}

// Get fetches one record by id. A missing record yields ErrNotFound.
func (c *Client) Get(ctx context.Context, collection models.Collection, id string) (models.Record, error) {
	if id == "" {
		return nil, fmt.Errorf("get %s: %w", collection, ErrNotFound)
	}

	raw, err := c.do(ctx, "get", collection, http.MethodGet, fmt.Sprintf("%s/%s/%s", c.baseURL, collection, id), nil)
	if err != nil {
		return nil, err
	}

	var record models.Record
	if err := json.Unmarshal(raw, &record); err != nil || record == nil {
		return nil, fmt.Errorf("%w: get %s/%s", ErrMalformed, collection, id)
	}
	return record, nil
}

func (c *Client) do(ctx context.Context, op string, collection models.Collection, method, url string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	start := time.Now()
	defer func() {
		metrics.CRMRequestDuration.WithLabelValues(op, collection.String()).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-PW-AccessToken", c.apiKey)
	req.Header.Set("X-PW-Application", "developer_api")
	req.Header.Set("X-PW-UserEmail", c.userEmail)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s %s: %w", op, collection, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s %s: %w", op, collection, ErrRateLimited)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s %s failed (status %d): %s", op, collection, resp.StatusCode, truncate(string(raw), 200))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
