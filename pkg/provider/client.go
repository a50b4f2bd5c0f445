// Package provider implements the client for the upstream
// threat-intelligence platform API. It handles bearer authentication,
// pagination (the API caps pages at 200 items), rate limiting, and 429
// backoff, and delivers complete, date-range-bounded record collections to
// the scoring engine — which never performs network I/O itself.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/riskscope/riskscope/internal/records"
	"golang.org/x/time/rate"
)

// MaxPageSize is the provider API's hard page-size ceiling.
const MaxPageSize = 200

// ErrRateLimited is returned when the API keeps answering 429 after the
// client has exhausted its retries.
var ErrRateLimited = errors.New("provider API rate limit exceeded")

// Client talks to the provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	customerID string
	httpClient *http.Client
	pageSize   int
	limiter    *rate.Limiter
	maxRetries int
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize lowers the page size below the API ceiling; values above
// MaxPageSize are clamped.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 && n <= MaxPageSize {
			c.pageSize = n
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithMaxRetries sets how many times a 429 response is retried before
// giving up. Default is 3.
func WithMaxRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// New creates a provider Client.
func New(baseURL, apiKey, customerID string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("provider base URL is required")
	}
	if apiKey == "" {
		return nil, errors.New("provider API key is required")
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		customerID: customerID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pageSize:   MaxPageSize,
		maxRetries: 3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TicketQuery filters the incident (ticket) listing.
type TicketQuery struct {
	Start      time.Time
	End        time.Time
	Originator records.Originator // optional
	Type       string             // optional

	// DateField selects which timestamp the range filters on; the
	// provider defaults to "open.date" when empty.
	DateField string
}

// Tickets fetches every incident in the query range, walking all pages.
func (c *Client) Tickets(ctx context.Context, q TicketQuery) ([]records.Incident, error) {
	dateField := q.DateField
	if dateField == "" {
		dateField = "open.date"
	}

	params := url.Values{}
	params.Set("ticket.customer", c.customerID)
	params.Add(dateField, "ge:"+formatDate(q.Start, false))
	params.Add(dateField, "le:"+formatDate(q.End, true))
	params.Set("sortBy", dateField)
	params.Set("order", "desc")
	if q.Originator != "" {
		params.Set("ticket.creation.originator", string(q.Originator))
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}

	var wire []ticketWire
	if err := c.paginate(ctx, "/tickets-api/tickets", params, "tickets", &wire); err != nil {
		return nil, err
	}

	out := make([]records.Incident, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toIncident())
	}
	return out, nil
}

// CredentialQuery filters the exposed-credential listing.
type CredentialQuery struct {
	Start    time.Time
	End      time.Time
	Statuses []string // defaults to NEW, IN_TREATMENT
	Domain   string   // optional
}

// Credentials fetches exposed credentials in the query range.
func (c *Client) Credentials(ctx context.Context, q CredentialQuery) ([]records.CredentialExposure, error) {
	statuses := q.Statuses
	if len(statuses) == 0 {
		statuses = []string{"NEW", "IN_TREATMENT"}
	}

	params := url.Values{}
	params.Set("customer", c.customerID)
	for _, s := range statuses {
		params.Add("status", s)
	}
	params.Add("created", "ge:"+q.Start.Format("2006-01-02"))
	params.Add("created", "le:"+q.End.Format("2006-01-02"))
	if q.Domain != "" {
		params.Set("domain", q.Domain)
	}

	var wire []credentialWire
	if err := c.paginate(ctx, "/exposure-api/credentials", params, "credentials", &wire); err != nil {
		return nil, err
	}

	out := make([]records.CredentialExposure, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toExposure())
	}
	return out, nil
}

// Brands fetches the tenant's active brand assets.
func (c *Client) Brands(ctx context.Context) ([]records.Brand, error) {
	body, err := c.get(ctx, c.baseURL+"/customers/customers")
	if err != nil {
		return nil, err
	}

	var customers []customerWire
	if err := json.Unmarshal(body, &customers); err != nil {
		return nil, fmt.Errorf("decode customers response: %w", err)
	}

	brands := []records.Brand{}
	for _, cust := range customers {
		if cust.Key != c.customerID {
			continue
		}
		for _, asset := range cust.Assets {
			if asset.Category == "BRAND" && asset.Active {
				brands = append(brands, records.Brand{Name: asset.Name, Key: asset.Key})
			}
		}
		break
	}
	return brands, nil
}

// paginate walks numbered pages until a short or empty page, accumulating
// the items under resultKey into dst (a *[]T).
func (c *Client) paginate(ctx context.Context, path string, params url.Values, resultKey string, dst any) error {
	page := 1
	var raw []json.RawMessage

	for {
		q := url.Values{}
		for k, vs := range params {
			q[k] = vs
		}
		q.Set("pageSize", strconv.Itoa(c.pageSize))
		q.Set("page", strconv.Itoa(page))

		body, err := c.get(ctx, c.baseURL+path+"?"+q.Encode())
		if err != nil {
			return err
		}

		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("decode page %d: %w", page, err)
		}

		var items []json.RawMessage
		if itemsRaw, ok := envelope[resultKey]; ok {
			if err := json.Unmarshal(itemsRaw, &items); err != nil {
				return fmt.Errorf("decode %s on page %d: %w", resultKey, page, err)
			}
		}
		if len(items) == 0 {
			break
		}

		raw = append(raw, items...)
		if len(items) < c.pageSize {
			break
		}
		page++
	}

	joined, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("reassemble pages: %w", err)
	}
	return json.Unmarshal(joined, dst)
}

// get performs one authenticated GET with rate limiting and 429 backoff.
func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("provider request: %w", err)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			return nil, fmt.Errorf("read provider response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt >= c.maxRetries {
				return nil, ErrRateLimited
			}
			wait := retryAfter(resp, attempt)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}

		default:
			return nil, fmt.Errorf("provider API status %d: %s", resp.StatusCode, truncate(body, 200))
		}
	}
}

// retryAfter honors the Retry-After header, falling back to exponential
// backoff starting at one second.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second << attempt
}

// formatDate renders the provider's timestamp filter format; endOfDay
// pushes the bound to 23:59:59.
func formatDate(t time.Time, endOfDay bool) string {
	if endOfDay {
		return t.Format("2006-01-02") + "T23:59:59"
	}
	return t.Format("2006-01-02") + "T00:00:00"
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
