package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/poseidonvest/globe/internal/calendar"
	"github.com/poseidonvest/globe/pkg/core"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultWindowDays = 7
	calendarPath      = "/world_economic_calendar"
	maxErrorBody      = 512
)

// Client fetches the economic calendar feed.
type Client struct {
	baseURL    string
	apiKey     string
	windowDays int
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithWindowDays sets how many days before and after today FetchBook covers.
func WithWindowDays(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.windowDays = n
		}
	}
}

// New creates a new API client.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		windowDays: defaultWindowDays,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Healthcheck checks if the feed server is reachable.
func (c *Client) Healthcheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status %d", resp.StatusCode)
	}
	return nil
}

// Window returns the date range centered on now, windowDays either side.
func (c *Client) Window(now time.Time) (from, to time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -c.windowDays), day.AddDate(0, 0, c.windowDays)
}

// FetchEvents requests the releases between from and to, both inclusive.
func (c *Client) FetchEvents(ctx context.Context, from, to time.Time) ([]core.EconomicEvent, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))
	q.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+calendarPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("calendar returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar response: %w", err)
	}
	return DecodeFeed(data)
}

// FetchBook fetches the default window around the current day and groups it by country.
func (c *Client) FetchBook(ctx context.Context) (calendar.Book, error) {
	from, to := c.Window(c.now())
	events, err := c.FetchEvents(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return calendar.FromEvents(events), nil
}
