package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/DeafMist/notice-radar/internal/logger"
	"github.com/DeafMist/notice-radar/internal/view"
)

// DocumentsPath is the listing endpoint relative to the API base URL.
const DocumentsPath = "/api/documents"

// NextCursorHeader carries the continuation cursor of a listing response.
const NextCursorHeader = "X-Next-Cursor"

// ErrUnavailable is returned while the circuit breaker rejects calls.
var ErrUnavailable = errors.New("document api temporarily unavailable")

// StatusError reports a non-2xx listing response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("document api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("document api returned status %d: %s", e.StatusCode, e.Body)
}

// Client reads the document listing over HTTP. It implements view.Source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "document-api",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Info("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Client errors and cancellations say nothing about API health.
			var se *StatusError
			if errors.As(err, &se) {
				return se.StatusCode < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return c
}

// FetchDocuments issues one GET for a page of documents.
func (c *Client) FetchDocuments(ctx context.Context, params view.FetchParams) (view.Page, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return view.Page{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return view.Page{}, err
	}
	return res.(view.Page), nil
}

// ListURL builds the listing URL for params.
func (c *Client) ListURL(params view.FetchParams) string {
	q := url.Values{}
	limit := params.Limit
	if limit <= 0 {
		limit = view.DefaultPageSize
	}
	q.Set("limit", strconv.Itoa(limit))
	if params.Cursor != "" {
		q.Set("cursor", params.Cursor)
	}
	return c.baseURL + DocumentsPath + "?" + q.Encode()
}

func (c *Client) fetch(ctx context.Context, params view.FetchParams) (view.Page, error) {
	endpoint := c.ListURL(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return view.Page{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return view.Page{}, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return view.Page{}, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var records []view.DocumentRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return view.Page{}, fmt.Errorf("decode documents: %w", err)
	}

	c.log.Debug("fetched documents",
		slog.String("url", endpoint),
		slog.Int("count", len(records)),
	)

	return view.Page{
		Records:    records,
		NextCursor: resp.Header.Get(NextCursorHeader),
	}, nil
}
