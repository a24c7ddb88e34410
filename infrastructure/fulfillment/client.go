package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"pickstation/infrastructure/metrics"
)

var (
	// ErrUnexpectedResponse is returned when the backend answers with something other than the expected JSON.
	ErrUnexpectedResponse = errors.New("fulfillment: unexpected response")
	// ErrUnavailable is returned while the lookup breaker is open.
	ErrUnavailable = errors.New("fulfillment: backend unavailable")
)

// Options configures a Client. BaseURL and CSRFToken identify the backend session the station acts for.
type Options struct {
	BaseURL       string
	CSRFToken     string
	SessionName   string
	SessionCookie string
	ExportPath    string
	BreakerWindow time.Duration
	HTTPClient    *http.Client
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// Client talks to the fulfillment backend. Mutating calls go straight through;
// read-only lookups run behind a circuit breaker.
type Client struct {
	baseURL       string
	csrfToken     string
	sessionName   string
	sessionCookie string
	exportPath    string
	http          *http.Client
	breaker       *gobreaker.CircuitBreaker
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No timeout: an in-flight reconciliation always runs to completion.
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	window := opts.BreakerWindow
	if window <= 0 {
		window = 30 * time.Second
	}
	sessionName := opts.SessionName
	if sessionName == "" {
		sessionName = "sessionid"
	}
	exportPath := opts.ExportPath
	if exportPath == "" {
		exportPath = "fullfilment/batchpicking/{picklist}/export/"
	}

	c := &Client{
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		csrfToken:     opts.CSRFToken,
		sessionName:   sessionName,
		sessionCookie: opts.SessionCookie,
		exportPath:    exportPath,
		http:          httpClient,
		metrics:       opts.Metrics,
		logger:        logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fulfillment-lookups",
		MaxRequests: 1,
		Interval:    window,
		Timeout:     window,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
	return c
}

// WithCSRFToken returns a client that acts for another backend session token.
// The copy shares the transport and the breaker with c.
func (c *Client) WithCSRFToken(token string) *Client {
	if token == "" || token == c.csrfToken {
		return c
	}
	cp := *c
	cp.csrfToken = token
	return &cp
}

// CSRFToken is the token sent with every request.
func (c *Client) CSRFToken() string {
	return c.csrfToken
}

// URL resolves a backend-relative path (or returns an absolute URL unchanged).
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-CSRFToken", c.csrfToken)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.csrfToken != "" {
		req.AddCookie(&http.Cookie{Name: "csrftoken", Value: c.csrfToken})
	}
	if c.sessionCookie != "" {
		req.AddCookie(&http.Cookie{Name: c.sessionName, Value: c.sessionCookie})
	}
	return req, nil
}

func (c *Client) do(req *http.Request, endpoint string) (*http.Response, error) {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveBackend(endpoint, 0, started)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	c.metrics.ObserveBackend(endpoint, resp.StatusCode, started)
	return resp, nil
}

// postJSON sends in as JSON and decodes the reply into out whatever the status
// code, since the backend reports validation failures as JSON with 4xx codes.
func (c *Client) postJSON(ctx context.Context, endpoint, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", endpoint, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, body, "application/json")
	if err != nil {
		return err
	}
	resp, err := c.do(req, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, endpoint, out)
}

// getJSON is postJSON for read-only lookups, guarded by the breaker.
func (c *Client) getJSON(ctx context.Context, endpoint, path string, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.do(req, endpoint)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%s: status %d: %w", endpoint, resp.StatusCode, ErrUnexpectedResponse)
		}
		return nil, decodeJSON(resp, endpoint, out)
	})
	return breakerErr(err)
}

// getPage fetches an HTML page behind the breaker and hands the body to parse.
func (c *Client) getPage(ctx context.Context, endpoint, path string, parse func(io.Reader) error) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
		if err != nil {
			return nil, err
		}
		resp, err := c.do(req, endpoint)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s: status %d: %w", endpoint, resp.StatusCode, ErrUnexpectedResponse)
		}
		return nil, parse(resp.Body)
	})
	return breakerErr(err)
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func decodeJSON(resp *http.Response, endpoint string, out any) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: status %d: %w", endpoint, resp.StatusCode, ErrUnexpectedResponse)
	}
	return nil
}

func picklistPath(picklist, suffix string) string {
	return "fullfilment/batchpicking/" + url.PathEscape(picklist) + "/" + suffix
}

func orderPath(orderID, suffix string) string {
	return "fullfilment/scanpicking/" + url.PathEscape(orderID) + "/" + suffix
}
