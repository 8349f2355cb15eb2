package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/dvloznov/finance-client/internal/logger"
)

// Dispatcher decides where callbacks run. The default runs them on the
// goroutine that completed the call.
type Dispatcher interface {
	Dispatch(fn func())
}

type inlineDispatcher struct{}

func (inlineDispatcher) Dispatch(fn func()) { fn() }

// Client turns Requests into HTTP calls and normalizes their outcome into a
// single Callback invocation.
type Client struct {
	httpClient *http.Client
	dispatcher Dispatcher
	log        zerolog.Logger
	timeout    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The caller is
// responsible for giving it a cookie jar if session cookies matter.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDispatcher routes every callback through d.
func WithDispatcher(d Dispatcher) Option {
	return func(c *Client) { c.dispatcher = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout bounds every call. It applies on top of a client passed with
// WithHTTPClient without modifying it, whatever the option order.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// Jar returns the cookie jar of the underlying HTTP client, nil if it has none.
func (c *Client) Jar() http.CookieJar {
	return c.httpClient.Jar
}

// NewClient creates a Client whose HTTP client keeps cookies across calls,
// so credentials are always attached.
func NewClient(opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		httpClient: &http.Client{Jar: jar},
		dispatcher: inlineDispatcher{},
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Execute issues req and returns immediately with a Handle.
//
// Requests with an empty URL or a method other than GET/POST are dropped:
// the returned handle is inert and cb is never called. Callers that need a
// guaranteed callback must validate their requests first.
//
// If building the call fails, cb receives the error before Execute returns.
// Otherwise cb runs exactly once, through the dispatcher, when the call
// completes: (nil, body) for a status in [200,400), (*StatusError, nil) for
// any other status, (err, nil) for network failures.
func (c *Client) Execute(ctx context.Context, req Request, cb Callback) *Handle {
	if cb == nil {
		cb = func(error, []byte) {}
	}
	if !req.valid() {
		requestsTotal.WithLabelValues(string(req.Method), outcomeRejected).Inc()
		c.log.Debug().Str("url", req.URL).Str("method", string(req.Method)).Msg("Request rejected at setup")
		return inertHandle()
	}
	if req.Data == nil {
		req.Data = Data{}
	}

	h := newHandle()

	httpReq, err := c.build(ctx, req)
	if err != nil {
		requestsTotal.WithLabelValues(string(req.Method), outcomeSetup).Inc()
		c.log.Warn().Err(err).Str("request_id", h.id).Str("url", req.URL).Msg("Request setup failed")
		cb(fmt.Errorf("request setup: %w", err), nil)
		h.finish()
		return h
	}

	go c.do(httpReq, req, h, cb)
	return h
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	var (
		httpReq *http.Request
		err     error
	)
	switch req.Method {
	case MethodGet:
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodGet, req.URL+req.Data.QueryString(), nil)
		if err != nil {
			return nil, err
		}
	case MethodPost:
		body, contentType, encErr := req.Data.Multipart()
		if encErr != nil {
			return nil, encErr
		}
		httpReq, err = http.NewRequestWithContext(ctx, http.MethodPost, req.URL, body)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.ResponseType == ResponseTypeJSON && httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	return httpReq, nil
}

func (c *Client) do(httpReq *http.Request, req Request, h *Handle, cb Callback) {
	start := time.Now()
	method := string(req.Method)

	body, err := c.roundTrip(httpReq, req.ResponseType)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	event := c.log.Debug()
	if err != nil {
		event = c.log.Warn().Err(err)
	}
	event.
		Str("request_id", h.id).
		Str("method", method).
		Str("url", httpReq.URL.String()).
		Dur("duration", time.Since(start)).
		Msg("Request completed")

	c.dispatcher.Dispatch(func() {
		defer h.finish()
		cb(err, body)
	})
}

// roundTrip performs the call and reduces it to the callback pair.
func (c *Client) roundTrip(httpReq *http.Request, responseType string) ([]byte, error) {
	method := httpReq.Method

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		requestsTotal.WithLabelValues(method, outcomeNetwork).Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		requestsTotal.WithLabelValues(method, outcomeStatus).Inc()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Text: statusText(resp)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(method, outcomeNetwork).Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if responseType == ResponseTypeJSON && !json.Valid(body) {
		requestsTotal.WithLabelValues(method, outcomeNetwork).Inc()
		return nil, ErrInvalidJSON
	}

	requestsTotal.WithLabelValues(method, outcomeOK).Inc()
	return body, nil
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
