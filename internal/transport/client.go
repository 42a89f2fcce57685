package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

const (
	DefaultTimeout  = 30 * time.Second
	RequestIDHeader = "X-Request-Id"
	contentTypeJSON = "application/json"
)

// RequestInterceptor may decorate or reject an outbound request. A
// returned error is surfaced as a local failure.
type RequestInterceptor func(*http.Request) error

type Options struct {
	BaseURL string
	Timeout time.Duration
	// WithCredentials keeps server-set cookies and replays them on every
	// request. It is the only session mechanism; no bearer header is sent.
	WithCredentials bool
	// Jar overrides the default in-memory jar when WithCredentials is set.
	Jar          http.CookieJar
	RoundTripper http.RoundTripper
	Interceptors []RequestInterceptor
	Logger       zerolog.Logger
}

type Client struct {
	baseURL      *url.URL
	http         *http.Client
	interceptors []RequestInterceptor
	log          zerolog.Logger
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: opts.RoundTripper,
	}
	if opts.WithCredentials {
		jar := opts.Jar
		if jar == nil {
			jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
			if err != nil {
				return nil, fmt.Errorf("cookie jar: %w", err)
			}
		}
		httpClient.Jar = jar
	}

	return &Client{
		baseURL:      base,
		http:         httpClient,
		interceptors: append([]RequestInterceptor(nil), opts.Interceptors...),
		log:          opts.Logger,
	}, nil
}

// Jar returns the cookie jar, or nil when credentials are not sent.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.send(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.send(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.send(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.send(ctx, http.MethodDelete, path, nil, nil, out)
}

// PostMultipart uploads a single file part plus optional text fields.
func (c *Client) PostMultipart(ctx context.Context, path string, form Multipart, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return c.fail(http.MethodPost, path, "", localError(err))
	}
	return c.do(ctx, http.MethodPost, path, nil, body, contentType, out)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return c.fail(method, path, "", localError(fmt.Errorf("encode request: %w", err)))
		}
		reader = bytes.NewReader(encoded)
	}
	return c.do(ctx, method, path, query, reader, contentTypeJSON, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	target := c.baseURL.String() + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return c.fail(method, path, "", localError(err))
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(RequestIDHeader, requestID)

	for _, intercept := range c.interceptors {
		if err := intercept(req); err != nil {
			return c.fail(method, path, requestID, localError(err))
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return c.fail(method, path, requestID, localError(err))
		}
		return c.fail(method, path, requestID, networkError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(method, path, requestID, networkError(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.fail(method, path, requestID, serverError(resp.StatusCode, data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(method, path, requestID, localError(fmt.Errorf("decode response: %w", err)))
	}
	return nil
}

func (c *Client) fail(method, path, requestID string, apiErr *APIError) error {
	event := c.log.Error()
	if apiErr.Kind == KindServer {
		event = event.Int("status", apiErr.Status).Str("message", apiErr.Message)
	} else {
		event = event.Err(apiErr.Err)
	}
	event.
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Msgf("%s error", apiErr.Kind)

	if apiErr.Unauthorized() {
		c.log.Warn().Str("path", path).Msg("unauthorized - user needs to login")
	}
	return apiErr
}
