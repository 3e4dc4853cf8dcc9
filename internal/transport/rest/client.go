// Package rest is the HTTP transport of the NDB client: one request per call,
// no retries, non-2xx statuses surfaced as transport errors.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ThirdAILabs/ndb-client/internal/domain"
	"github.com/ThirdAILabs/ndb-client/internal/logger"
	"github.com/ThirdAILabs/ndb-client/internal/metrics"
	"github.com/ThirdAILabs/ndb-client/internal/version"
)

// APIPrefix is prepended to every endpoint path.
const APIPrefix = "/api/v1"

// Client sends requests to one NDB server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	metrics *metrics.HTTP
}

// Config holds the transport settings.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client  // nil means http.DefaultClient
	Logger     *zap.Logger   // nil disables logging
	Metrics    *metrics.HTTP // nil disables metrics
}

// New validates the base URL and creates a Client.
// The URL must be absolute http(s); trailing slashes are dropped.
func New(cfg *Config) (*Client, error) {
	base, err := NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return &Client{baseURL: base, http: hc, logger: l, metrics: cfg.Metrics}, nil
}

// NormalizeBaseURL checks that raw is an absolute http(s) URL and trims trailing slashes.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid base url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid base url %q: missing host", raw)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("invalid base url %q: query and fragment are not allowed", raw)
	}
	return strings.TrimRight(raw, "/"), nil
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string { return c.baseURL }

// URL returns the full address of an endpoint path such as "/search".
func (c *Client) URL(path string) string { return c.baseURL + APIPrefix + path }

// Get issues a GET without body and returns the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(ctx, req, path)
}

// PostJSON posts a JSON body. A nil body sends an empty request.
func (c *Client) PostJSON(ctx context.Context, path string, body []byte) ([]byte, error) {
	var rd io.Reader = http.NoBody
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(ctx, req, path)
}

// Part is one section of a multipart/form-data body.
type Part struct {
	Name        string
	Filename    string // set for file parts
	ContentType string // defaults to application/octet-stream for file parts
	Body        io.Reader
}

var errRequestDone = errors.New("request finished")

// PostMultipart streams parts as multipart/form-data through a pipe, so file
// content is never buffered whole. The writer goroutine has always exited when
// PostMultipart returns, so callers may close part readers right after.
func (c *Client) PostMultipart(ctx context.Context, path string, parts []Part) ([]byte, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	written := make(chan error, 1)
	go func() {
		err := writeParts(mw, parts)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
		written <- err
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(path), pr)
	if err != nil {
		pr.CloseWithError(err)
		<-written
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(ctx, req, path)
	pr.CloseWithError(errRequestDone)
	writeErr := <-written

	if writeErr != nil && !errors.Is(writeErr, errRequestDone) && !errors.Is(writeErr, io.ErrClosedPipe) {
		return nil, fmt.Errorf("write multipart body: %w", writeErr)
	}
	return body, err
}

func writeParts(mw *multipart.Writer, parts []Part) error {
	for _, p := range parts {
		params := map[string]string{"name": p.Name}
		contentType := p.ContentType
		if p.Filename != "" {
			params["filename"] = p.Filename
			if contentType == "" {
				contentType = "application/octet-stream"
			}
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", mime.FormatMediaType("form-data", params))
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		w, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("create part %q: %w", p.Name, err)
		}
		if _, err := io.Copy(w, p.Body); err != nil {
			return fmt.Errorf("copy part %q: %w", p.Name, err)
		}
	}
	return nil
}

// do performs the exchange: exactly one attempt, whole body read, non-2xx mapped to TransportError.
func (c *Client) do(ctx context.Context, req *http.Request, endpoint string) ([]byte, error) {
	log := logger.FromContext(ctx, c.logger)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Observe(endpoint, 0, time.Since(start))
		log.Debug("ndb request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err),
		)
		return nil, &domain.TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	duration := time.Since(start)
	c.metrics.Observe(endpoint, resp.StatusCode, duration)
	log.Debug("ndb request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", duration),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       body,
			Err:        readErr,
		}
	}
	if readErr != nil {
		return nil, &domain.TransportError{Method: req.Method, URL: req.URL.String(), Err: readErr}
	}
	return body, nil
}
