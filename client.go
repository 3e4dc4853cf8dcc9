package ndb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ThirdAILabs/ndb-client/internal/metrics"
	"github.com/ThirdAILabs/ndb-client/internal/transport/rest"
	"github.com/ThirdAILabs/ndb-client/internal/wire"
)

// Endpoint paths under {base_url}/api/v1.
const (
	pathSearch     = "/search"
	pathInsert     = "/insert"
	pathDelete     = "/delete"
	pathUpvote     = "/upvote"
	pathSources    = "/sources"
	pathCheckpoint = "/checkpoint"
)

var errNotRegularFile = errors.New("not a regular file")

// openFile is replaced in tests to observe the file handle.
var openFile = openRegularFile

// openRegularFile opens name for upload. Directories and other non-regular
// files are refused here because os.Open accepts them and the read would
// only fail once the request body is streaming.
func openRegularFile(name string) (io.ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: errNotRegularFile}
	}
	return f, nil
}

// Client is the NDB entry point. It holds no mutable state and is safe for concurrent use.
type Client struct {
	transport *rest.Client
	obs       *observer
}

// New creates a Client bound to baseURL, e.g. "http://localhost:8000".
// The URL must be absolute http(s); trailing slashes are ignored.
// No request is made until an operation is called.
func New(baseURL string, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	var httpMetrics *metrics.HTTP
	if cfg.metricsReg != nil {
		var err error
		httpMetrics, err = metrics.NewHTTP(cfg.metricsReg)
		if err != nil {
			return nil, err
		}
	}

	transport, err := rest.New(&rest.Config{
		BaseURL:    baseURL,
		HTTPClient: cfg.httpClient,
		Logger:     cfg.logger,
		Metrics:    httpMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("ndb: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	return &Client{transport: transport, obs: obs}, nil
}

// BaseURL returns the normalized server address.
func (c *Client) BaseURL() string { return c.transport.BaseURL() }

// Search sends params to POST /search and validates the response.
func (c *Client) Search(ctx context.Context, params SearchParams) (resp SearchResponse, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	body, err := wire.EncodeSearchParams(params)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	data, err := c.transport.PostJSON(ctx, pathSearch, body)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: %w", err)
	}
	resp, err = wire.DecodeSearchResponse(data)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("search: response: %w", err)
	}
	return resp, nil
}

// Insert uploads the file named by meta.Filename() with its metadata to POST /insert.
// The file is opened before any network call, so a missing or unreadable file
// fails with the os error alone. The file is closed before Insert returns.
func (c *Client) Insert(ctx context.Context, meta DocumentMetadata) (raw Raw, err error) {
	start := time.Now()
	defer func() { c.obs.observe("insert", start, err) }()

	metaJSON, err := wire.EncodeDocumentMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	f, err := openFile(meta.Filename())
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && c.obs.logger != nil {
			c.obs.logger.Warn("close insert file", zap.String("file", meta.Filename()), zap.Error(cerr))
		}
	}()

	data, err := c.transport.PostMultipart(ctx, pathInsert, []rest.Part{
		{Name: "file", Filename: meta.BaseName(), Body: f},
		{Name: "metadata", ContentType: "application/json", Body: bytes.NewReader(metaJSON)},
	})
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	return c.passThrough("insert", data)
}

// Delete removes sources via POST /delete and returns the server's reply unchanged.
func (c *Client) Delete(ctx context.Context, params DeleteParams) (raw Raw, err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	body, err := wire.EncodeDeleteParams(params)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	data, err := c.transport.PostJSON(ctx, pathDelete, body)
	if err != nil {
		return nil, fmt.Errorf("delete: %w", err)
	}
	return c.passThrough("delete", data)
}

// Upvote sends relevance feedback via POST /upvote and returns the server's reply unchanged.
func (c *Client) Upvote(ctx context.Context, params UpvoteParams) (raw Raw, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upvote", start, err) }()

	body, err := wire.EncodeUpvoteParams(params)
	if err != nil {
		return nil, fmt.Errorf("upvote: %w", err)
	}
	data, err := c.transport.PostJSON(ctx, pathUpvote, body)
	if err != nil {
		return nil, fmt.Errorf("upvote: %w", err)
	}
	return c.passThrough("upvote", data)
}

// Sources lists ingested sources via GET /sources.
func (c *Client) Sources(ctx context.Context) (sources []Source, err error) {
	start := time.Now()
	defer func() { c.obs.observe("sources", start, err) }()

	data, err := c.transport.Get(ctx, pathSources)
	if err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	sources, err = wire.DecodeSources(data)
	if err != nil {
		return nil, fmt.Errorf("sources: response: %w", err)
	}
	return sources, nil
}

// Checkpoint asks the server to persist its index via POST /checkpoint.
// NewCheckpoint() is false when nothing changed since the last checkpoint.
func (c *Client) Checkpoint(ctx context.Context) (res CheckpointResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("checkpoint", start, err) }()

	data, err := c.transport.PostJSON(ctx, pathCheckpoint, nil)
	if err != nil {
		return CheckpointResult{}, fmt.Errorf("checkpoint: %w", err)
	}
	res, err = wire.DecodeCheckpoint(data)
	if err != nil {
		return CheckpointResult{}, fmt.Errorf("checkpoint: response: %w", err)
	}
	return res, nil
}

func (c *Client) passThrough(op string, data []byte) (Raw, error) {
	raw, err := wire.CheckRaw(data)
	if err != nil {
		return nil, fmt.Errorf("%s: response: %w", op, err)
	}
	return Raw(raw), nil
}
