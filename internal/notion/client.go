// Package notion is a read-only client for the Notion API: database to data
// source resolution, data source queries and block children listing.
package notion

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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/dgallion1/notioncms/internal/content"
)

const (
	DefaultBaseURL = "https://api.notion.com"
	DefaultVersion = "2025-09-03"
	DefaultRPS     = 3

	maxResponseBytes = 16 << 20
	blockPageSize    = 100
)

// Client talks to the Notion API with a single static credential.
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *CollectionCache
	stats      *Stats
	tracer     trace.Tracer
	log        *slog.Logger
	backoff    func(attempt int) time.Duration
	maxRetries int
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithVersion(v string) Option {
	return func(c *Client) { c.version = v }
}

// WithHTTPClient sets the base client; its transport is wrapped to add the
// credential.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces outgoing requests. rps <= 0 disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCollectionCache shares a resolution cache between clients.
func WithCollectionCache(cache *CollectionCache) Option {
	return func(c *Client) { c.cache = cache }
}

func WithStats(s *Stats) Option {
	return func(c *Client) { c.stats = s }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// WithBackoff overrides the wait between retries.
func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(c *Client) { c.backoff = fn }
}

func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// NewClient builds a client. An empty token fails with ErrMissingToken.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		version:    DefaultVersion,
		limiter:    rate.NewLimiter(rate.Limit(DefaultRPS), 1),
		backoff:    Backoff,
		maxRetries: MaxRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCollectionCache()
	}
	if c.stats == nil {
		c.stats = NewStats(time.Hour)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/dgallion1/notioncms/internal/notion")
	}

	base := c.httpClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c.httpClient = &http.Client{
		Timeout:   base.Timeout,
		Transport: &oauth2.Transport{Source: src, Base: base.Transport},
	}
	return c, nil
}

// Stats returns the latency recorder.
func (c *Client) Stats() *Stats { return c.stats }

// Cache returns the collection cache.
func (c *Client) Cache() *CollectionCache { return c.cache }

// ResolveCollection maps a database id to its first data source id. The
// result is memoized for the lifetime of the cache.
func (c *Client) ResolveCollection(ctx context.Context, databaseID string) (string, error) {
	return c.cache.Resolve(ctx, databaseID, c.lookupDataSource)
}

func (c *Client) lookupDataSource(ctx context.Context, databaseID string) (string, error) {
	var db wireDatabase
	if err := c.do(ctx, "databases.retrieve", http.MethodGet, "/v1/databases/"+url.PathEscape(databaseID), nil, &db); err != nil {
		return "", fmt.Errorf("retrieve database %s: %w", databaseID, err)
	}
	if len(db.DataSources) == 0 {
		return "", fmt.Errorf("database %s: %w", databaseID, ErrNoDataSources)
	}
	c.log.Debug("resolved data source", "database_id", databaseID, "data_source_id", db.DataSources[0].ID)
	return db.DataSources[0].ID, nil
}

// PageResult is one page of query results.
type PageResult struct {
	Pages      []content.Page
	HasMore    bool
	NextCursor string
}

// QueryPages returns a single page of results. It does not follow
// has_more; the caller bounds the result with Query.PageSize.
func (c *Client) QueryPages(ctx context.Context, dataSourceID string, q Query) ([]content.Page, error) {
	res, err := c.QueryResult(ctx, dataSourceID, q)
	if err != nil {
		return nil, err
	}
	return res.Pages, nil
}

// QueryResult is QueryPages with the continuation state exposed.
func (c *Client) QueryResult(ctx context.Context, dataSourceID string, q Query) (*PageResult, error) {
	var list wireList
	path := "/v1/data_sources/" + url.PathEscape(dataSourceID) + "/query"
	if err := c.do(ctx, "data_sources.query", http.MethodPost, path, q.normalized(), &list); err != nil {
		return nil, fmt.Errorf("query data source %s: %w", dataSourceID, err)
	}

	res := &PageResult{Pages: make([]content.Page, 0, len(list.Results)), HasMore: list.HasMore}
	if list.NextCursor != nil {
		res.NextCursor = *list.NextCursor
	}
	for _, raw := range list.Results {
		p, err := toPage(raw)
		if err != nil {
			return nil, err
		}
		res.Pages = append(res.Pages, p)
	}
	return res, nil
}

// RetrievePage returns a page's properties.
func (c *Client) RetrievePage(ctx context.Context, pageID string) (content.Page, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "pages.retrieve", http.MethodGet, "/v1/pages/"+url.PathEscape(pageID), nil, &raw); err != nil {
		return content.Page{}, fmt.Errorf("retrieve page %s: %w", pageID, err)
	}
	return toPage(raw)
}

// FetchBlocks returns every direct child block of a page, following
// continuation cursors until the listing is exhausted.
func (c *Client) FetchBlocks(ctx context.Context, pageID string) ([]content.Block, error) {
	var blocks []content.Block
	seen := make(map[string]bool)
	cursor := ""

	for {
		q := url.Values{}
		q.Set("page_size", fmt.Sprint(blockPageSize))
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		path := "/v1/blocks/" + url.PathEscape(pageID) + "/children?" + q.Encode()

		var list wireList
		if err := c.do(ctx, "blocks.children.list", http.MethodGet, path, nil, &list); err != nil {
			return nil, fmt.Errorf("fetch blocks %s: %w", pageID, err)
		}
		for _, raw := range list.Results {
			b, err := toBlock(raw)
			if err != nil {
				return nil, err
			}
			if !b.Type.Supported() {
				c.log.Debug("unsupported block type", "page_id", pageID, "block_id", b.ID, "type", b.Type)
			}
			blocks = append(blocks, b)
		}

		if !list.HasMore {
			return blocks, nil
		}
		next := ""
		if list.NextCursor != nil {
			next = *list.NextCursor
		}
		if next == "" || seen[next] {
			return nil, fmt.Errorf("fetch blocks %s: %w", pageID, ErrCursorLoop)
		}
		seen[next] = true
		cursor = next
	}
}

// do sends one API call, retrying transient failures, and decodes the JSON
// answer into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "notion."+op, trace.WithAttributes(
		attribute.String("http.request.method", method),
		attribute.String("notion.path", path),
	))
	defer span.End()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var err error
	attempts := 0
	for attempt := 0; ; attempt++ {
		attempts++
		err = c.send(ctx, method, path, payload, out)
		var retryErr *RetryableError
		if err == nil || !errors.As(err, &retryErr) || attempt >= c.maxRetries {
			break
		}

		wait := retryErr.RetryAfter
		if wait <= 0 {
			wait = c.backoff(attempt)
		}
		c.stats.RecordRetry()
		c.log.Warn("notion request retrying", "op", op, "status", retryErr.StatusCode, "attempt", attempt+1, "wait", wait)
		if serr := sleep(ctx, wait); serr != nil {
			err = serr
			break
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("notion.attempts", attempts))
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.stats.Record(time.Since(start), true)
		return fmt.Errorf("notion api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.stats.Record(time.Since(start), err != nil || resp.StatusCode != http.StatusOK)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
