// Package client is an HTTP client for the Shopfront public API. It
// mirrors the polling behavior of the site frontend: cached status
// reads, bounded retries on transient failures, and an ETag-aware
// poller that only reports real changes.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Record payloads as served by the API.
type (
	// StatusRecord is the open/closed flag with an optional notice.
	StatusRecord struct {
		Status      bool      `json:"status"`
		Notice      string    `json:"notice"`
		LastUpdated time.Time `json:"lastUpdated"`
	}

	// ImageEntry describes one stored gallery image.
	ImageEntry struct {
		Filename     string    `json:"filename"`
		OriginalName string    `json:"originalName"`
		UploadedAt   time.Time `json:"uploadedAt"`
		Size         int64     `json:"size"`
		Mimetype     string    `json:"mimetype"`
		Checksum     string    `json:"checksum"`
	}

	// GalleryRecord is the ordered list of gallery images.
	GalleryRecord struct {
		Images []ImageEntry `json:"images"`
	}

	// HeroRecord describes the hero background image. An empty Filename
	// means no hero is set.
	HeroRecord struct {
		Filename     string    `json:"filename"`
		OriginalName string    `json:"originalName"`
		UploadedAt   time.Time `json:"uploadedAt"`
		Size         int64     `json:"size"`
		Mimetype     string    `json:"mimetype"`
		Checksum     string    `json:"checksum"`
	}

	// Site bundles the three records for a full page render.
	Site struct {
		Status  StatusRecord
		Gallery GalleryRecord
		Hero    HeroRecord
	}
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetries sets how many times a failed read is retried. Client
// errors (4xx) are never retried.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// WithStatusCacheTTL sets how long Status responses are served from
// cache. Zero disables caching.
func WithStatusCacheTTL(d time.Duration) Option {
	return func(c *Client) { c.cacheTTL = d }
}

// Client reads the Shopfront public endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	cacheTTL   time.Duration

	mu         sync.Mutex
	cachedAt   time.Time
	cached     StatusRecord
	statusETag string
	lastPolled StatusRecord
	pollPrimed bool
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Second},
		retries:    2,
		cacheTTL:   30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current open/closed record, served from cache when
// a fresh copy is available.
func (c *Client) Status(ctx context.Context) (StatusRecord, error) {
	c.mu.Lock()
	if c.cacheTTL > 0 && !c.cachedAt.IsZero() && time.Since(c.cachedAt) < c.cacheTTL {
		rec := c.cached
		c.mu.Unlock()
		return rec, nil
	}
	c.mu.Unlock()

	var rec StatusRecord
	if _, err := c.getJSON(ctx, "/api/status", "", &rec); err != nil {
		return StatusRecord{}, err
	}

	c.mu.Lock()
	c.cached = rec
	c.cachedAt = time.Now()
	c.mu.Unlock()
	return rec, nil
}

// Gallery returns the gallery record.
func (c *Client) Gallery(ctx context.Context) (GalleryRecord, error) {
	var rec GalleryRecord
	if _, err := c.getJSON(ctx, "/api/gallery", "", &rec); err != nil {
		return GalleryRecord{}, err
	}
	if rec.Images == nil {
		rec.Images = []ImageEntry{}
	}
	return rec, nil
}

// Hero returns the hero background record.
func (c *Client) Hero(ctx context.Context) (HeroRecord, error) {
	var rec HeroRecord
	if _, err := c.getJSON(ctx, "/api/hero-background", "", &rec); err != nil {
		return HeroRecord{}, err
	}
	return rec, nil
}

// LoadAll fetches all three records concurrently. Each fetch fails
// independently; the returned error joins whatever failed while the
// successful records are still populated.
func (c *Client) LoadAll(ctx context.Context) (Site, error) {
	var (
		site Site
		wg   sync.WaitGroup
		errs [3]error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		site.Status, errs[0] = c.Status(ctx)
	}()
	go func() {
		defer wg.Done()
		site.Gallery, errs[1] = c.Gallery(ctx)
	}()
	go func() {
		defer wg.Done()
		site.Hero, errs[2] = c.Hero(ctx)
	}()
	wg.Wait()

	return site, errors.Join(errs[:]...)
}

// PollStatus polls the status endpoint every interval until ctx is
// cancelled, invoking onChange when the open flag or notice actually
// changed. Unchanged responses, including 304s from the If-None-Match
// handshake, fire nothing. The first successful read always fires.
func (c *Client) PollStatus(ctx context.Context, interval time.Duration, onChange func(StatusRecord)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.pollOnce(ctx, onChange)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.pollOnce(ctx, onChange)
		}
	}
}

func (c *Client) pollOnce(ctx context.Context, onChange func(StatusRecord)) {
	c.mu.Lock()
	etag := c.statusETag
	c.mu.Unlock()

	var rec StatusRecord
	newETag, err := c.getJSON(ctx, "/api/status", etag, &rec)
	if err != nil {
		// Transient failure, keep the last known state and retry on the
		// next tick.
		return
	}
	if newETag == etagNotModified {
		return
	}

	c.mu.Lock()
	c.statusETag = newETag
	changed := !c.pollPrimed || rec.Status != c.lastPolled.Status || rec.Notice != c.lastPolled.Notice
	c.lastPolled = rec
	c.pollPrimed = true
	c.cached = rec
	c.cachedAt = time.Now()
	c.mu.Unlock()

	if changed && onChange != nil {
		onChange(rec)
	}
}

// etagNotModified is returned by getJSON when the server answered 304.
const etagNotModified = "\x00not-modified"

// getJSON fetches path and decodes the body into out, retrying
// transient failures with doubling backoff. When etag is non-empty it
// is sent as If-None-Match; a 304 response returns etagNotModified and
// leaves out untouched.
func (c *Client) getJSON(ctx context.Context, path, etag string, out any) (string, error) {
	backoff := 250 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		respETag, retryable, err := c.doGet(ctx, path, etag, out)
		if err == nil {
			return respETag, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (c *Client) doGet(ctx context.Context, path, etag string, out any) (respETag string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", false, fmt.Errorf("create request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return etagNotModified, false, nil
	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", true, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return "", false, fmt.Errorf("decode %s: %w", path, err)
	}
	return resp.Header.Get("ETag"), false, nil
}
