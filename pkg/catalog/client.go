// Package catalog fetches and parses the remote font catalog.
package catalog

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/storage"
)

const (
	// DefaultEndpoint is the Google Fonts developer API.
	DefaultEndpoint  = "https://www.googleapis.com/webfonts/v1/webfonts"
	DefaultUserAgent = "inkwell/1.0"
)

// Options configures a Client.
type Options struct {
	Endpoint    string
	APIKey      string
	UserAgent   string
	AllVariants bool
	HTTPClient  *http.Client
	// Limiter throttles catalog requests. Nil disables throttling.
	Limiter *rate.Limiter
}

// Client fetches the catalog and keeps the last parsed snapshot in memory.
type Client struct {
	opts  Options
	store *storage.Storage

	mu    sync.Mutex
	cache *Snapshot
}

// New returns a Client persisting snapshots in store.
func New(store *storage.Storage, opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{opts: opts, store: store}
}

// Exists reports whether a snapshot is persisted.
func (c *Client) Exists() bool {
	return c.store.CatalogExists()
}

// Fetch downloads and parses the catalog. On success the persisted and
// in-memory snapshots are replaced; on any failure both are dropped and the
// returned error wraps ErrCatalogFetch.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	snap, err := c.fetch(ctx)

	c.mu.Lock()
	c.cache = snap
	c.mu.Unlock()

	if err != nil {
		if rmErr := c.store.RemoveCatalog(); rmErr != nil {
			logger.Warn("Failed to remove catalog snapshot", logger.Fields{"error": rmErr})
		}
		return nil, err
	}
	logger.Debug("Catalog fetched", logger.Fields{"families": snap.Len()})
	return snap, nil
}

func (c *Client) fetch(ctx context.Context) (*Snapshot, error) {
	body, err := c.download(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := Parse(body, c.opts.AllVariants)
	if err != nil {
		return nil, err
	}
	if err := c.store.WriteCatalog(body); err != nil {
		return nil, errutils.Wrap(errutils.ErrCatalogFetch, err.Error())
	}
	return snap, nil
}

func (c *Client) download(ctx context.Context) ([]byte, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, errutils.Wrap(errutils.ErrCatalogFetch, err.Error())
		}
	}

	u, err := url.Parse(c.opts.Endpoint)
	if err != nil {
		return nil, errutils.Wrapf(errutils.ErrCatalogFetch, "invalid endpoint %q", c.opts.Endpoint)
	}
	q := u.Query()
	q.Set("key", c.opts.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrCatalogFetch, err.Error())
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrCatalogFetch, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errutils.Wrapf(errutils.ErrCatalogFetch, "unexpected status code: %d", resp.StatusCode)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return nil, errutils.Wrapf(errutils.ErrCatalogFetch, "unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrCatalogFetch, err.Error())
	}
	return body, nil
}

// Snapshot returns the in-memory snapshot, parsing the persisted one on first use.
func (c *Client) Snapshot() (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cache != nil {
		return c.cache, nil
	}

	data, err := c.store.ReadCatalog()
	if err != nil {
		return nil, err
	}
	snap, err := Parse(data, c.opts.AllVariants)
	if err != nil {
		return nil, err
	}
	c.cache = snap
	return snap, nil
}

// FileURL looks up id's download URL in snap, or in the current snapshot when snap is nil.
func (c *Client) FileURL(id font.Identifier, snap *Snapshot) (*url.URL, bool) {
	if snap == nil {
		var err error
		if snap, err = c.Snapshot(); err != nil {
			logger.Debug("No catalog snapshot available", logger.Fields{"error": err})
			return nil, false
		}
	}
	return snap.FileURL(id)
}
