// Package inkwell is the entry point for acquiring fonts. Acquire turns a
// family and variant into a face, downloading and registering the font first
// when it is not available locally. All acquisitions run one at a time on a
// single worker; completions are delivered through a Dispatcher.
package inkwell

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/catalog"
	"github.com/cperrin88/inkwell/pkg/config"
	"github.com/cperrin88/inkwell/pkg/download"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/hooks"
	"github.com/cperrin88/inkwell/pkg/operation"
	"github.com/cperrin88/inkwell/pkg/platform"
	"github.com/cperrin88/inkwell/pkg/registrar"
	"github.com/cperrin88/inkwell/pkg/resolver"
	"github.com/cperrin88/inkwell/pkg/storage"
	"github.com/cperrin88/inkwell/pkg/telemetry"
)

// DefaultHTTPTimeout applies when Options.HTTPClient is nil and no timeout is set.
const DefaultHTTPTimeout = 30 * time.Second

// Options configures an Inkwell. The zero value is usable: fonts are kept in
// the per-user data directory and the public catalog endpoint is used.
type Options struct {
	APIKey          string
	CatalogEndpoint string
	AllVariants     bool
	UserAgent       string

	// StorageRoot defaults to the per-user data directory.
	StorageRoot      string
	NameCacheBackend string // storage.BackendFile or storage.BackendSQLite

	HTTPClient  *http.Client
	HTTPTimeout time.Duration
	// RequestsPerSecond throttles catalog requests; 0 disables throttling.
	RequestsPerSecond float64
	Burst             int

	// Platform defaults to a platform.Library preloaded from SystemFontDirs.
	Platform       platform.Platform
	SystemFontDirs []string

	// Dispatcher defaults to a SerialDispatcher owned by the Inkwell.
	Dispatcher Dispatcher
	Hooks      *hooks.TengoExecutor
	OnEvent    func(operation.Event)

	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// Inkwell owns the acquisition pipeline.
type Inkwell struct {
	store     *storage.Storage
	names     storage.NameCache
	catalog   *catalog.Client
	fetcher   *download.Fetcher
	platform  platform.Platform
	resolver  *resolver.Resolver
	registrar *registrar.Registrar

	queue      *Queue
	dispatcher Dispatcher
	serial     *SerialDispatcher
	hooks      *hooks.TengoExecutor
	telemetry  *telemetry.Recorder
	onEvent    func(operation.Event)

	closeOnce sync.Once
}

// New wires the pipeline and starts its worker.
func New(opts Options) (*Inkwell, error) {
	store, err := openStorage(opts.StorageRoot)
	if err != nil {
		return nil, err
	}
	names, err := store.OpenNameCache(opts.NameCacheBackend)
	if err != nil {
		return nil, err
	}

	rec, err := telemetry.New(opts.MeterProvider, opts.TracerProvider)
	if err != nil {
		closeNames(names)
		return nil, errutils.Wrap(err, "failed to create telemetry instruments")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.HTTPTimeout
		if timeout <= 0 {
			timeout = DefaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	plat := opts.Platform
	if plat == nil {
		plat = loadLibrary(opts.SystemFontDirs)
	}

	iw := &Inkwell{
		store: store,
		names: names,
		catalog: catalog.New(store, catalog.Options{
			Endpoint:    opts.CatalogEndpoint,
			APIKey:      opts.APIKey,
			UserAgent:   opts.UserAgent,
			AllVariants: opts.AllVariants,
			HTTPClient:  httpClient,
			Limiter:     limiter,
		}),
		fetcher:    download.NewFetcher(store, httpClient, opts.UserAgent),
		platform:   plat,
		resolver:   resolver.New(names, plat),
		registrar:  registrar.New(store, plat, names),
		dispatcher: opts.Dispatcher,
		hooks:      opts.Hooks,
		telemetry:  rec,
		onEvent:    opts.OnEvent,
	}
	if iw.dispatcher == nil {
		iw.serial = NewSerialDispatcher()
		iw.dispatcher = iw.serial
	}
	iw.queue = NewQueue()

	logger.Debug("Inkwell ready", logger.Fields{"storage": store.Root(), "backend": opts.NameCacheBackend})
	return iw, nil
}

// OptionsFromConfig maps a loaded configuration onto Options and loads the
// configured hook scripts.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	opts := Options{
		APIKey:            cfg.Catalog.APIKey,
		CatalogEndpoint:   cfg.Catalog.Endpoint,
		AllVariants:       cfg.Catalog.AllVariants,
		UserAgent:         cfg.Settings.UserAgent,
		StorageRoot:       cfg.Settings.StorageDir,
		NameCacheBackend:  cfg.Settings.NameCacheBackend,
		HTTPTimeout:       cfg.Settings.HTTPTimeout,
		RequestsPerSecond: cfg.Settings.RequestsPerSecond,
		Burst:             cfg.Settings.Burst,
		SystemFontDirs:    cfg.Settings.SystemFontDirs,
	}
	if cfg.Hooks.PostAcquire != "" || cfg.Hooks.AcquireFailed != "" {
		executor := hooks.NewTengoExecutor()
		err := hooks.LoadFiles(executor, map[hooks.HookType]string{
			hooks.PostAcquire:   cfg.Hooks.PostAcquire,
			hooks.AcquireFailed: cfg.Hooks.AcquireFailed,
		})
		if err != nil {
			return Options{}, err
		}
		opts.Hooks = executor
	}
	return opts, nil
}

// FromConfig is New(OptionsFromConfig(cfg)).
func FromConfig(cfg *config.Config) (*Inkwell, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return New(opts)
}

func openStorage(root string) (*storage.Storage, error) {
	if root == "" {
		return storage.NewDefault()
	}
	return storage.New(root)
}

func loadLibrary(dirs []string) *platform.Library {
	lib := platform.NewLibrary()
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			logger.Debug("Skipping missing font directory", logger.Fields{"dir": dir})
			continue
		}
		n, err := lib.LoadDir(dir)
		if err != nil {
			logger.Warn("Failed to load system fonts", logger.Fields{"dir": dir, "error": err})
			continue
		}
		logger.Debug("Loaded system fonts", logger.Fields{"dir": dir, "count": n})
	}
	return lib
}

func closeNames(names storage.NameCache) {
	if c, ok := names.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close name cache", logger.Fields{"error": err})
		}
	}
}

// AcquireOption customizes a single acquisition.
type AcquireOption func(*acquireOptions)

type acquireOptions struct {
	fallbackURL *url.URL
	onEvent     func(operation.Event)
}

// WithFallbackURL downloads u when the catalog has no file for the identifier.
func WithFallbackURL(u *url.URL) AcquireOption {
	return func(o *acquireOptions) { o.fallbackURL = u }
}

// WithEvents receives progress events of this acquisition on the worker goroutine.
func WithEvents(fn func(operation.Event)) AcquireOption {
	return func(o *acquireOptions) { o.onEvent = fn }
}

// Handle cancels an acquisition.
type Handle struct {
	op *operation.Operation
}

// ID returns the acquisition's operation ID.
func (h *Handle) ID() string { return h.op.ID() }

// Cancel stops the acquisition. Its completion still runs, without a face.
func (h *Handle) Cancel() { h.op.Cancel() }

// Acquire queues an acquisition of id at size points. completion receives the
// result exactly once through the Dispatcher; a nil Result.Handle means the
// font is unavailable and the caller should fall back.
func (iw *Inkwell) Acquire(id font.Identifier, size float64, completion func(operation.Result), opts ...AcquireOption) *Handle {
	var ao acquireOptions
	for _, o := range opts {
		o(&ao)
	}

	var (
		tracker  *telemetry.Tracker
		rejected bool
	)
	deps := operation.Deps{
		Resolver:  iw.resolver,
		Files:     iw.store,
		Catalog:   iw.catalog,
		Fetcher:   iw.fetcher,
		Registrar: iw.registrar,
		Renderer:  iw.platform,
	}
	opOpts := operation.Options{
		Size:        size,
		FallbackURL: ao.fallbackURL,
		Hooks: operation.Hooks{OnEvent: func(e operation.Event) {
			tracker.Phase(e.Phase.String(), e.Msg)
			if iw.onEvent != nil {
				iw.onEvent(e)
			}
			if ao.onEvent != nil {
				ao.onEvent(e)
			}
		}},
	}
	op := operation.New(id, deps, opOpts, func(r operation.Result) {
		if rejected {
			r.Err = errutils.ErrQueueClosed
		}
		iw.complete(r, tracker, completion)
	})
	tracker = iw.telemetry.Track(context.Background(), op.ID(), id.Family, id.Variant.Code())
	iw.telemetry.Queued(context.Background(), 1)

	if err := iw.queue.Enqueue(op); err != nil {
		logger.Warn("Acquisition rejected", logger.Fields{"key": id.Key(), "error": err})
		rejected = true
		op.Cancel()
	}
	return &Handle{op: op}
}

// AcquireAndWait runs an acquisition and blocks until it completes. Cancelling
// ctx cancels the acquisition.
func (iw *Inkwell) AcquireAndWait(ctx context.Context, id font.Identifier, size float64, opts ...AcquireOption) operation.Result {
	ch := make(chan operation.Result, 1)
	h := iw.Acquire(id, size, func(r operation.Result) { ch <- r }, opts...)
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		h.Cancel()
		return <-ch
	}
}

func (iw *Inkwell) complete(r operation.Result, tracker *telemetry.Tracker, completion func(operation.Result)) {
	outcome := telemetry.OutcomeFailure
	switch {
	case r.Cancelled:
		outcome = telemetry.OutcomeCancelled
	case r.OK():
		outcome = telemetry.OutcomeSuccess
	}

	iw.runHooks(r)
	tracker.End(outcome, r.Err)
	iw.telemetry.Queued(context.Background(), -1)

	if completion != nil {
		iw.dispatcher.Dispatch(func() { completion(r) })
	}
}

func (iw *Inkwell) runHooks(r operation.Result) {
	if iw.hooks == nil || r.Cancelled {
		return
	}
	hookType := hooks.AcquireFailed
	if r.OK() {
		hookType = hooks.PostAcquire
	}
	if !iw.hooks.HasScript(hookType) {
		return
	}

	hc := hooks.HookContext{
		Family:         r.Identifier.Family,
		Variant:        r.Identifier.Variant.Code(),
		Key:            r.Identifier.Key(),
		Path:           r.Path,
		PostscriptName: r.PostscriptName,
	}
	if hc.Path == "" && iw.store.FileExists(r.Identifier) {
		hc.Path = iw.store.FontPath(r.Identifier)
	}
	if r.Err != nil {
		hc.Failure = r.Err.Error()
	}
	if err := iw.hooks.Execute(hookType, hc); err != nil {
		logger.Warn("Hook failed", logger.Fields{"hook": string(hookType), "key": hc.Key, "error": err})
	}
}

// Resolve looks up the platform name for id without any I/O beyond the name cache.
func (iw *Inkwell) Resolve(id font.Identifier) (string, bool) {
	return iw.resolver.Resolve(id)
}

// Outstanding returns the number of acquisitions queued or running.
func (iw *Inkwell) Outstanding() int { return iw.queue.Outstanding() }

func (iw *Inkwell) Catalog() *catalog.Client    { return iw.catalog }
func (iw *Inkwell) Storage() *storage.Storage   { return iw.store }
func (iw *Inkwell) Names() storage.NameCache    { return iw.names }
func (iw *Inkwell) Platform() platform.Platform { return iw.platform }

// Close cancels outstanding acquisitions, waits for their completions to be
// dispatched and releases the name cache.
func (iw *Inkwell) Close() error {
	iw.closeOnce.Do(func() {
		iw.queue.Close()
		if iw.serial != nil {
			iw.serial.Close()
		}
		closeNames(iw.names)
	})
	return nil
}
