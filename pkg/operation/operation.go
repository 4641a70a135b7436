// Package operation implements the font acquisition state machine:
// resolve locally, otherwise fetch catalog metadata, download, register and
// resolve again.
package operation

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/catalog"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
)

// Options control a single operation.
type Options struct {
	Size float64
	// FallbackURL is downloaded when the catalog has no file for the identifier.
	FallbackURL *url.URL
	Hooks       Hooks
}

// Operation acquires one font. Start runs it on the caller's goroutine;
// Cancel may be called from any goroutine.
type Operation struct {
	id         string
	ident      font.Identifier
	deps       Deps
	opts       Options
	completion func(Result)

	state     atomic.Int32
	phase     atomic.Int32
	cancelled atomic.Bool

	mu       sync.Mutex
	cancelFn context.CancelFunc

	once sync.Once
}

// New creates an idle operation. completion may be nil.
func New(ident font.Identifier, deps Deps, opts Options, completion func(Result)) *Operation {
	return &Operation{
		id:         uuid.NewString(),
		ident:      ident,
		deps:       deps,
		opts:       opts,
		completion: completion,
	}
}

func (o *Operation) ID() string                  { return o.id }
func (o *Operation) Identifier() font.Identifier { return o.ident }
func (o *Operation) State() State                { return State(o.state.Load()) }
func (o *Operation) Phase() Phase                { return Phase(o.phase.Load()) }
func (o *Operation) IsCancelled() bool           { return o.cancelled.Load() }

// Cancel stops the operation. An idle operation completes immediately without
// doing any work; a running one aborts its in-flight request and completes at
// the next phase boundary. Calling Cancel more than once has no extra effect.
func (o *Operation) Cancel() {
	o.cancelled.Store(true)
	if o.state.CompareAndSwap(int32(StateIdle), int32(StateCancelled)) {
		o.finishCancelled()
		return
	}
	o.mu.Lock()
	cancel := o.cancelFn
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Start runs the operation to completion. It returns immediately if the
// operation was already started or cancelled.
func (o *Operation) Start(ctx context.Context) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return
	}

	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.mu.Lock()
	o.cancelFn = cancel
	o.mu.Unlock()

	o.run(opCtx)
}

func (o *Operation) run(ctx context.Context) {
	if o.checkCancelled() {
		return
	}
	if err := o.ident.Validate(); err != nil {
		o.fail(err)
		return
	}

	o.enter(PhaseResolvingLocal, o.ident.Key())
	if o.finishWithLocal(false, "") {
		return
	}
	if o.checkCancelled() {
		return
	}

	if o.deps.Files.FileExists(o.ident) {
		o.register()
		return
	}

	var snap *catalog.Snapshot
	if !o.deps.Catalog.Exists() {
		o.enter(PhaseFetchingMetadata, "catalog snapshot missing")
		fresh, err := o.deps.Catalog.Fetch(ctx)
		if o.checkCancelled() {
			return
		}
		if err != nil {
			o.fail(err)
			return
		}
		snap = fresh
	}
	if o.checkCancelled() {
		return
	}

	o.enter(PhaseDownloading, "")
	u, ok := o.deps.Catalog.FileURL(o.ident, snap)
	if !ok {
		if o.opts.FallbackURL == nil {
			o.fail(errutils.ErrVariantNotFoundFor(o.ident.Key()))
			return
		}
		logger.Debug("Catalog has no file, using fallback URL", logger.Fields{"key": o.ident.Key(), "url": o.opts.FallbackURL.String()})
		u = o.opts.FallbackURL
	}
	if _, err := o.deps.Fetcher.Download(ctx, o.ident, u); err != nil {
		if o.checkCancelled() {
			return
		}
		o.fail(err)
		return
	}
	if o.checkCancelled() {
		return
	}

	o.register()
}

func (o *Operation) register() {
	o.enter(PhaseRegistering, "")
	registered := o.deps.Registrar.Register(o.ident)
	if o.checkCancelled() {
		return
	}
	if !o.finishWithLocal(true, o.deps.Files.FontPath(o.ident)) {
		if registered {
			o.fail(errutils.Wrap(errutils.ErrRegistration, "registered font could not be instantiated"))
			return
		}
		o.fail(errutils.Wrapf(errutils.ErrRegistration, "%s", o.ident.Key()))
	}
}

// finishWithLocal resolves the identifier and completes with a handle when it can.
func (o *Operation) finishWithLocal(finishing bool, path string) bool {
	name, ok := o.deps.Resolver.Resolve(o.ident)
	if !ok {
		return false
	}
	face, ok := o.deps.Renderer.Instantiate(name, o.opts.Size)
	if !ok {
		return false
	}
	if finishing {
		o.enter(PhaseFinishing, name)
	}
	o.finish(Result{Handle: face, PostscriptName: name, Path: path})
	return true
}

func (o *Operation) checkCancelled() bool {
	if !o.cancelled.Load() {
		return false
	}
	o.finishCancelled()
	return true
}

func (o *Operation) fail(err error) {
	o.enter(PhaseFinishing, err.Error())
	logger.Warn("Font acquisition failed", logger.Fields{"key": o.ident.Key(), "error": err})
	o.finish(Result{Err: err})
}

func (o *Operation) finishCancelled() {
	o.finish(Result{Err: errutils.ErrCancelled, Cancelled: true})
}

// finish delivers r exactly once. Later calls are ignored.
func (o *Operation) finish(r Result) {
	delivered := false
	o.once.Do(func() {
		delivered = true
		r.ID = o.id
		r.Identifier = o.ident
		if r.Cancelled {
			o.state.Store(int32(StateCancelled))
		} else {
			o.state.Store(int32(StateCompleted))
		}
		o.emit(Event{Phase: o.Phase(), ID: o.id, Msg: State(o.state.Load()).String()})
		if o.completion != nil {
			o.completion(r)
		}
	})
	if !delivered && r.Handle != nil {
		_ = r.Handle.Close()
	}
}

func (o *Operation) enter(p Phase, msg string) {
	o.phase.Store(int32(p))
	logger.Debug("Operation phase", logger.Fields{"id": o.id, "key": o.ident.Key(), "phase": p.String()})
	o.emit(Event{Phase: p, ID: o.id, Msg: msg})
}

func (o *Operation) emit(e Event) {
	if o.opts.Hooks.OnEvent != nil {
		o.opts.Hooks.OnEvent(e)
	}
}
