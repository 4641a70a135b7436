//go:generate mockgen -destination=./mocks/operation.go -package=mocks . Resolver,LocalFiles,Catalog,Fetcher,Registrar,Renderer

package operation

import (
	"context"
	"net/url"

	xfont "golang.org/x/image/font"

	"github.com/cperrin88/inkwell/pkg/catalog"
	"github.com/cperrin88/inkwell/pkg/font"
)

// Resolver finds an already known platform name for an identifier.
type Resolver interface {
	Resolve(id font.Identifier) (string, bool)
}

// LocalFiles answers questions about downloaded font files.
type LocalFiles interface {
	FileExists(id font.Identifier) bool
	FontPath(id font.Identifier) string
}

// Catalog is the subset of the catalog client used by an operation.
type Catalog interface {
	Exists() bool
	Fetch(ctx context.Context) (*catalog.Snapshot, error)
	FileURL(id font.Identifier, snap *catalog.Snapshot) (*url.URL, bool)
}

// Fetcher downloads a font file to its local path.
type Fetcher interface {
	Download(ctx context.Context, id font.Identifier, u *url.URL) (string, error)
}

// Registrar registers a local font file with the platform.
type Registrar interface {
	Register(id font.Identifier) bool
}

// Renderer turns a platform name into a face.
type Renderer interface {
	Instantiate(name string, size float64) (xfont.Face, bool)
}

// Deps bundles the collaborators of an operation.
type Deps struct {
	Resolver  Resolver
	Files     LocalFiles
	Catalog   Catalog
	Fetcher   Fetcher
	Registrar Registrar
	Renderer  Renderer
}

// State is the lifecycle state of an operation.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the operation has finished.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Phase is the step a running operation is in.
type Phase int32

const (
	PhaseNone Phase = iota
	PhaseResolvingLocal
	PhaseFetchingMetadata
	PhaseDownloading
	PhaseRegistering
	PhaseFinishing
)

func (p Phase) String() string {
	switch p {
	case PhaseResolvingLocal:
		return "resolving-local"
	case PhaseFetchingMetadata:
		return "fetching-metadata"
	case PhaseDownloading:
		return "downloading"
	case PhaseRegistering:
		return "registering"
	case PhaseFinishing:
		return "finishing"
	default:
		return "none"
	}
}

// Event represents a progress notification.
type Event struct {
	Phase Phase
	ID    string // operation ID
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Result is delivered to the completion callback exactly once.
// A nil Handle means the font is unavailable; Err says why.
type Result struct {
	ID             string
	Identifier     font.Identifier
	Handle         xfont.Face
	PostscriptName string
	// Path is the local font file, when the operation touched one.
	Path      string
	Err       error
	Cancelled bool
}

// OK reports whether a handle was produced.
func (r Result) OK() bool { return r.Handle != nil }
