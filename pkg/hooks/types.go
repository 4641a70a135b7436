package hooks

// HookType names the point in an acquisition where a script runs.
type HookType string

// Supported hook types.
const (
	PostAcquire   HookType = "post-acquire"
	AcquireFailed HookType = "acquire-failed"
)

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	return t == PostAcquire || t == AcquireFailed
}

// HookContext contains information passed to hooks.
type HookContext struct {
	Family         string
	Variant        string
	Key            string
	Path           string
	PostscriptName string
	Failure        string
	Vars           map[string]interface{}
}
