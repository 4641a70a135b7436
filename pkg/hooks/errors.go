package hooks

import (
	"fmt"

	"github.com/cperrin88/inkwell/pkg/errutils"
)

var (
	// ErrHookExecution is returned when there's an error executing a hook.
	ErrHookExecution = fmt.Errorf("error executing hook")

	// ErrHookScript is returned when a hook script sets err.
	ErrHookScript = fmt.Errorf("hook script error")

	// ErrHookLoad is returned when there's an error loading a hook.
	ErrHookLoad = fmt.Errorf("failed to load hook")
)

// ErrUnsupportedHookType is returned for hook types inkwell does not run.
func ErrUnsupportedHookType(hookType HookType) error {
	return errutils.Wrapf(ErrHookLoad, "unsupported hook type: %s", hookType)
}
