package hooks

import (
	"os"

	"github.com/cperrin88/inkwell/pkg/errutils"
)

// LoadFiles reads one script file per hook type into the executor. Empty paths are ignored.
func LoadFiles(executor *TengoExecutor, files map[HookType]string) error {
	for hookType, path := range files {
		if path == "" {
			continue
		}
		if !hookType.Valid() {
			return ErrUnsupportedHookType(hookType)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return errutils.Wrapf(ErrHookLoad, "%s: %v", path, err)
		}
		executor.AddScript(hookType, string(content))
	}
	return nil
}
