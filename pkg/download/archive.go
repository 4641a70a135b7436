package download

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
)

// extractVariant copies the archive member matching id's variant next to
// archivePath and returns the copy's path.
func extractVariant(ctx context.Context, archivePath string, id font.Identifier) (string, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w: %w", errutils.ErrDownloadFailed, err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	members, err := fontMembers(fsys)
	if err != nil {
		return "", fmt.Errorf("failed to list archive: %w: %w", errutils.ErrDownloadFailed, err)
	}
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	name, ok := font.MatchVariant(id.Family, names, id.Variant)
	if !ok {
		return "", errutils.ErrVariantNotFoundFor(id.Key())
	}

	src, err := fsys.Open(members[name])
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w: %w", members[name], errutils.ErrDownloadFailed, err)
	}
	defer func() { _ = src.Close() }()

	return writeBodyToTemp(src, filepath.Dir(archivePath), "dl-*.tmp")
}

// fontMembers maps the base name (without extension) of every font file in
// fsys to its path. The first member wins when base names repeat.
func fontMembers(fsys fs.FS) (map[string]string, error) {
	members := map[string]string{}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "__MACOSX" {
				return fs.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".ttf" && ext != ".otf" {
			return nil
		}
		base := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if _, seen := members[base]; !seen {
			members[base] = p
		}
		return nil
	})
	return members, err
}
