package storage

import (
	"os"
	"path/filepath"

	"github.com/cperrin88/inkwell/pkg/errutils"
)

// CleanOptions specifies what to remove from storage.
type CleanOptions struct {
	All     bool
	Catalog bool
	Fonts   bool
	Names   bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed   int64
	CatalogFreed int64
	FontsFreed   int64
	NamesFreed   int64
}

// Info describes the current storage usage.
type Info struct {
	Directory     string
	TotalSize     int64
	CatalogSize   int64
	FontsSize     int64
	FontFiles     int
	NameCacheSize int64
}

// Info returns sizes and counts for the storage root.
func (s *Storage) Info() (*Info, error) {
	info := &Info{Directory: s.root}

	fontsSize, fontFiles, err := getDirSizeAndFiles(s.FontsDir())
	if err != nil {
		return nil, errutils.Wrap(err, "failed to get font storage info")
	}
	info.FontsSize = fontsSize
	info.FontFiles = fontFiles
	info.CatalogSize = fileSize(s.CatalogPath())
	info.NameCacheSize = fileSize(s.NameCachePath()) + fileSize(s.NameCacheDBPath())
	info.TotalSize = info.FontsSize + info.CatalogSize + info.NameCacheSize

	return info, nil
}

// Clean removes stored data according to options. With no flags set everything is removed.
func (s *Storage) Clean(options CleanOptions) (*CleanResult, error) {
	result := &CleanResult{}

	if !options.Catalog && !options.Fonts && !options.Names {
		options.All = true
	}

	if options.All || options.Catalog {
		result.CatalogFreed = fileSize(s.CatalogPath())
		if err := s.RemoveCatalog(); err != nil {
			return nil, err
		}
	}

	if options.All || options.Fonts {
		size, err := cleanDirectory(s.FontsDir())
		if err != nil {
			return nil, errutils.Wrap(err, "failed to clean font files")
		}
		result.FontsFreed = size
	}

	if options.All || options.Names {
		for _, p := range []string{s.NameCachePath(), s.NameCacheDBPath()} {
			size := fileSize(p)
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				return nil, errutils.Wrapf(err, "failed to remove %s", p)
			}
			result.NamesFreed += size
		}
	}

	result.TotalFreed = result.CatalogFreed + result.FontsFreed + result.NamesFreed
	return result, nil
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return 0
	}
	return fi.Size()
}

// cleanDirectory removes a directory and returns bytes freed.
func cleanDirectory(dir string) (int64, error) {
	size, _, err := getDirSizeAndFiles(dir)
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, errutils.Wrapf(err, "failed to remove directory %s", dir)
	}
	return size, nil
}

// getDirSizeAndFiles calculates directory size and file count. A missing
// directory counts as empty.
func getDirSizeAndFiles(dir string) (size int64, count int, err error) {
	if _, err = os.Stat(dir); os.IsNotExist(err) {
		return 0, 0, nil
	}

	err = filepath.Walk(dir, func(_ string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.IsDir() {
			size += info.Size()
			count++
		}
		return nil
	})
	if err != nil {
		err = errutils.Wrapf(err, "error walking directory %s", dir)
	}
	return size, count, err
}
