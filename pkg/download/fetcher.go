// Package download fetches font files to their deterministic local paths.
package download

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/fsutil"
	"github.com/cperrin88/inkwell/pkg/storage"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "inkwell/1.0"
)

// Fetcher streams font files into storage.
type Fetcher struct {
	client    *http.Client
	userAgent string
	store     *storage.Storage
}

// NewFetcher returns a Fetcher writing into store. A nil client gets DefaultTimeout.
func NewFetcher(store *storage.Storage, client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Fetcher{client: client, userAgent: userAgent, store: store}
}

// Download fetches u and stores it at the identifier's font path, replacing
// any existing file. Zip archives are unpacked and the member matching the
// identifier's variant is kept. Cancelling ctx aborts the transfer and leaves
// the destination untouched.
func (f *Fetcher) Download(ctx context.Context, id font.Identifier, u *url.URL) (string, error) {
	if u == nil {
		return "", fmt.Errorf("nil URL: %w", errutils.ErrDownloadFailed)
	}
	absPath := f.store.FontPath(id)

	resp, err := f.doRequest(ctx, u)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	zipped := isZip(resp, u)
	pattern := "dl-*.tmp"
	if zipped {
		pattern = "dl-*.zip"
	}
	tmpPath, err := writeBodyToTemp(resp.Body, filepath.Dir(absPath), pattern)
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(tmpPath) }()

	src := tmpPath
	if zipped {
		extracted, err := extractVariant(ctx, tmpPath, id)
		if err != nil {
			return "", err
		}
		defer func() { _ = os.Remove(extracted) }()
		src = extracted
	}

	if err := finalizeFile(src, absPath); err != nil {
		return "", err
	}
	logger.Debug("Downloaded font file", logger.Fields{"key": id.Key(), "path": absPath})
	return absPath, nil
}

func (f *Fetcher) doRequest(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w: %w", errutils.ErrDownloadFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrDownloadFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, errutils.ErrDownloadFailed)
	}
	return resp, nil
}

func isZip(resp *http.Response, u *url.URL) bool {
	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		if mediaType == "application/zip" || mediaType == "application/x-zip-compressed" {
			return true
		}
	}
	return strings.EqualFold(path.Ext(u.Path), ".zip")
}

func writeBodyToTemp(body io.Reader, dir, pattern string) (string, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("could not create download dir: %w: %w", errutils.ErrDownloadFailed, err)
	}
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("could not create temp file: %w: %w", errutils.ErrDownloadFailed, err)
	}
	tmpPath := tmp.Name()

	fail := func(msg string, err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("%s: %w: %w", msg, errutils.ErrDownloadFailed, err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		return fail("could not write file", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("could not sync file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("could not close file: %w: %w", errutils.ErrDownloadFailed, err)
	}
	return tmpPath, nil
}

func finalizeFile(tmpPath, absPath string) error {
	if err := fsutil.Move(tmpPath, absPath); err != nil {
		return fmt.Errorf("could not finalize file: %w: %w", errutils.ErrDownloadFailed, err)
	}
	if err := os.Chmod(absPath, fsutil.FileModeDefault); err != nil {
		return errutils.Wrap(err, "could not set permissions")
	}
	return nil
}
