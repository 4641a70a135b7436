package download

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/storage"
	"github.com/cperrin88/inkwell/test/testutil"
)

var abeezee = font.Identifier{Family: "ABeeZee", Variant: font.Regular}

func newStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return s
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return
	}
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "dl-", "temp file left behind")
	}
}

func TestNewFetcher(t *testing.T) {
	tests := []struct {
		name       string
		client     *http.Client
		userAgent  string
		expectedUA string
		timeout    time.Duration
	}{
		{name: "defaults", expectedUA: DefaultUserAgent, timeout: DefaultTimeout},
		{name: "custom", client: &http.Client{Timeout: time.Second}, userAgent: "test-agent/1.0", expectedUA: "test-agent/1.0", timeout: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher(newStore(t), tt.client, tt.userAgent)
			assert.Equal(t, tt.expectedUA, f.userAgent)
			assert.Equal(t, tt.timeout, f.client.Timeout)
		})
	}
}

func TestDownload(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantErr   error
		wantBytes []byte
	}{
		{
			name: "successful download",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "inkwell-test", r.Header.Get("User-Agent"))
				_, _ = w.Write([]byte("font bytes"))
			},
			wantBytes: []byte("font bytes"),
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) },
			wantErr: errutils.ErrDownloadFailed,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantErr: errutils.ErrDownloadFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			store := newStore(t)

			path, err := NewFetcher(store, srv.Client(), "inkwell-test").
				Download(context.Background(), abeezee, mustParse(t, srv.URL+"/ABeeZee.ttf#regular"))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, store.FileExists(abeezee))
				assertNoTempFiles(t, store.FontsDir())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, store.FontPath(abeezee), path)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBytes, data)
			assertNoTempFiles(t, store.FontsDir())
		})
	}
}

func TestDownload_OverwritesExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("new"))
	}))
	defer srv.Close()
	store := newStore(t)
	require.NoError(t, os.MkdirAll(store.FontsDir(), 0o755))
	require.NoError(t, os.WriteFile(store.FontPath(abeezee), []byte("old"), 0o644))

	path, err := NewFetcher(store, srv.Client(), "").Download(context.Background(), abeezee, mustParse(t, srv.URL))
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestDownload_NilURL(t *testing.T) {
	_, err := NewFetcher(newStore(t), nil, "").Download(context.Background(), abeezee, nil)
	assert.ErrorIs(t, err, errutils.ErrDownloadFailed)
}

func TestDownload_CancelMidRequest(t *testing.T) {
	srv := testutil.NewCatalogServer(t)
	fileURL := srv.AddFont("ABeeZee", "regular", testutil.GoFont("regular"))
	started, release := srv.HoldFiles()
	defer release()
	store := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := NewFetcher(store, srv.Client(), "").Download(ctx, abeezee, mustParse(t, fileURL))
		errCh <- err
	}()

	<-started
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, errutils.ErrDownloadFailed)
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(5 * time.Second):
		t.Fatal("download did not abort after cancellation")
	}
	assert.False(t, store.FileExists(abeezee))
	assertNoTempFiles(t, store.FontsDir())
}

func buildZip(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDownload_Zip(t *testing.T) {
	archive := buildZip(t, map[string][]byte{
		"OFL.txt":                           []byte("license"),
		"static/OpenSans-Regular.ttf":       []byte("regular"),
		"static/OpenSans-Bold.ttf":          []byte("bold"),
		"static/OpenSans-BoldItalic.ttf":    []byte("bold italic"),
		"__MACOSX/static/OpenSans-Bold.ttf": []byte("resource fork"),
	})

	srv := testutil.NewCatalogServer(t)
	zipURL := srv.ServeFile("OpenSans.zip", archive)
	store := newStore(t)
	f := NewFetcher(store, srv.Client(), "")

	tests := []struct {
		variant font.Variant
		want    string
		wantErr error
	}{
		{variant: font.Regular, want: "regular"},
		{variant: font.Bold, want: "bold"},
		{variant: font.BoldItalic, want: "bold italic"},
		{variant: font.Italic, wantErr: errutils.ErrVariantNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.variant.Name(), func(t *testing.T) {
			id := font.Identifier{Family: "Open Sans", Variant: tt.variant}
			path, err := f.Download(context.Background(), id, mustParse(t, zipURL))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, store.FileExists(id))
				return
			}
			require.NoError(t, err)
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
	assertNoTempFiles(t, store.FontsDir())
}

func TestIsZip(t *testing.T) {
	resp := func(ct string) *http.Response {
		return &http.Response{Header: http.Header{"Content-Type": []string{ct}}}
	}
	assert.True(t, isZip(resp("application/zip"), mustParse(t, "https://x/f")))
	assert.True(t, isZip(resp("application/octet-stream"), mustParse(t, "https://x/f.ZIP")))
	assert.False(t, isZip(resp("font/ttf"), mustParse(t, "https://x/f.ttf#regular")))
	assert.False(t, isZip(resp(""), mustParse(t, "https://x/f")))
}
