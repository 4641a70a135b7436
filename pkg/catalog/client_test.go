package catalog

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/pkg/font"
	"github.com/cperrin88/inkwell/pkg/storage"
	"github.com/cperrin88/inkwell/test/testutil"
)

func newClient(t *testing.T, srv *testutil.CatalogServer) (*Client, *storage.Storage) {
	t.Helper()
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	return New(store, Options{
		Endpoint:   srv.Endpoint(),
		APIKey:     "secret",
		HTTPClient: srv.Client(),
	}), store
}

func TestFetch_Success(t *testing.T) {
	srv := testutil.NewCatalogServer(t)
	srv.AddFont("ABeeZee", "regular", []byte("ttf"))
	c, store := newClient(t, srv)

	assert.False(t, c.Exists())
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"ABeeZee"}, snap.Families())
	assert.True(t, c.Exists())
	assert.Equal(t, "secret", srv.LastAPIKey())

	persisted, err := os.ReadFile(store.CatalogPath())
	require.NoError(t, err)
	assert.Contains(t, string(persisted), `"ABeeZee"`)

	u, ok := c.FileURL(font.Identifier{Family: "ABeeZee", Variant: font.Regular}, nil)
	require.True(t, ok)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "regular", u.Fragment)
}

func TestFetch_FailureRemovesSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		setup func(srv *testutil.CatalogServer)
	}{
		{
			name:  "server error",
			setup: func(srv *testutil.CatalogServer) { srv.FailCatalog(http.StatusInternalServerError, "application/json") },
		},
		{
			name:  "forbidden",
			setup: func(srv *testutil.CatalogServer) { srv.FailCatalog(http.StatusForbidden, "application/json") },
		},
		{
			name:  "wrong content type",
			setup: func(srv *testutil.CatalogServer) { srv.FailCatalog(http.StatusOK, "text/html") },
		},
		{
			name:  "malformed root",
			setup: func(srv *testutil.CatalogServer) { srv.SetCatalogBody([]byte(`["items"]`)) },
		},
		{
			name:  "truncated body",
			setup: func(srv *testutil.CatalogServer) { srv.SetCatalogBody([]byte(`{"items":[`)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := testutil.NewCatalogServer(t)
			srv.AddFont("ABeeZee", "regular", []byte("ttf"))
			c, _ := newClient(t, srv)

			_, err := c.Fetch(context.Background())
			require.NoError(t, err)
			require.True(t, c.Exists())

			tt.setup(srv)
			for i := 0; i < 2; i++ {
				snap, err := c.Fetch(context.Background())
				assert.ErrorIs(t, err, errutils.ErrCatalogFetch)
				assert.Nil(t, snap)
				assert.False(t, c.Exists(), "failed fetch leaves no snapshot")
			}

			_, err = c.Snapshot()
			assert.ErrorIs(t, err, errutils.ErrCatalogNotFound)
			_, ok := c.FileURL(font.Identifier{Family: "ABeeZee", Variant: font.Regular}, nil)
			assert.False(t, ok)
		})
	}
}

func TestFetch_TransportError(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.WriteCatalog([]byte(`{"items":[]}`)))

	c := New(store, Options{Endpoint: "http://127.0.0.1:1/webfonts"})
	_, err = c.Fetch(context.Background())
	assert.ErrorIs(t, err, errutils.ErrCatalogFetch)
	assert.False(t, c.Exists())
}

func TestFetch_RefetchReplacesCache(t *testing.T) {
	srv := testutil.NewCatalogServer(t)
	srv.AddFont("ABeeZee", "regular", []byte("ttf"))
	c, _ := newClient(t, srv)

	first, err := c.Fetch(context.Background())
	require.NoError(t, err)
	cached, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, cached)

	srv.AddFont("Roboto", "700", []byte("ttf"))
	second, err := c.Fetch(context.Background())
	require.NoError(t, err)

	cached, err = c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, second, cached)
	assert.Equal(t, []string{"ABeeZee", "Roboto"}, cached.Families())
	assert.Equal(t, 1, first.Len(), "earlier snapshots are not mutated")
}

func TestSnapshot_ReadsPersistedOnce(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.WriteCatalog([]byte(sampleCatalog)))

	c := New(store, Options{})
	snap, err := c.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Len())

	require.NoError(t, store.WriteCatalog([]byte(`{"items":[]}`)))
	again, err := c.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, again)
}

func TestFileURL_PrefersSuppliedSnapshot(t *testing.T) {
	store, err := storage.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.WriteCatalog([]byte(sampleCatalog)))
	c := New(store, Options{})

	supplied, err := Parse([]byte(`{"items":[{"family":"Roboto","files":{"700":"http://other.example/r.ttf"}}]}`), false)
	require.NoError(t, err)

	u, ok := c.FileURL(font.Identifier{Family: "Roboto", Variant: font.Bold}, supplied)
	require.True(t, ok)
	assert.Equal(t, "other.example", u.Host)

	u, ok = c.FileURL(font.Identifier{Family: "Roboto", Variant: font.Bold}, nil)
	require.True(t, ok)
	assert.Equal(t, "fonts.gstatic.com", u.Host)
}

func TestFileURL_SystemFontNotInCatalog(t *testing.T) {
	srv := testutil.NewCatalogServer(t)
	srv.AddFont("ABeeZee", "regular", []byte("ttf"))
	c, _ := newClient(t, srv)

	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)
	_, ok := c.FileURL(font.Identifier{Family: "Arial", Variant: font.Bold}, snap)
	assert.False(t, ok)
}

func TestFetch_RateLimited(t *testing.T) {
	srv := testutil.NewCatalogServer(t)
	c, store := newClient(t, srv)
	c.opts.Limiter = rate.NewLimiter(0, 0)
	require.NoError(t, store.WriteCatalog([]byte(`{}`)))

	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, errutils.ErrCatalogFetch)
	assert.Zero(t, srv.CatalogRequests())
	assert.False(t, c.Exists())
}

func TestFetch_Cancelled(t *testing.T) {
	srv := testutil.NewCatalogServer(t)
	c, _ := newClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Fetch(ctx)
	assert.ErrorIs(t, err, errutils.ErrCatalogFetch)
}
