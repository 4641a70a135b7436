package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cperrin88/inkwell/internal/logger"
	"github.com/cperrin88/inkwell/pkg/config"
	"github.com/cperrin88/inkwell/pkg/errutils"
	"github.com/cperrin88/inkwell/test/testutil"
)

// setupCLI writes a config pointing at a fake catalog and returns the storage dir.
func setupCLI(t *testing.T) (*testutil.CatalogServer, string) {
	t.Helper()
	t.Setenv(config.APIKeyEnv, "")
	srv := testutil.NewCatalogServer(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	storageDir := filepath.Join(dir, "data")

	cfg := config.DefaultConfig()
	cfg.Catalog.Endpoint = srv.Endpoint()
	cfg.Settings.StorageDir = storageDir
	cfg.Settings.SystemFontDirs = nil
	require.NoError(t, cfg.SaveConfig(cfgPath))

	ConfigPath = &cfgPath
	httpClient = srv.Client()
	logger.SetTestOutput(io.Discard)
	t.Cleanup(func() {
		ConfigPath = nil
		httpClient = nil
		logger.UnsetTestOutput()
	})
	return srv, storageDir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestFetchAndResolve(t *testing.T) {
	srv, storageDir := setupCLI(t)
	srv.AddFont("ABeeZee", "regular", testutil.GoFont("regular"))

	out, err := execute(t, NewFetchCmd(), "ABeeZee")
	require.NoError(t, err)
	fields := strings.Split(strings.TrimSpace(out), "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, "ABeeZee-regular", fields[0])
	assert.NotEmpty(t, fields[1])
	assert.Equal(t, filepath.Join(storageDir, "fonts", "ABeeZee-regular.ttf"), fields[2])

	out, err = execute(t, NewResolveCmd(), "ABeeZee")
	require.NoError(t, err)
	assert.Equal(t, fields[1], strings.TrimSpace(out))

	_, err = execute(t, NewResolveCmd(), "ABeeZee", "--variant", "bold")
	assert.Error(t, err)

	// Cached now, the catalog is not asked again.
	_, err = execute(t, NewFetchCmd(), "ABeeZee", "--variant", "regular")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.CatalogRequests())
}

func TestFetch_Unavailable(t *testing.T) {
	srv, _ := setupCLI(t)
	srv.AddFont("ABeeZee", "regular", testutil.GoFont("regular"))

	_, err := execute(t, NewFetchCmd(), "Arial", "--variant", "bold")
	require.Error(t, err)
	assert.ErrorIs(t, err, errutils.ErrVariantNotFound)

	_, err = execute(t, NewFetchCmd(), "Arial", "--variant", "heavy")
	assert.ErrorIs(t, err, errutils.ErrInvalidVariant)
}

func TestFetch_FallbackURL(t *testing.T) {
	srv, _ := setupCLI(t)
	u := srv.ServeFile("house/house.ttf", testutil.GoFont("700"))

	out, err := execute(t, NewFetchCmd(), "House", "--variant", "700", "--url", u)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "House-700\t"))
}

func TestCatalogCommands(t *testing.T) {
	srv, _ := setupCLI(t)
	srv.AddFont("ABeeZee", "regular", testutil.GoFont("regular"))
	srv.AddFont("Roboto", "700", testutil.GoFont("700"))

	_, err := execute(t, NewCatalogCmd(), "list")
	assert.ErrorIs(t, err, errutils.ErrCatalogNotFound)

	out, err := execute(t, NewCatalogCmd(), "sync")
	require.NoError(t, err)
	assert.Equal(t, "2 families\n", out)

	_, err = execute(t, NewCatalogCmd(), "list", "--filter", "robo")
	require.NoError(t, err)

	out, err = execute(t, NewCatalogCmd(), "list", "--filter", "zzz")
	require.NoError(t, err)
	assert.Contains(t, out, "No families found")

	_, err = execute(t, NewCatalogCmd(), "show", "Roboto")
	require.NoError(t, err)
	_, err = execute(t, NewCatalogCmd(), "show", "Comic Sans")
	assert.Error(t, err)
}

func TestCacheCommands(t *testing.T) {
	srv, storageDir := setupCLI(t)
	srv.AddFont("ABeeZee", "regular", testutil.GoFont("regular"))

	_, err := execute(t, NewFetchCmd(), "ABeeZee")
	require.NoError(t, err)

	out, err := execute(t, NewCacheCmd(), "dir")
	require.NoError(t, err)
	assert.Equal(t, storageDir, strings.TrimSpace(out))

	out, err = execute(t, NewCacheCmd(), "info")
	require.NoError(t, err)
	assert.Contains(t, out, "Fonts: ")
	assert.Contains(t, out, "(1 file)")

	out, err = execute(t, NewNamesCmd(), "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Name cache is empty")

	_, err = execute(t, NewCacheCmd(), "clean", "--fonts")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(storageDir, "fonts", "ABeeZee-regular.ttf"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(storageDir, "catalog.json"))

	_, err = execute(t, NewCacheCmd(), "clean")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(storageDir, "catalog.json"))

	out, err = execute(t, NewNamesCmd(), "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Name cache is empty")
}

func TestConfigCommands(t *testing.T) {
	setupCLI(t)
	fresh := filepath.Join(t.TempDir(), "inkwell", "config.yaml")
	ConfigPath = &fresh

	_, err := execute(t, NewConfigCmd(), "init")
	require.NoError(t, err)
	assert.FileExists(t, fresh)

	_, err = execute(t, NewConfigCmd(), "init")
	assert.ErrorIs(t, err, errutils.ErrConfigFileExists)
	_, err = execute(t, NewConfigCmd(), "init", "--force")
	require.NoError(t, err)

	_, err = execute(t, NewConfigCmd(), "set", "log_level", "debug")
	require.NoError(t, err)
	out, err := execute(t, NewConfigCmd(), "get", "log_level")
	require.NoError(t, err)
	assert.Equal(t, "debug\n", out)

	_, err = execute(t, NewConfigCmd(), "set", "log_level", "trace")
	assert.ErrorIs(t, err, errutils.ErrInvalidLogLevel)
	_, err = execute(t, NewConfigCmd(), "set", "colour", "blue")
	assert.ErrorIs(t, err, errutils.ErrUnknownConfigKey)

	out, err = execute(t, NewConfigCmd(), "show")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level")
	assert.Contains(t, out, "name_cache_backend")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, NewVersionCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "inkwell version "+Version)
}
