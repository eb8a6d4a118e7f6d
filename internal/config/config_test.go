package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	var c Config
	require.NoError(t, Load(&c, filepath.Join(t.TempDir(), "missing.hcl")))

	assert.Equal(t, "postgres", c.Storage)
	assert.Equal(t, "chrome", c.Driver)
	assert.Equal(t, 4, c.MaxSessions)
	assert.Equal(t, 15*time.Second, c.NavigationTimeout)
	assert.Equal(t, 10*time.Second, c.ReadyTimeout)
	assert.Equal(t, 25*time.Minute, c.CrawlInterval)
	assert.Equal(t, 30*time.Minute, c.FreshnessWindow)
	assert.Equal(t, 100, c.SearchLimit)
	assert.Zero(t, c.NoticeRetention)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
storage = "memory"
driver = "http"
crawl_interval = "5m"
search_limit = 20
`), 0o600))

	t.Setenv("NB_SEARCH_LIMIT", "50")

	var c Config
	require.NoError(t, Load(&c, path))

	assert.Equal(t, "memory", c.Storage)
	assert.Equal(t, "http", c.Driver)
	assert.Equal(t, 5*time.Minute, c.CrawlInterval)
	assert.Equal(t, 50, c.SearchLimit)
}

func TestLoad_LaterFilesOverrideEarlier(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.hcl")
	local := filepath.Join(dir, "config.local.hcl")

	require.NoError(t, os.WriteFile(base, []byte(`
driver = "http"
search_limit = 20
`), 0o600))
	require.NoError(t, os.WriteFile(local, []byte(`
search_limit = 30
`), 0o600))

	var c Config
	require.NoError(t, Load(&c, base, local, filepath.Join(dir, "missing.hcl")))

	assert.Equal(t, 30, c.SearchLimit)
	assert.Equal(t, "http", c.Driver)
}
