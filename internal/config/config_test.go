package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves into an empty temp dir so no config.yaml or .env is found.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Audit.ExpectedPhone)
	assert.Equal(t, 6, cfg.Audit.TextMatchLimit)
	assert.Equal(t, 10, cfg.Audit.MinDigits)
	assert.Equal(t, 15, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, int64(2<<20), cfg.Scrape.MaxBodyBytes)
	assert.Equal(t, 3, cfg.Scrape.MaxRetries)
	assert.InDelta(t, 5.0, cfg.Scrape.RatePerSec, 0.001)
	assert.Contains(t, cfg.Scrape.UserAgent, "PageAudit")
	assert.Equal(t, "3px solid #ffcc00", cfg.Highlight.Outline)
	assert.Equal(t, "2px", cfg.Highlight.OutlineOffset)
	assert.Equal(t, "data-phone-highlight", cfg.Highlight.Attribute)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "page-audit.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrent)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
audit:
  expected_phone: "(555) 123-4567"
  business_name: Acme Plumbing
store:
  driver: postgres
  database_url: postgres://localhost/audit
log:
  level: debug
  format: console
server:
  port: 9090
  allowed_origins:
    - https://app.example.com
batch:
  max_concurrent: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "(555) 123-4567", cfg.Audit.ExpectedPhone)
	assert.Equal(t, "Acme Plumbing", cfg.Audit.BusinessName)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/audit", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrent)
	// Defaults still apply for unset values
	assert.Equal(t, 6, cfg.Audit.TextMatchLimit)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  port: 9090\n"), 0644))
	t.Setenv("PAGEAUDIT_SERVER_PORT", "7070")
	t.Setenv("PAGEAUDIT_AUDIT_EXPECTED_PHONE", "555-987-6543")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "555-987-6543", cfg.Audit.ExpectedPhone)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Cleanup(func() { os.Unsetenv("PAGEAUDIT_AUDIT_BUSINESS_NAME") })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGEAUDIT_AUDIT_BUSINESS_NAME=Dotenv Plumbing\n"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Dotenv Plumbing", cfg.Audit.BusinessName)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestValidate(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Store.Driver = "mysql"
	cfg.Batch.MaxConcurrent = 0
	cfg.Audit.MinDigits = 3

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: validation failed")
	assert.Contains(t, err.Error(), `store.driver must be sqlite or postgres, got "mysql"`)
	assert.Contains(t, err.Error(), "batch.max_concurrent must be positive")
	assert.Contains(t, err.Error(), "audit.min_digits must be at least 7")
	assert.NotContains(t, err.Error(), "server.port")
}

func TestInitLogger(t *testing.T) {
	orig := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(orig) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	require.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.False(t, zap.L().Core().Enabled(zap.InfoLevel))

	err := InitLogger(LogConfig{Level: "loud", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}
