package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, 1800, cfg.Workshop.SessionBudgetSec)
	assert.Empty(t, cfg.NATS.URL)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  log_level: debug
workshop:
  session_budget_sec: 600
nats:
  url: nats://localhost:4222
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, 600, cfg.Workshop.SessionBudgetSec)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o644))

	t.Setenv("ADDR", ":7070")
	t.Setenv("SESSION_BUDGET_SEC", "120")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 120, cfg.Workshop.SessionBudgetSec)
}

func TestLoadRejectsNonPositiveBudget(t *testing.T) {
	t.Setenv("SESSION_BUDGET_SEC", "0")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
