package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(home, ".local", "state"))
	t.Setenv("BRANCHKIT_CONFIG", filepath.Join(home, "config.toml"))
	t.Setenv("BRANCHKIT_DB_PATH", filepath.Join(home, "branchkit.db"))
	t.Setenv("NO_COLOR", "1")
	keyring.MockInit()
	return home
}

func TestRunWiresComponents(t *testing.T) {
	home := isolate(t)

	a := New()
	err := a.RunWithContext(context.Background(), []string{"branch", "generate", "-w", "shop", "-o", "json"})
	require.NoError(t, err)

	assert.NotNil(t, a.Service)
	assert.NotNil(t, a.CLI)
	assert.Nil(t, a.DB, "database is closed after the command")
	assert.FileExists(t, filepath.Join(home, "branchkit.db"))
}

func TestRunWithoutArgsShowsHelp(t *testing.T) {
	isolate(t)
	require.NoError(t, New().Run(nil))
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte("[workers]\nmax_concurrent = 0\n"), 0644))

	err := New().Run([]string{"system", "info"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRunWritesLogFile(t *testing.T) {
	home := isolate(t)
	logPath := filepath.Join(home, "logs", "branchkit.log")
	config := "[logging]\nlevel = \"debug\"\nfile = \"" + logPath + "\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(config), 0644))

	require.NoError(t, New().Run([]string{"system", "info", "-o", "json"}))
	assert.FileExists(t, logPath)
}
