package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/favmerge/pkg/constants"
)

// TestLoadConfigDefaults verifies defaults without a config file.
func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, constants.DatabaseFileName, cfg.Database)
	assert.Equal(t, "prompt", cfg.Resolver)
	assert.False(t, cfg.Atomic)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Equal(t, "stderr", cfg.LogOutput)
}

// TestLoadConfigEnvironment verifies prefixed environment variables.
func TestLoadConfigEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FAVMERGE_DATABASE", "favs.db")
	t.Setenv("FAVMERGE_RESOLVER", "incoming")
	t.Setenv("FAVMERGE_ATOMIC", "true")
	t.Setenv("FAVMERGE_FORMAT", "yaml")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "favs.db", cfg.Database)
	assert.Equal(t, "incoming", cfg.Resolver)
	assert.True(t, cfg.Atomic)
	assert.Equal(t, "yaml", cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)

	s := cfg.Settings()
	assert.Equal(t, "favs.db", s.Database)
	assert.True(t, s.Atomic)
}

// TestLoadConfigFile verifies an explicit config file.
func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "favmerge.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: merged.json\nresolver: base\nstore: yaml\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "merged.json", cfg.Database)
	assert.Equal(t, "base", cfg.Resolver)
	assert.Equal(t, "yaml", cfg.Store)
	assert.Equal(t, path, cfg.ConfigFile)
}

// TestLoadConfigDefaultFile verifies ./.favmerge.yaml is picked up.
func TestLoadConfigDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".favmerge.yaml"), []byte("resolver: abort\n"), 0o644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "abort", cfg.Resolver)
}

// TestLoadConfigMissingFile verifies an explicit missing file is an error.
func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoadConfigDotEnv verifies .env files feed the environment.
func TestLoadConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", t.TempDir())
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FAVMERGE_STORE=sqlite\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("FAVMERGE_STORE") })

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store)
}

func TestConfigFileFromArgs(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"merge", "--config", "a.yaml", "x.json"}, "a.yaml"},
		{[]string{"--config=b.yaml", "show"}, "b.yaml"},
		{[]string{"merge", "--", "--config", "c.yaml"}, ""},
		{[]string{"merge", "--config"}, ""},
		{[]string{"show"}, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, configFileFromArgs(tt.args))
	}
}
