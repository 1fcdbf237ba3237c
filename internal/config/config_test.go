package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every source at a temp dir and clears key variables.
func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("MEETNOTES_DATA_DIR", dir)
	for _, key := range []string{"MEETNOTES_API_KEY", "GEMINI_API_KEY", "API_KEY", "MEETNOTES_MODEL", "MEETNOTES_FILE_PREFIX"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Model)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "Meeting", cfg.FilePrefix)
	assert.Equal(t, 16000, cfg.SampleRate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AllowDirectoryAccess)
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, filepath.Join(dir, "meetnotes.sqlite"), cfg.DBPath())
	assert.Equal(t, filepath.Join(dir, "meetnotes.log"), cfg.LogPath())
}

func TestLoadAPIKeyFallbacks(t *testing.T) {
	dir := isolate(t)
	t.Setenv("API_KEY", "from-api-key")

	cfg, err := Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", cfg.APIKey)

	t.Setenv("MEETNOTES_API_KEY", "from-prefixed")
	cfg, err = Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "from-prefixed", cfg.APIKey)
}

func TestLoadEnvFile(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GEMINI_API_KEY=dotenv-key\nMEETNOTES_FILE_PREFIX=Standup\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("MEETNOTES_FILE_PREFIX")
	})

	cfg, err := Load(LoadOptions{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.APIKey)
	assert.Equal(t, "Standup", cfg.FilePrefix)
}

func TestLoadConfigFile(t *testing.T) {
	dir := isolate(t)
	file := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte("model: gemini-2.5-pro\nrequest_timeout: 30s\nauto_summarize: true\nsample_rate: 48000\n"), 0o600))

	cfg, err := Load(LoadOptions{ConfigFile: file, EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.AutoSummarize)
	assert.Equal(t, 48000, cfg.SampleRate)
}

func TestLoadDataDirConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("file_prefix: Sync\n"), 0o600))

	cfg, err := Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, "Sync", cfg.FilePrefix)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := isolate(t)

	t.Setenv("MEETNOTES_FILE_PREFIX", "a/b")
	_, err := Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	assert.ErrorContains(t, err, "invalid configuration")

	t.Setenv("MEETNOTES_FILE_PREFIX", "Meeting")
	t.Setenv("MEETNOTES_LOG_LEVEL", "chatty")
	_, err = Load(LoadOptions{EnvFile: filepath.Join(dir, "missing.env")})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(dir, "nope.yaml"), EnvFile: filepath.Join(dir, "missing.env")})
	assert.Error(t, err)
}
