package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for name := range ListEnv() {
		t.Setenv(name, "")
	}
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, 30*time.Second, cfg.TranslateTimeout)
	assert.Equal(t, filepath.Join(dir, "history"), cfg.HistoryFile)
	assert.Equal(t, "OPENAI_API_KEY", cfg.APIKeyEnv)
	assert.Equal(t, dir, cfg.Dir)
	assert.True(t, cfg.Journal)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	content := "provider: ollama\nmodel: llama3\ntranslate_timeout: 5s\njournal: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644))

	t.Run("FileOverDefaults", func(t *testing.T) {
		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, ProviderOllama, cfg.Provider)
		assert.Equal(t, "llama3", cfg.Model)
		assert.Equal(t, 5*time.Second, cfg.TranslateTimeout)
		assert.False(t, cfg.Journal)
		assert.Empty(t, cfg.APIKeyEnv)
	})

	t.Run("EnvOverFile", func(t *testing.T) {
		t.Setenv("AISH_MODEL", "qwen2.5-coder")
		t.Setenv("AISH_TRANSLATE_TIMEOUT", "12")
		t.Setenv("AISH_SHELL", "/bin/zsh")

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, "qwen2.5-coder", cfg.Model)
		assert.Equal(t, 12*time.Second, cfg.TranslateTimeout)
		assert.Equal(t, "/bin/zsh", cfg.Shell)
	})
}

func TestLoadRejectsBadFiles(t *testing.T) {
	clearEnv(t)

	t.Run("Malformed", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("provider: [oops"), 0o644))

		_, err := Load(dir)
		var perr *ParseError
		require.True(t, errors.As(err, &perr), "want ParseError, got %v", err)
		assert.Equal(t, filepath.Join(dir, "config.yaml"), perr.Path)
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("provider: clippy\n"), 0o644))

		_, err := Load(dir)
		assert.ErrorContains(t, err, "unknown provider")
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "nested")

	cfg := Defaults()
	cfg.Dir = dir
	cfg.Provider = ProviderGemini
	cfg.Model = "gemini-2.0-flash"
	require.NoError(t, cfg.Save())

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, loaded.Provider)
	assert.Equal(t, "gemini-2.0-flash", loaded.Model)
	assert.Equal(t, "GEMINI_API_KEY", loaded.APIKeyEnv)
}

func TestSetProvider(t *testing.T) {
	cfg := Defaults()
	cfg.APIKeyEnv = defaultKeyEnv(cfg.Provider)

	cfg.SetProvider(ProviderGemini)
	assert.Equal(t, "GEMINI_API_KEY", cfg.APIKeyEnv)

	cfg.APIKeyEnv = "MY_KEY"
	cfg.SetProvider(ProviderOpenAI)
	assert.Equal(t, "MY_KEY", cfg.APIKeyEnv, "explicit key variables are kept")
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
}
