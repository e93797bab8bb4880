package appcore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "appcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBaseURL, "")
	t.Setenv(EnvTimeoutMillis, "")
	t.Setenv(EnvCacheDir, "")
}

func TestLoadFileConfig(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
api:
  url: https://api.example.com
  timeoutMillis: 1500
cache:
  dir: /tmp/images
`)

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)

	cfg := fc.APIConfig()
	assert.Equal(t, "https://api.example.com", cfg.URL)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)

	dir, err := fc.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/images", dir)
}

func TestLoadFileConfigEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, "api:\n  url: https://file.example.com\n")
	t.Setenv(EnvBaseURL, "https://env.example.com")
	t.Setenv(EnvTimeoutMillis, "250")
	t.Setenv(EnvCacheDir, "/var/cache/env")

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{URL: "https://env.example.com", Timeout: 250 * time.Millisecond}, fc.APIConfig())

	dir, err := fc.CacheDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/cache/env", dir)
}

func TestLoadFileConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv(EnvTimeoutMillis, "not-a-number")

	fc, err := LoadFileConfig("")
	require.NoError(t, err)
	assert.Equal(t, Config{Timeout: DefaultTimeout}, fc.APIConfig())
}

func TestLoadFileConfigErrors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var loadErr *ErrConfigLoad
	assert.ErrorAs(t, err, &loadErr)

	_, err = LoadFileConfig(writeConfig(t, "api: [unterminated"))
	assert.ErrorAs(t, err, &loadErr)
}

func TestValidateBaseURL(t *testing.T) {
	for _, ok := range []string{"http://localhost:8080", "https://api.example.com/v1"} {
		assert.NoError(t, validateBaseURL(ok), ok)
	}
	for _, bad := range []string{"", "api.example.com", "ftp://example.com", "https://", "%zz"} {
		assert.Error(t, validateBaseURL(bad), bad)
	}
}
