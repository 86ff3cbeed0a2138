package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ".class", cfg.Extension)
	assert.Equal(t, ModeBestEffort, cfg.Mode)
	assert.GreaterOrEqual(t, cfg.Jobs, 1)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
jobs: 3
mode: strict
exclude:
  dirs: [build, out]
log:
  format: json
watch:
  debounce: 2s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, ModeStrict, cfg.Mode)
	assert.Equal(t, []string{"build", "out"}, cfg.Exclude.Dirs)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "unset keys keep defaults")
	assert.Equal(t, ".class", cfg.Extension)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Extension, cfg.Extension)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_Invalid(t *testing.T) {
	for name, body := range map[string]string{
		"syntax":    "jobs: [",
		"mode":      "mode: lenient",
		"format":    "log:\n  format: xml",
		"extension": "extension: class",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestMerge_Nil(t *testing.T) {
	cfg := Default()
	cfg.Merge(nil)
	assert.Equal(t, Default(), cfg)
}

func TestIsExcludedDir(t *testing.T) {
	cfg := Default()
	cfg.Exclude.Dirs = []string{"build"}
	assert.True(t, cfg.IsExcludedDir("/src/app/build"))
	assert.False(t, cfg.IsExcludedDir("/src/app/builder"))
}
