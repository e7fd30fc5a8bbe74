package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdkfeedback/internal/issue"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(ConfigDirEnv, dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "logs"), cfg.LogsDir)
	assert.Equal(t, issue.DefaultMaxURLLength, cfg.MaxURLLength)
	assert.Equal(t, issue.DefaultTracker(), cfg.Tracker())
	assert.Equal(t, 5, cfg.RecentCount)
	assert.Equal(t, "warning", cfg.Verbosity)
	assert.False(t, cfg.DisableFileLogging)
	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigFileFromDir(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("max_url_length: 2000\nrecent_count: 3\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.MaxURLLength)
	assert.Equal(t, 3, cfg.RecentCount)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)
}

func TestLoadExplicitFileMustExist(t *testing.T) {
	isolate(t)

	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snippet_width: 40\ntool_package: mytool\n"), 0o644))
	t.Setenv("SDKFEEDBACK_SNIPPET_WIDTH", "60")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.SnippetWidth)
	assert.Equal(t, "mytool", cfg.TracebackOptions().ToolPackage)
}

func TestFlagsOverrideEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SDKFEEDBACK_LOGS_DIR", "/from/env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("logs-dir", "", "")
	fs.String("verbosity", "warning", "")
	require.NoError(t, fs.Parse([]string{"--logs-dir", "/from/flag", "--verbosity", "debug"}))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.LogsDir)
	assert.Equal(t, "debug", cfg.Verbosity)
}

func TestUnsetFlagKeepsEnv(t *testing.T) {
	isolate(t)
	t.Setenv("SDKFEEDBACK_LOGS_DIR", "/from/env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("logs-dir", "", "")
	require.NoError(t, fs.Parse(nil))

	v := New()
	require.NoError(t, BindFlags(v, fs))
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.LogsDir)
}

func TestValidate(t *testing.T) {
	isolate(t)
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	bad := cfg
	bad.Verbosity = "loud"
	assert.ErrorContains(t, bad.Validate(), "verbosity")

	bad = cfg
	bad.MaxURLLength = 0
	assert.ErrorContains(t, bad.Validate(), "max_url_length")

	upper := cfg
	upper.Verbosity = "DEBUG"
	assert.NoError(t, upper.Validate())
}

func TestProperties(t *testing.T) {
	isolate(t)
	v := New()
	v.Set(KeyProductName, "Test SDK")

	props := Properties(v)
	require.NotEmpty(t, props)
	for i := 1; i < len(props); i++ {
		assert.Less(t, props[i-1].Key, props[i].Key)
	}
	assert.Contains(t, props, Property{Key: KeyProductName, Value: "Test SDK"})
}
