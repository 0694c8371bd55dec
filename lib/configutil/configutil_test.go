package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Interval int               `json:"interval_seconds"`
	Sources  string            `json:"sources_file"`
	Strategy map[string]string `json:"strategy"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// base settings
		interval_seconds: 3600,
		sources_file: "data/urls.txt",
		strategy: { "example.com": "direct" },
	}`), 0600)
	require.NoError(t, err)

	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		interval_seconds: 60,
	}`), 0600)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)

	require.Equal(t, 60, config.Interval)
	require.Equal(t, "data/urls.txt", config.Sources)
	require.Equal(t, "direct", config.Strategy["example.com"])
}

func TestReadConfigMissing(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.True(t, os.IsNotExist(err))
}
