package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "path: /tmp/x.db\nbackend: sqlite\nmmap_size: 1048576\nverbose: true\n")

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, Config{Path: "/tmp/x.db", Backend: "sqlite", MmapSize: 1 << 20, Verbose: true}, cfg)
}

func TestLoadConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "backend: mem\n")

	cfg, err := LoadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, "mem", cfg.Backend)
	assert.Equal(t, DefaultConfig().Path, cfg.Path)
}

func TestLoadConfig_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.yaml")

	cfg, err := LoadConfig(path, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(path, true)
	require.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":      "path: [unclosed\n",
		"bad backend":   "backend: redis\n",
		"negative mmap": "mmap_size: -1\n",
		"empty path":    "path: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, content), true)
			require.Error(t, err)
		})
	}
}

func TestConfig_ValidateMemNeedsNoPath(t *testing.T) {
	assert.NoError(t, Config{Backend: "mem"}.Validate())
	assert.Error(t, Config{Backend: "bolt"}.Validate())
}

func TestConfigFileUsedByCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "from-config.db")
	cfgPath := writeConfig(t, "path: "+dbPath+"\nbackend: sqlite\n")

	_, _, err := runCLI(t, "--config", cfgPath, "store", "configured")
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	require.NoError(t, err)

	out, _, err := runCLI(t, "-c", cfgPath, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "backend: sqlite")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "stats")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
