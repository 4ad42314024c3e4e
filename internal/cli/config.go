package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/andreyvit/recdb"
)

// DefaultConfigFile is read from the working directory when --config is not given.
const DefaultConfigFile = "recdb.yaml"

// Config is the host configuration, loaded from YAML and overridden by flags.
type Config struct {
	// Path is the database file (ignored for the mem backend).
	Path string `yaml:"path"`

	// Backend is one of "bolt", "sqlite", "mem".
	Backend string `yaml:"backend"`

	// MmapSize overrides Bolt's initial mmap size in bytes.
	MmapSize int `yaml:"mmap_size,omitempty"`

	Verbose bool `yaml:"verbose,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Path:    "recdb.db",
		Backend: string(recdb.BoltBackend),
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
// A missing file is an error only if required is true.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration can open a database.
func (c Config) Validate() error {
	if !recdb.Backend(c.Backend).Valid() {
		return fmt.Errorf("unknown backend %q: must be one of bolt, sqlite, mem", c.Backend)
	}
	if c.Path == "" && recdb.Backend(c.Backend) != recdb.MemBackend {
		return errors.New("path is required")
	}
	if c.MmapSize < 0 {
		return fmt.Errorf("mmap_size must not be negative, got %d", c.MmapSize)
	}
	return nil
}
