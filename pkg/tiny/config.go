package tiny

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "tiny.toml"

// Config represents a tiny.toml project configuration file.
type Config struct {
	// Trace logs every machine step at debug level.
	Trace bool `toml:"trace"`

	// Cache enables the on-disk bytecode cache.
	Cache bool `toml:"cache"`

	// CacheDir overrides the cache location. Relative paths are resolved
	// against the directory containing tiny.toml.
	CacheDir string `toml:"cache_dir,omitempty"`

	// Bindings are made available to every program. They are pushed in
	// name order.
	Bindings map[string]int64 `toml:"bindings,omitempty"`
}

// DefaultConfig is used when no tiny.toml is found.
func DefaultConfig() *Config {
	return &Config{
		Cache:    true,
		Bindings: map[string]int64{},
	}
}

// LoadConfig loads a tiny.toml file from the given path. Keys missing from
// the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing %s: unknown keys %v", path, undecoded)
	}
	if config.Bindings == nil {
		config.Bindings = map[string]int64{}
	}
	if config.CacheDir != "" && !filepath.IsAbs(config.CacheDir) {
		config.CacheDir = filepath.Join(filepath.Dir(path), config.CacheDir)
	}
	return config, nil
}

// FindConfig searches for tiny.toml starting from dir and walking up to
// parent directories, stopping at a .git boundary. Returns ("", nil, nil)
// if none is found.
func FindConfig(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFile)
		if _, err := os.Stat(path); err == nil {
			config, err := LoadConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, config, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// ApplyEnv overrides config from environment variables:
//
//	TINY_TRACE=<bool>
//	TINY_CACHE=<bool>
//	TINY_CACHE_DIR=<path>
//	TINY_BINDING_<NAME>=<int>   binds the lower-cased NAME
func (c *Config) ApplyEnv(environ []string) error {
	for _, env := range environ {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, "TINY_") {
			continue
		}

		switch {
		case key == "TINY_TRACE":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.Trace = b
		case key == "TINY_CACHE":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			c.Cache = b
		case key == "TINY_CACHE_DIR":
			c.CacheDir = value
		case strings.HasPrefix(key, "TINY_BINDING_"):
			name := strings.ToLower(strings.TrimPrefix(key, "TINY_BINDING_"))
			if name == "" {
				continue
			}
			v, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			if c.Bindings == nil {
				c.Bindings = map[string]int64{}
			}
			c.Bindings[name] = v
		}
	}
	return nil
}

// CacheDirectory returns where the bytecode cache lives.
func (c *Config) CacheDirectory() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return DefaultCacheDir()
}

// BindingList returns the configured bindings in stack order.
func (c *Config) BindingList() Bindings {
	return BindingsFromMap(c.Bindings)
}
