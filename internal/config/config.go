// Package config loads this server's startup configuration from layered
// sources with the following priority (highest to lowest):
//
//  1. Environment variables (SQFLS_* prefix)
//  2. Config file (closest .sqfls.toml or sqfls.toml, cascading upward)
//  3. Built-in defaults
//
// Configuration covers this server's own surface: whether secondary
// (transpile-source) compilation is enabled and which extra workspace
// mounts to register at bootstrap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigFileNames are searched for, in priority order, at each directory
// level while walking up from the discovery root.
var ConfigFileNames = []string{".sqfls.toml", "sqfls.toml"}

// EnvPrefix is the prefix recognized for environment variable overrides.
const EnvPrefix = "SQFLS_"

// Mount is one additional workspace mount read from configuration,
// registered at bootstrap alongside the marker-file-derived mounts.
type Mount struct {
	Physical string `koanf:"physical"`
	Virtual  string `koanf:"virtual"`
}

// Config is this server's complete startup configuration.
type Config struct {
	// SecondaryCompilation enables transpile-on-change for secondary-kind
	// documents.
	SecondaryCompilation bool `koanf:"secondary-compilation"`

	// AdditionalMounts lists extra physical/virtual mounts to register
	// during bootstrap, beyond what marker-file discovery finds.
	AdditionalMounts []Mount `koanf:"additional-mounts"`

	// ConfigFile records which file (if any) was loaded, for diagnostics.
	ConfigFile string `koanf:"-"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		SecondaryCompilation: false,
		AdditionalMounts:     nil,
	}
}

// Load discovers the closest config file for targetPath, loads it over
// the defaults, and applies SQFLS_* environment overrides.
func Load(targetPath string) (*Config, error) {
	return loadWithConfigPath(Discover(targetPath))
}

// LoadFromFile loads configuration from a specific file, skipping
// discovery.
func LoadFromFile(configPath string) (*Config, error) {
	return loadWithConfigPath(configPath)
}

func loadWithConfigPath(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", configPath, err)
		}
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			key = strings.ToLower(strings.ReplaceAll(key, "_", "-"))
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.ConfigFile = configPath
	return cfg, nil
}

// Discover walks up from targetPath's directory looking for the closest
// config file named in ConfigFileNames. Returns "" if none is found
// before reaching the filesystem root.
func Discover(targetPath string) string {
	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		return ""
	}

	dir := filepath.Dir(absPath)
	if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
		dir = absPath
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if fileExists(candidate) {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
