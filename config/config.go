// Package config loads BASSET's TOML configuration: a typed Config struct,
// a platform-specific config path, and a fallback-to-defaults behavior
// when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable the compiler, VM, and debugger read at
// startup.
type Config struct {
	Compiler struct {
		MaxNumericVars int `toml:"max_numeric_vars"`
		MaxStringVars  int `toml:"max_string_vars"`
		MaxArrays      int `toml:"max_arrays"`
	} `toml:"compiler"`

	VM struct {
		MemorySize        int  `toml:"memory_size"`
		DefaultTrapActive bool `toml:"default_trap_active"`
		RNGReseedOnStart  bool `toml:"rng_reseed_on_start"`
	} `toml:"vm"`

	Print struct {
		Width int `toml:"width"`
	} `toml:"print"`

	Debugger struct {
		HistorySize        int  `toml:"history_size"`
		PersistBreakpoints bool `toml:"persist_breakpoints"`
		ShowSource         bool `toml:"show_source"`
		ShowVariables      bool `toml:"show_variables"`
	} `toml:"debugger"`
}

// DefaultConfig returns the configuration spec.md pins as defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Compiler.MaxNumericVars = 128
	cfg.Compiler.MaxStringVars = 128
	cfg.Compiler.MaxArrays = 64

	cfg.VM.MemorySize = 65536
	cfg.VM.DefaultTrapActive = false
	cfg.VM.RNGReseedOnStart = false

	cfg.Print.Width = 80

	cfg.Debugger.HistorySize = 500
	cfg.Debugger.PersistBreakpoints = true
	cfg.Debugger.ShowSource = true
	cfg.Debugger.ShowVariables = true

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "basset")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "basset")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back to
// DefaultConfig if the file is absent.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from path, returning defaults (with no
// error) when path doesn't exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo writes the configuration to path in TOML form.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
