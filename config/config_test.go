package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Compiler.MaxNumericVars != 128 {
		t.Errorf("Expected MaxNumericVars=128, got %d", cfg.Compiler.MaxNumericVars)
	}
	if cfg.Compiler.MaxStringVars != 128 {
		t.Errorf("Expected MaxStringVars=128, got %d", cfg.Compiler.MaxStringVars)
	}
	if cfg.Compiler.MaxArrays != 64 {
		t.Errorf("Expected MaxArrays=64, got %d", cfg.Compiler.MaxArrays)
	}
	if cfg.VM.MemorySize != 65536 {
		t.Errorf("Expected MemorySize=65536, got %d", cfg.VM.MemorySize)
	}
	if cfg.Print.Width != 80 {
		t.Errorf("Expected Width=80, got %d", cfg.Print.Width)
	}
	if !cfg.Debugger.ShowSource {
		t.Error("Expected ShowSource=true")
	}
}

func TestGetConfigPath(t *testing.T) {
	path := GetConfigPath()

	if path == "" {
		t.Error("GetConfigPath returned empty string")
	}
	if filepath.Base(path) != "config.toml" {
		t.Errorf("Expected path to end with config.toml, got %s", path)
	}

	switch runtime.GOOS {
	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "basset" && path != "config.toml" {
			t.Errorf("Expected path in basset directory or fallback, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Compiler.MaxArrays = 32
	cfg.VM.MemorySize = 1024
	cfg.VM.DefaultTrapActive = true
	cfg.Debugger.HistorySize = 250

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file was not created")
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.Compiler.MaxArrays != 32 {
		t.Errorf("Expected MaxArrays=32, got %d", loaded.Compiler.MaxArrays)
	}
	if loaded.VM.MemorySize != 1024 {
		t.Errorf("Expected MemorySize=1024, got %d", loaded.VM.MemorySize)
	}
	if !loaded.VM.DefaultTrapActive {
		t.Error("Expected DefaultTrapActive=true")
	}
	if loaded.Debugger.HistorySize != 250 {
		t.Errorf("Expected HistorySize=250, got %d", loaded.Debugger.HistorySize)
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}
	if cfg.Compiler.MaxNumericVars != 128 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[vm]
memory_size = "not a number"
`
	if err := os.WriteFile(configPath, []byte(invalidTOML), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err := LoadFrom(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid TOML")
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "subdir1", "subdir2", "config.toml")

	cfg := DefaultConfig()
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Expected nested directories to be created")
	}
}
