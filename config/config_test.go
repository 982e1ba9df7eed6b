package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Engine.RegisterCount != 99 {
		t.Errorf("Expected RegisterCount=99, got %d", cfg.Engine.RegisterCount)
	}
	if cfg.Engine.MaxDiffs != 0 {
		t.Errorf("Expected MaxDiffs=0 (engine default), got %d", cfg.Engine.MaxDiffs)
	}

	if cfg.Debugger.HistorySize != 1000 {
		t.Errorf("Expected HistorySize=1000, got %d", cfg.Debugger.HistorySize)
	}
	if !cfg.Debugger.ShowBuffers {
		t.Error("Expected ShowBuffers=true")
	}

	if cfg.Display.ContextLines != 2 {
		t.Errorf("Expected ContextLines=2, got %d", cfg.Display.ContextLines)
	}

	if cfg.Trace.MaxEntries != 100000 {
		t.Errorf("Expected MaxEntries=100000, got %d", cfg.Trace.MaxEntries)
	}

	if cfg.Sandbox.RestrictFS {
		t.Error("Expected RestrictFS=false by default")
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
	case "windows":
		if !filepath.IsAbs(path) && path != "config.toml" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		dir := filepath.Dir(path)
		if filepath.Base(dir) != "ndiff" && path != "config.toml" {
			t.Errorf("Expected path in ndiff directory or fallback, got %s", path)
		}
	}
}

func TestGetLogPath(t *testing.T) {
	path := GetLogPath()

	if path == "" {
		t.Error("GetLogPath returned empty string")
	}

	switch runtime.GOOS {
	case "windows":
		if !filepath.IsAbs(path) && path != "logs" {
			t.Errorf("Expected absolute path on Windows, got %s", path)
		}

	case "darwin", "linux":
		if filepath.Base(path) != "logs" {
			t.Errorf("Expected path to end with logs, got %s", path)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "test_config.toml")

	cfg := DefaultConfig()
	cfg.Tolerance.DefaultAbs = 0.0005
	cfg.Tolerance.BlankCompress = true
	cfg.Engine.MaxDiffs = 50
	cfg.Display.ColorOutput = false
	cfg.Sandbox.Root = "/tmp/ndiff-inputs"
	cfg.Sandbox.RestrictFS = true

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

	if loaded.Tolerance.DefaultAbs != 0.0005 {
		t.Errorf("Expected DefaultAbs=0.0005, got %v", loaded.Tolerance.DefaultAbs)
	}
	if !loaded.Tolerance.BlankCompress {
		t.Error("Expected BlankCompress=true")
	}
	if loaded.Engine.MaxDiffs != 50 {
		t.Errorf("Expected MaxDiffs=50, got %d", loaded.Engine.MaxDiffs)
	}
	if loaded.Display.ColorOutput {
		t.Error("Expected ColorOutput=false")
	}
	if loaded.Sandbox.Root != "/tmp/ndiff-inputs" {
		t.Errorf("Expected Sandbox.Root=/tmp/ndiff-inputs, got %s", loaded.Sandbox.Root)
	}
	if !loaded.Sandbox.RestrictFS {
		t.Error("Expected RestrictFS=true")
	}
}

func TestLoadNonExistent(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom should not error on non-existent file: %v", err)
	}

	if cfg.Engine.RegisterCount != 99 {
		t.Error("Expected default config when file doesn't exist")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "invalid.toml")

	invalidTOML := `
[engine]
register_count = "not a number"  # Invalid: should be an int
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
		t.Error("Config file was not created")
	}

	dir := filepath.Dir(configPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Error("Parent directories were not created")
	}
}
