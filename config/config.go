// Package config loads and saves ndiff's persistent defaults: the
// tolerance and register-file sizing a rule file may leave unspecified,
// the diagnostic/tracing output locations, and a directory restriction
// profile. The CLI reads only the register count, the difference limit,
// blank compression and the trace output file from it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds ndiff's on-disk configuration.
type Config struct {
	// Tolerance holds default bounds per axis. They are loaded and saved
	// only: the rule compiler does not read them, so a bare ABS/REL/DIG
	// entry still gets a bound of 0.
	Tolerance struct {
		DefaultAbs    float64 `toml:"default_abs"`
		DefaultRel    float64 `toml:"default_rel"`
		DefaultDig    float64 `toml:"default_dig"`
		BlankCompress bool    `toml:"blank_compress"`
	} `toml:"tolerance"`

	// Engine governs the register file and the navigator's search limits.
	Engine struct {
		RegisterCount int `toml:"register_count"`
		MaxDiffs      int `toml:"max_diffs"`
		GotoLimit     int `toml:"goto_limit"` // not read by the engine: GOTO/GONUM searches run to end of input
	} `toml:"engine"`

	// Debugger settings for the interactive row/column stepper.
	Debugger struct {
		HistorySize   int  `toml:"history_size"`
		ShowRegisters bool `toml:"show_registers"`
		ShowBuffers   bool `toml:"show_buffers"`
	} `toml:"debugger"`

	// Display settings for the CLI's diagnostic report.
	Display struct {
		ColorOutput   bool `toml:"color_output"`
		ContextLines  int  `toml:"context_lines"`
		NumberContext int  `toml:"number_context"` // bytes of surrounding text shown per reported number
	} `toml:"display"`

	// Trace settings mirror --trace/--trace-file: OutputFile is the sink
	// used when --trace is passed without --trace-file.
	Trace struct {
		OutputFile string `toml:"output_file"`
		MaxEntries int    `toml:"max_entries"`
	} `toml:"trace"`

	// Sandbox describes a directory restriction profile, mirroring the
	// teacher's --fsroot jail for emulated guest programs. It is loaded and
	// saved only; the CLI opens its input files without consulting it.
	Sandbox struct {
		Root          string `toml:"root"`
		RestrictFS    bool   `toml:"restrict_fs"`
		AllowSymlinks bool   `toml:"allow_symlinks"`
	} `toml:"sandbox"`
}

// DefaultConfig returns a configuration with ndiff's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Tolerance.DefaultAbs = 0
	cfg.Tolerance.DefaultRel = 0
	cfg.Tolerance.DefaultDig = 0
	cfg.Tolerance.BlankCompress = false

	cfg.Engine.RegisterCount = 99
	cfg.Engine.MaxDiffs = 0 // 0 leaves the engine's own default (engine.DefaultMaxKept) in force
	cfg.Engine.GotoLimit = 100000

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowRegisters = true
	cfg.Debugger.ShowBuffers = true

	cfg.Display.ColorOutput = true
	cfg.Display.ContextLines = 2
	cfg.Display.NumberContext = 12

	cfg.Trace.OutputFile = "ndiff-trace.log"
	cfg.Trace.MaxEntries = 100000

	cfg.Sandbox.Root = ""
	cfg.Sandbox.RestrictFS = false
	cfg.Sandbox.AllowSymlinks = true

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
		configDir = filepath.Join(configDir, "ndiff")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "ndiff")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// GetLogPath returns the platform-specific trace/log directory path.
func GetLogPath() string {
	var logDir string

	switch runtime.GOOS {
	case "windows":
		logDir = os.Getenv("APPDATA")
		if logDir == "" {
			logDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		logDir = filepath.Join(logDir, "ndiff", "logs")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "logs"
		}
		logDir = filepath.Join(homeDir, ".local", "share", "ndiff", "logs")

	default:
		return "logs"
	}

	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "logs"
	}

	return logDir
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file, returning
// defaults unchanged when the file does not exist.
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

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
