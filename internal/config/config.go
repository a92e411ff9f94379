package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Config is the root configuration for tasktime, stored in <data dir>/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Sampler SamplerConfig `json:"sampler"`
	Host    HostConfig    `json:"host"`
	Export  ExportConfig  `json:"export"`
	Hotkey  HotkeyConfig  `json:"hotkey"`
}

// SamplerConfig controls foreground-window sampling in the host process.
type SamplerConfig struct {
	// IntervalSeconds is the time between two samples while a session is tracked.
	IntervalSeconds int `json:"interval_seconds"`
	// TimeoutMillis bounds a single OS query; a slower query yields no sample.
	TimeoutMillis int `json:"timeout_millis"`
}

// HostConfig controls the bridge between the CLI and the host process.
type HostConfig struct {
	// Addr is the loopback address the host process listens on.
	Addr string `json:"addr"`
	// RequestTimeoutSeconds bounds bridge calls other than export.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// ExportConfig holds export settings.
type ExportConfig struct {
	// Dir is where exports are saved on platforms without a save dialog.
	// Empty = the user's home directory.
	Dir string `json:"dir"`
}

// HotkeyConfig holds dashboard key handling settings.
type HotkeyConfig struct {
	// DoublePressMillis is the window in which a second press counts as a double press.
	DoublePressMillis int `json:"double_press_millis"`
}

const (
	DefaultSampleInterval    = 5
	DefaultSampleTimeout     = 2000
	DefaultHostAddr          = "127.0.0.1:47615"
	DefaultRequestTimeout    = 10
	DefaultDoublePressMillis = 300
)

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	return Config{
		Sampler: SamplerConfig{
			IntervalSeconds: DefaultSampleInterval,
			TimeoutMillis:   DefaultSampleTimeout,
		},
		Host: HostConfig{
			Addr:                  DefaultHostAddr,
			RequestTimeoutSeconds: DefaultRequestTimeout,
		},
		Hotkey: HotkeyConfig{
			DoublePressMillis: DefaultDoublePressMillis,
		},
	}
}

// SampleInterval returns the sampling interval as a duration.
func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.Sampler.IntervalSeconds) * time.Second
}

// SampleTimeout returns the hard timeout of one OS query.
func (c Config) SampleTimeout() time.Duration {
	return time.Duration(c.Sampler.TimeoutMillis) * time.Millisecond
}

// RequestTimeout returns the timeout for ordinary bridge calls.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Host.RequestTimeoutSeconds) * time.Second
}

// DoublePressWindow returns the hotkey disambiguation window.
func (c Config) DoublePressWindow() time.Duration {
	return time.Duration(c.Hotkey.DoublePressMillis) * time.Millisecond
}

// ExportDir returns the configured export directory, falling back to the
// user's home directory.
func (c Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// tasktime configuration – <data dir>/config.json
//
// All settings are optional; the built-in defaults shown below are used for
// anything left out.
{
  // ── Activity sampling (host process) ────────────────────────────────────
  "sampler": {
    // Seconds between two foreground-window samples while a session runs.
    "interval_seconds": 5,

    // Hard timeout of one OS query in milliseconds. A slower query is
    // treated as "no sample" for that tick.
    "timeout_millis": 2000
  },

  // ── Bridge between the CLI and the host process ─────────────────────────
  "host": {
    // Loopback address of the host process (tasktime host).
    "addr": "127.0.0.1:47615",

    // Timeout in seconds for bridge calls other than export.
    "request_timeout_seconds": 10
  },

  // ── Export ──────────────────────────────────────────────────────────────
  "export": {
    // Directory exports are saved to where no save dialog is available.
    // Leave empty to use your home directory.
    "dir": ""
  },

  // ── Dashboard hotkey ────────────────────────────────────────────────────
  "hotkey": {
    // A second press within this many milliseconds is a double press.
    "double_press_millis": 300
  }
}
`

// FilePath returns the path of the config file inside base.
func FilePath(base string) string {
	return filepath.Join(base, "config.json")
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads <base>/config.json, creating it with annotated defaults on first
// run. Lines starting with // are treated as comments and stripped before
// JSON parsing.
func Load(base string) (Config, error) {
	path := FilePath(base)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			log.Warn().Err(writeErr).Str("path", path).Msg("Could not create config file")
		}
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cleaned := stripLineComments(data)
	var cfg Config
	if err := json.Unmarshal(cleaned, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}

	// Fill zero-value fields with built-in defaults so callers always get
	// a usable Config even if the user only partially fills in the file.
	if cfg.Sampler.IntervalSeconds <= 0 {
		cfg.Sampler.IntervalSeconds = DefaultSampleInterval
	}
	if cfg.Sampler.TimeoutMillis <= 0 {
		cfg.Sampler.TimeoutMillis = DefaultSampleTimeout
	}
	if cfg.Host.Addr == "" {
		cfg.Host.Addr = DefaultHostAddr
	}
	if cfg.Host.RequestTimeoutSeconds <= 0 {
		cfg.Host.RequestTimeoutSeconds = DefaultRequestTimeout
	}
	if cfg.Hotkey.DoublePressMillis <= 0 {
		cfg.Hotkey.DoublePressMillis = DefaultDoublePressMillis
	}

	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
