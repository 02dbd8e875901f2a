package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			BindAddress: "0.0.0.0",
			BufferSize:  8192,
		},
		Library: LibraryConfig{
			MusicDir:       "music",
			DescriptionExt: ".json",
			WatchDebounce:  500,
		},
		Admin: AdminConfig{
			Enabled: true,
			Port:    9090,
			Address: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid server port",
			mutate:      func(c *Config) { c.Server.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between 1 and 65535",
		},
		{
			name:        "empty bind address",
			mutate:      func(c *Config) { c.Server.BindAddress = "" },
			expectError: true,
			errorMsg:    "bind_address cannot be empty",
		},
		{
			name:        "buffer too small",
			mutate:      func(c *Config) { c.Server.BufferSize = 512 },
			expectError: true,
			errorMsg:    "buffer_size must be at least 1024",
		},
		{
			name:        "empty music dir",
			mutate:      func(c *Config) { c.Library.MusicDir = "" },
			expectError: true,
			errorMsg:    "music_dir cannot be empty",
		},
		{
			name:        "description ext without dot",
			mutate:      func(c *Config) { c.Library.DescriptionExt = "json" },
			expectError: true,
			errorMsg:    "description_ext must start with '.'",
		},
		{
			name:        "negative watch debounce",
			mutate:      func(c *Config) { c.Library.WatchDebounce = -1 },
			expectError: true,
			errorMsg:    "watch_debounce_ms cannot be negative",
		},
		{
			name:        "invalid admin port when enabled",
			mutate:      func(c *Config) { c.Admin.Port = 0 },
			expectError: true,
			errorMsg:    "admin port must be between 1 and 65535",
		},
		{
			name: "admin ignored when disabled",
			mutate: func(c *Config) {
				c.Admin.Enabled = false
				c.Admin.Port = 0
				c.Admin.Address = ""
			},
			expectError: false,
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.Logging.Format = "xml" },
			expectError: true,
			errorMsg:    "format must be 'json' or 'text'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		content := `
server:
  port: 8181
  bind_address: "127.0.0.1"
  buffer_size: 16384
library:
  music_dir: "tracks"
  description_ext: ".json"
  watch: true
  watch_debounce_ms: 250
logging:
  level: "debug"
  format: "json"
  output: "stderr"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}

		if cfg.Server.Port != 8181 {
			t.Errorf("Port = %d, expected 8181", cfg.Server.Port)
		}
		if cfg.Library.MusicDir != "tracks" {
			t.Errorf("MusicDir = %q, expected \"tracks\"", cfg.Library.MusicDir)
		}
		if !cfg.Library.Watch {
			t.Errorf("Watch = false, expected true")
		}
		if cfg.Library.GetWatchDebounce() != 250*time.Millisecond {
			t.Errorf("GetWatchDebounce() = %v, expected 250ms", cfg.Library.GetWatchDebounce())
		}
		if cfg.Logging.Format != "json" {
			t.Errorf("Format = %q, expected \"json\"", cfg.Logging.Format)
		}
	})

	t.Run("defaults fill omitted sections", func(t *testing.T) {
		path := filepath.Join(dir, "minimal.yaml")
		if err := os.WriteFile(path, []byte("library:\n  music_dir: \"media\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() returned error: %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("Port = %d, expected default 8080", cfg.Server.Port)
		}
		if cfg.Server.BufferSize != 8192 {
			t.Errorf("BufferSize = %d, expected default 8192", cfg.Server.BufferSize)
		}
		if cfg.Library.MusicDir != "media" {
			t.Errorf("MusicDir = %q, expected \"media\"", cfg.Library.MusicDir)
		}
		if cfg.Library.DescriptionExt != ".json" {
			t.Errorf("DescriptionExt = %q, expected default \".json\"", cfg.Library.DescriptionExt)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		if err == nil {
			t.Errorf("Expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("server: [not a mapping"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "failed to parse") {
			t.Errorf("Expected parse error, got: %v", err)
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: -1\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, err := Load(path)
		if err == nil || !strings.Contains(err.Error(), "config validation failed") {
			t.Errorf("Expected validation error, got: %v", err)
		}
	})
}
