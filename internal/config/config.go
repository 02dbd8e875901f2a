package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Library LibraryConfig `yaml:"library"`
	Admin   AdminConfig   `yaml:"admin"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains TCP listener configuration
type ServerConfig struct {
	Port        int    `yaml:"port"`
	BindAddress string `yaml:"bind_address"`
	BufferSize  int    `yaml:"buffer_size"`
}

// LibraryConfig contains music library configuration
type LibraryConfig struct {
	MusicDir       string `yaml:"music_dir"`
	DescriptionExt string `yaml:"description_ext"`
	ProbeTags      bool   `yaml:"probe_tags"`       // seed missing descriptions from ID3 tags
	Watch          bool   `yaml:"watch"`            // reload automatically on directory changes
	WatchDebounce  int    `yaml:"watch_debounce_ms"`
}

// AdminConfig contains the admin/monitoring HTTP API configuration.
// Note that the streaming protocol itself, including GET /reload, is served
// on the main TCP port without authentication; the admin API is a separate,
// optional surface.
type AdminConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a configuration matching the historical hard-coded values:
// port 8080, an 8 KiB request/copy buffer, and a "music/" library with ".json"
// description sidecars.
func Default() *Config {
	return &Config{
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
			Enabled: false,
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

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of the complete configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Library.Validate(); err != nil {
		return fmt.Errorf("library config: %w", err)
	}

	if err := c.Admin.Validate(); err != nil {
		return fmt.Errorf("admin config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.BufferSize < 1024 {
		return fmt.Errorf("buffer_size must be at least 1024 bytes, got %d", s.BufferSize)
	}

	return nil
}

// Validate validates library configuration
func (l *LibraryConfig) Validate() error {
	if l.MusicDir == "" {
		return fmt.Errorf("music_dir cannot be empty")
	}

	if l.DescriptionExt == "" || l.DescriptionExt[0] != '.' {
		return fmt.Errorf("description_ext must start with '.', got %q", l.DescriptionExt)
	}

	if l.WatchDebounce < 0 {
		return fmt.Errorf("watch_debounce_ms cannot be negative, got %d", l.WatchDebounce)
	}

	return nil
}

// Validate validates admin API configuration
func (a *AdminConfig) Validate() error {
	if a.Enabled {
		if a.Port < 1 || a.Port > 65535 {
			return fmt.Errorf("admin port must be between 1 and 65535, got %d", a.Port)
		}

		if a.Address == "" {
			return fmt.Errorf("admin address cannot be empty when admin API is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetWatchDebounce returns the watcher debounce interval as a time.Duration
func (l *LibraryConfig) GetWatchDebounce() time.Duration {
	return time.Duration(l.WatchDebounce) * time.Millisecond
}
