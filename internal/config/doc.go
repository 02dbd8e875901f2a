// Package config provides configuration loading and validation for the media streaming server.
// It handles YAML-based configuration with struct validation covering the TCP listener,
// the music library layout, the admin API, and logging.
package config
