package app

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"fuselink/internal/domain"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	// Home is the config directory, e.g. $HOME/.fuselink.
	Home string

	// Node is the fusion node dial address, e.g. 127.0.0.1:7420. Empty
	// means offline (key and token management only).
	Node string

	// LocalID is this device's destination identity.
	LocalID domain.DestinationID

	// StaticAddr pins the local relay address instead of waiting for the
	// node to assign one. Mostly for tests and fixed deployments.
	StaticAddr domain.RelayAddress

	// LogLevel is a zerolog level name; empty means "info".
	LogLevel string
}

type fileConfig struct {
	Home       string `toml:"home"`
	Node       string `toml:"node"`
	LocalID    uint32 `toml:"local_id"`
	StaticAddr string `toml:"static_addr"`
	LogLevel   string `toml:"log_level"`
}

// LoadConfig overlays a TOML file onto cfg. Only keys present in the file
// override.
func LoadConfig(path string, cfg Config) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if meta.IsDefined("home") {
		cfg.Home = strings.TrimSpace(raw.Home)
	}
	if meta.IsDefined("node") {
		cfg.Node = strings.TrimSpace(raw.Node)
	}
	if meta.IsDefined("local_id") {
		cfg.LocalID = domain.DestinationID(raw.LocalID)
	}
	if meta.IsDefined("static_addr") {
		cfg.StaticAddr = domain.RelayAddress(strings.TrimSpace(raw.StaticAddr))
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}
