package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type nodeConfig struct {
	Listen   string
	LogLevel string
}

func defaultNodeConfig() nodeConfig {
	return nodeConfig{Listen: ":7420", LogLevel: "info"}
}

type fileConfig struct {
	Listen   string `toml:"listen"`
	LogLevel string `toml:"log_level"`
}

func loadNodeConfig(path string, cfg nodeConfig) (nodeConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nodeConfig{}, fmt.Errorf("load node config: %w", err)
	}
	if meta.IsDefined("listen") {
		cfg.Listen = strings.TrimSpace(raw.Listen)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	return cfg, nil
}
