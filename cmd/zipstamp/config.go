package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the command-line flag surface in a TOML file, so build
// pipelines can check the merge settings in next to the build definition.
// Flags explicitly set on the command line win over file values.
type fileConfig struct {
	OutputTimestamp   string `toml:"output-timestamp"`
	BuildReproducible *bool  `toml:"build-reproducible"`
	RequireLastBuild  *bool  `toml:"require-last-build"`
	TimeZone          string `toml:"time-zone"`
	LogLevel          string `toml:"log-level"`
}

func loadConfigFile(path string) (*fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	return &cfg, nil
}
