package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"web/spidermap/spider"
)

// Config is the serve command's YAML configuration.
type Config struct {
	Port        int    `yaml:"port"`
	Provider    string `yaml:"provider"`
	SnapshotDir string `yaml:"snapshotDir"`
	Log         bool   `yaml:"log"`

	View struct {
		Lat  float64 `yaml:"lat"`
		Lng  float64 `yaml:"lng"`
		Zoom int     `yaml:"zoom"`
	} `yaml:"view"`

	Cluster struct {
		Radius    float64 `yaml:"radius"`
		MinPoints int     `yaml:"minPoints"`
		Extent    int     `yaml:"extent"`
	} `yaml:"cluster"`

	Spider spider.Options `yaml:"spider"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	var cfg Config
	cfg.Port = 8000
	cfg.Provider = "streetmap"
	cfg.SnapshotDir = "data/layers"
	cfg.View.Lat = 39.0
	cfg.View.Lng = -96.0
	cfg.View.Zoom = 4
	return cfg
}

// LoadConfig reads a YAML config file, merging it over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %v", err)
	}

	if cfg.Port <= 0 {
		cfg.Port = 8000
	}
	return cfg, nil
}
