package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the list of stations to track. Everything else about the
// process is configured through the environment.
type Config struct {
	Stations []string `yaml:"stations"`
}

func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	stations := make([]string, 0, len(cfg.Stations))
	for _, s := range cfg.Stations {
		if s = strings.TrimSpace(s); s != "" {
			stations = append(stations, s)
		}
	}
	cfg.Stations = stations

	if len(cfg.Stations) == 0 {
		return nil, fmt.Errorf("no stations configured in %s", filename)
	}

	return &cfg, nil
}
