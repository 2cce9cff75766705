package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type DestinationConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	Path   string `yaml:"path"`
}

type Config struct {
	SchemaDir   string            `yaml:"schema_dir"`
	BatchSize   int               `yaml:"batch_size"`
	Destination DestinationConfig `yaml:"destination"`
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.Destination.Driver = normalizeDriver(config.Destination.Driver)

	if config.SchemaDir == "" {
		config.SchemaDir = "schemas"
	}
	if config.BatchSize == 0 {
		config.BatchSize = 1000
	}
	if config.Destination.Driver == "sqlite" && config.Destination.Path == "" {
		config.Destination.Path = "tabload.db"
	}

	return &config, nil
}

func normalizeDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		return "sqlite"
	}

	switch driver {
	case "postgres", "postgresql":
		return "postgres"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return driver
	}
}
