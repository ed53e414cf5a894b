package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// StorageID pins a storage backend. Empty means probe.
	StorageID string `json:"storageId" yaml:"storageId"`
	// OutputSerializationFormat is the format readers will request. Open
	// fails if no converter exists for it.
	OutputSerializationFormat string `json:"outputSerializationFormat" yaml:"outputSerializationFormat"`
	MetadataFileName          string `json:"metadataFileName" yaml:"metadataFileName"`
	// SegmentExtensions restricts which files count as segments when a bag
	// has no index. Empty means every registered backend's extension.
	SegmentExtensions []string  `json:"segmentExtensions" yaml:"segmentExtensions"`
	Log               LogConfig `json:"log" yaml:"log"`
	MetricsFile       string    `json:"metricsFile" yaml:"metricsFile"`
}

// LogConfig selects log verbosity and rendering.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		MetadataFileName: "metadata.yaml",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
