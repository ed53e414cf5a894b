package config

import (
	"os"
	"strings"
)

// FromEnv overlays ROSBAG2_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("ROSBAG2_STORAGE_ID"); v != "" {
		cfg.StorageID = v
	}
	if v := os.Getenv("ROSBAG2_OUTPUT_SERIALIZATION_FORMAT"); v != "" {
		cfg.OutputSerializationFormat = v
	}
	if v := os.Getenv("ROSBAG2_METADATA_FILE"); v != "" {
		cfg.MetadataFileName = v
	}
	if v := os.Getenv("ROSBAG2_SEGMENT_EXTENSIONS"); v != "" {
		parts := strings.Split(v, ",")
		cfg.SegmentExtensions = nil
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if !strings.HasPrefix(p, ".") {
				p = "." + p
			}
			cfg.SegmentExtensions = append(cfg.SegmentExtensions, p)
		}
	}
	if v := os.Getenv("ROSBAG2_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ROSBAG2_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ROSBAG2_METRICS_FILE"); v != "" {
		cfg.MetricsFile = v
	}
}
