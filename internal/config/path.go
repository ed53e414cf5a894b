package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigFile returns the first existing configuration file among
// $ROSBAG2_CONFIG, $XDG_CONFIG_HOME/rosbag2/config.yaml,
// ~/.config/rosbag2/config.yaml and ~/.rosbag2.yaml, or "" if none exists.
func DefaultConfigFile() string {
	for _, p := range configCandidates() {
		if isFile(p) {
			return p
		}
	}
	return ""
}

func configCandidates() []string {
	var out []string
	if v := os.Getenv("ROSBAG2_CONFIG"); v != "" {
		out = append(out, v)
	}
	// XDG (Linux) override
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		out = append(out, filepath.Join(xdg, "rosbag2", "config.yaml"))
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return out
	}
	return append(out,
		filepath.Join(homeDir, ".config", "rosbag2", "config.yaml"),
		filepath.Join(homeDir, ".rosbag2.yaml"),
	)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
