package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigFile(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, home, xdg string) string
	}{
		{
			name: "ROSBAG2_CONFIG wins",
			setup: func(t *testing.T, home, xdg string) string {
				explicit := filepath.Join(t.TempDir(), "explicit.json")
				writeFile(t, explicit)
				writeFile(t, filepath.Join(xdg, "rosbag2", "config.yaml"))
				t.Setenv("ROSBAG2_CONFIG", explicit)
				return explicit
			},
		},
		{
			name: "XDG_CONFIG_HOME",
			setup: func(t *testing.T, home, xdg string) string {
				p := filepath.Join(xdg, "rosbag2", "config.yaml")
				writeFile(t, p)
				writeFile(t, filepath.Join(home, ".rosbag2.yaml"))
				return p
			},
		},
		{
			name: "home dotfile",
			setup: func(t *testing.T, home, xdg string) string {
				p := filepath.Join(home, ".rosbag2.yaml")
				writeFile(t, p)
				return p
			},
		},
		{
			name: "missing explicit falls through",
			setup: func(t *testing.T, home, xdg string) string {
				t.Setenv("ROSBAG2_CONFIG", filepath.Join(home, "nope.yaml"))
				p := filepath.Join(home, ".config", "rosbag2", "config.yaml")
				writeFile(t, p)
				return p
			},
		},
		{
			name: "nothing",
			setup: func(t *testing.T, home, xdg string) string {
				return ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home, xdg := t.TempDir(), t.TempDir()
			t.Setenv("HOME", home)
			t.Setenv("XDG_CONFIG_HOME", xdg)
			t.Setenv("ROSBAG2_CONFIG", "")
			expected := tt.setup(t, home, xdg)

			if result := DefaultConfigFile(); result != expected {
				t.Errorf("Expected %q, got %q", expected, result)
			}
		})
	}
}

func TestDefaultConfigFileIgnoresDirectories(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("ROSBAG2_CONFIG", "")
	if err := os.MkdirAll(filepath.Join(home, ".rosbag2.yaml"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if result := DefaultConfigFile(); result != "" {
		t.Errorf("Expected no config file, got %q", result)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
