// Package config provides loading and environment overlay for rosbag2
// tool configuration. It exposes a Default() baseline, file loading and a
// ROSBAG2_* environment overlay, applied in that order.
//
// Example:
//
//	cfg := config.Default()
//	// Optionally load from file and overlay env vars
//	if path := config.DefaultConfigFile(); path != "" {
//	    if fileCfg, err := config.Load(path); err == nil {
//	        cfg = fileCfg
//	    }
//	}
//	config.FromEnv(&cfg)
//	rt, _ := runtime.Open(runtime.Options{Config: cfg})
//	defer rt.Close()
package config
