package main

import (
	"context"
	"fmt"
	"os"

	reindexrun "github.com/pjreed/rosbag2/internal/cmd/reindex"
	cfgpkg "github.com/pjreed/rosbag2/internal/config"
	logpkg "github.com/pjreed/rosbag2/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rosbag2",
		Short: "rosbag2 bag tools",
		Long:  "Tools for inspecting rosbag2 bags and rebuilding their metadata index from raw segments.",
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (JSON or YAML); defaults to $ROSBAG2_CONFIG or ~/.config/rosbag2/config.yaml")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text|json (default text)")

	// reindex
	reindexCmd := &cobra.Command{
		Use:   "reindex <uri>",
		Short: "Rebuild metadata.yaml by scanning every segment of a bag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("storage-id"); v != "" {
				cfg.StorageID = v
			}
			if v, _ := cmd.Flags().GetString("output-format"); v != "" {
				cfg.OutputSerializationFormat = v
			}
			if v, _ := cmd.Flags().GetString("metrics-file"); v != "" {
				cfg.MetricsFile = v
			}
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			logger := reindexrun.NewLogger(cfg)
			// Redirect standard library logs (used by Pebble) to our logger
			logpkg.RedirectStdLog(logger)

			summary, err := reindexrun.Run(context.Background(), reindexrun.Options{
				URI:    args[0],
				Config: cfg,
				DryRun: dryRun,
				Logger: logger,
				Out:    cmd.OutOrStdout(),
			})
			if err != nil {
				if summary.Partial {
					return fmt.Errorf("reindex incomplete, index not written: %w", err)
				}
				return fmt.Errorf("reindex error: %w", err)
			}
			if summary.MetadataPath != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", summary.MetadataPath)
			}
			return nil
		},
	}
	reindexCmd.Flags().String("storage-id", os.Getenv("ROSBAG2_STORAGE_ID"), "Storage backend: sqlite3|pebble (default: probe)")
	reindexCmd.Flags().String("output-format", "", "Serialization format readers will request; open fails if it cannot be converted to")
	reindexCmd.Flags().String("metrics-file", "", "Write Prometheus metrics in text format to this file")
	reindexCmd.Flags().Bool("dry-run", false, "Scan and print the result without writing metadata.yaml")
	rootCmd.AddCommand(reindexCmd)

	// info
	infoCmd := &cobra.Command{
		Use:   "info <uri>",
		Short: "Print the metadata index of a bag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			md, err := reindexrun.Info(args[0], cfg)
			if err != nil {
				return err
			}
			return reindexrun.WriteInfo(cmd.OutOrStdout(), md)
		},
	}
	rootCmd.AddCommand(infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig applies defaults, then the config file, then ROSBAG2_* env, then flags.
func loadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = cfgpkg.DefaultConfigFile()
	}
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		return cfgpkg.Config{}, fmt.Errorf("load config: %w", err)
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	return cfg, nil
}
