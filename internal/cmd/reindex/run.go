package reindexrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/pjreed/rosbag2/internal/config"
	"github.com/pjreed/rosbag2/internal/runtime"
	"github.com/pjreed/rosbag2/internal/storage"
	logpkg "github.com/pjreed/rosbag2/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := func() string { return getenv(key) }(); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	URI    string
	Config cfgpkg.Config
	// DryRun reindexes without writing the index file.
	DryRun bool
	// Logger defaults to one built from Config.Log.
	Logger logpkg.Logger
	// Out receives the summary. Defaults to stdout.
	Out io.Writer
}

// Summary describes the outcome of Run.
type Summary struct {
	Metadata storage.BagMetadata
	// MetadataPath is the index file written, empty if none was.
	MetadataPath string
	// Partial is set when the scan failed part way. Partial results are
	// never written.
	Partial bool
}

// NewLogger builds the process logger from cfg. Unset fields fall back to
// ROSBAG2_LOG_LEVEL/ROSBAG2_LOG_FORMAT and then to info/text.
func NewLogger(cfg cfgpkg.Config) logpkg.Logger {
	lc := &logpkg.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	}
	if lc.Level == "" {
		lc.Level = getenvDefault("ROSBAG2_LOG_LEVEL", "info")
	}
	if lc.Format == "" {
		lc.Format = getenvDefault("ROSBAG2_LOG_FORMAT", "text")
	}
	logger, err := logpkg.ApplyConfig(lc)
	if err != nil {
		// Fallback to a sane default
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(lc.Level); e == nil {
			lvl = l
		}
		logger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return logger
}

// Run reindexes the bag at opts.URI and, unless DryRun is set or the scan
// failed, writes the new index into the bag folder.
func Run(ctx context.Context, opts Options) (Summary, error) {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.Logger
	if logger == nil {
		logger = NewLogger(opts.Config)
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	rt, err := runtime.Open(runtime.Options{Config: opts.Config, Logger: logger})
	if err != nil {
		return Summary{}, err
	}
	defer rt.Close()
	if opts.Config.MetricsFile != "" {
		defer func() {
			if err := rt.WriteMetrics(opts.Config.MetricsFile); err != nil {
				logger.Warn("writing metrics", logpkg.Str("path", opts.Config.MetricsFile), logpkg.Err(err))
			}
		}()
	}

	logger.Info("Reindexing bag",
		logpkg.Str("uri", opts.URI),
		logpkg.Str("storage_id", opts.Config.StorageID),
		logpkg.Str("output_format", opts.Config.OutputSerializationFormat),
		logpkg.Bool("dry_run", opts.DryRun),
	)

	r := rt.NewReindexer()
	if err := r.Open(sctx, rt.StorageOptions(opts.URI), rt.ConverterOptions()); err != nil {
		return Summary{}, fmt.Errorf("open %s: %w", opts.URI, err)
	}
	defer r.Close()

	md, err := r.Reindex(sctx)
	if err != nil {
		summary := Summary{Metadata: md, Partial: len(md.RelativeFilePaths) > 0}
		if summary.Partial {
			fmt.Fprintf(out, "Reindex failed; partial result (not written):\n")
			_ = WriteInfo(out, md)
		}
		return summary, err
	}

	summary := Summary{Metadata: md}
	if !opts.DryRun {
		folder := r.Folder()
		if err := rt.Metadata().WriteMetadata(folder, md); err != nil {
			return summary, fmt.Errorf("write index: %w", err)
		}
		summary.MetadataPath = rt.Metadata().Path(folder)
		logger.Info("Wrote index", logpkg.Str("path", summary.MetadataPath))
	}
	if err := WriteInfo(out, md); err != nil {
		return summary, err
	}
	return summary, nil
}
