package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	cfgpkg "github.com/pjreed/rosbag2/internal/config"
	"github.com/pjreed/rosbag2/internal/converter"
	"github.com/pjreed/rosbag2/internal/eventlog"
	"github.com/pjreed/rosbag2/internal/reindexer"
	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/internal/storage/metadataio"
	"github.com/pjreed/rosbag2/internal/storage/sqlite3"
	"github.com/pjreed/rosbag2/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger defaults to a discarding logger.
	Logger log.Logger
	// Registry defaults to a fresh registry.
	Registry *prometheus.Registry
	// Plugins replaces the built-in sqlite3 and pebble backends when set.
	Plugins []storage.Plugin
}

// Runtime wires storage, config, and collaborators for reindexing.
type Runtime struct {
	config     cfgpkg.Config
	logger     log.Logger
	storage    *storage.Factory
	converters *converter.Factory
	metadata   *metadataio.IO
	registry   *prometheus.Registry
	metrics    *reindexer.Metrics

	mu     sync.Mutex
	open   []*reindexer.Reindexer
	closed bool
}

// Open validates the configuration and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	plugins := opts.Plugins
	if len(plugins) == 0 {
		plugins = []storage.Plugin{sqlite3.Plugin{}, eventlog.Plugin{}}
	}
	factory := storage.NewFactory(plugins...)
	if id := opts.Config.StorageID; id != "" {
		if _, ok := factory.Plugin(id); !ok {
			return nil, fmt.Errorf("%w: %q", storage.ErrUnknownStorage, id)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	rt := &Runtime{
		config:     opts.Config,
		logger:     logger,
		storage:    factory,
		converters: converter.NewFactory(),
		metadata:   metadataio.New(opts.Config.MetadataFileName),
		registry:   reg,
		metrics:    reindexer.NewMetrics(reg),
	}
	return rt, nil
}

// Close closes every Reindexer handed out by NewReindexer.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for _, ri := range r.open {
		errs = append(errs, ri.Close())
	}
	r.open = nil
	r.closed = true
	return errors.Join(errs...)
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return errors.New("runtime closed")
	}
	if len(r.storage.Extensions()) == 0 {
		return storage.ErrNoStorage
	}
	return nil
}

// NewReindexer returns a closed Reindexer bound to this runtime's collaborators.
func (r *Runtime) NewReindexer() *reindexer.Reindexer {
	opts := []reindexer.Option{
		reindexer.WithLogger(r.logger),
		reindexer.WithMetrics(r.metrics),
	}
	if len(r.config.SegmentExtensions) > 0 {
		opts = append(opts, reindexer.WithSegmentExtensions(r.config.SegmentExtensions...))
	}
	ri := reindexer.New(r.storage, r.converters, r.metadata, opts...)
	r.mu.Lock()
	r.open = append(r.open, ri)
	r.mu.Unlock()
	return ri
}

// StorageOptions returns the options for the bag at uri under this configuration.
func (r *Runtime) StorageOptions(uri string) storage.StorageOptions {
	return storage.StorageOptions{URI: uri, StorageID: r.config.StorageID}
}

// ConverterOptions returns the configured converter options.
func (r *Runtime) ConverterOptions() reindexer.ConverterOptions {
	return reindexer.ConverterOptions{OutputSerializationFormat: r.config.OutputSerializationFormat}
}

// WriteMetrics writes the registry to path in the Prometheus text format.
func (r *Runtime) WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Storage exposes the plugin registry.
func (r *Runtime) Storage() *storage.Factory { return r.storage }

// Metadata exposes the index file reader/writer.
func (r *Runtime) Metadata() *metadataio.IO { return r.metadata }

// Converters exposes the converter factory.
func (r *Runtime) Converters() *converter.Factory { return r.converters }

// Registry exposes the metrics registry.
func (r *Runtime) Registry() *prometheus.Registry { return r.registry }

// Logger returns the runtime logger.
func (r *Runtime) Logger() log.Logger { return r.logger }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
