package reindexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/pkg/log"
)

// ConverterOptions carries the requested output serialization format.
// Empty means no conversion.
type ConverterOptions struct {
	OutputSerializationFormat string
}

type state int

const (
	stateClosed state = iota
	stateOpen
)

// Option configures a Reindexer.
type Option func(*Reindexer)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(r *Reindexer) { r.logger = l }
}

// WithMetrics enables metrics collection.
func WithMetrics(m *Metrics) Option {
	return func(r *Reindexer) { r.metrics = m }
}

// WithSegmentExtensions overrides the suffixes used to discover segments
// when a bag has no index.
func WithSegmentExtensions(exts ...string) Option {
	return func(r *Reindexer) { r.extensions = exts }
}

// Reindexer rebuilds the catalog of one bag at a time.
type Reindexer struct {
	storage    StorageOpener
	converters FormatSupporter
	metadata   MetadataReader
	extensions []string
	logger     log.Logger
	metrics    *Metrics

	state    state
	opts     storage.StorageOptions
	convOpts ConverterOptions
	baseline Baseline
}

// New returns a closed Reindexer. converters and metadata may be nil, in
// which case no conversion is supported and bags are always treated as
// having no index.
func New(opener StorageOpener, converters FormatSupporter, metadata MetadataReader, opts ...Option) *Reindexer {
	r := &Reindexer{
		storage:    opener,
		converters: converters,
		metadata:   metadata,
	}
	for _, o := range opts {
		o(r)
	}
	if r.logger == nil {
		r.logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	r.logger = r.logger.WithComponent("reindexer")
	return r
}

// Open establishes the segment list and topic baseline for the bag at
// so.URI and checks format consistency. Any previously opened bag is closed
// first. On failure the Reindexer stays closed.
func (r *Reindexer) Open(ctx context.Context, so storage.StorageOptions, co ConverterOptions) error {
	if r.state == stateOpen {
		if err := r.Close(); err != nil {
			r.logger.Warn("closing previous bag", log.Err(err))
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	loader := NewLoader(r.storage, r.metadata, r.extensions, r.logger)
	b, err := loader.Load(so)
	if err != nil {
		return err
	}
	format, err := CheckConsistency(b.Metadata.Topics(), co.OutputSerializationFormat, r.converters)
	if err != nil {
		if b.Handle != nil {
			_ = b.Handle.Close()
		}
		return err
	}

	r.opts = so
	r.convOpts = co
	r.baseline = b
	r.state = stateOpen
	r.logger.Info("opened bag",
		log.Str("uri", so.URI),
		log.Str("storage_id", b.Metadata.StorageIdentifier),
		log.Str("serialization_format", format),
		log.Int("segments", len(b.FilePaths)),
		log.Bool("fallback", b.UsingFallback))
	return nil
}

// IsOpen reports whether Open has succeeded and Close has not been called since.
func (r *Reindexer) IsOpen() bool { return r.state == stateOpen }

// Baseline returns the metadata established by Open. Its counts and times
// are untrusted.
func (r *Reindexer) Baseline() (storage.BagMetadata, error) {
	if r.state != stateOpen {
		return storage.BagMetadata{}, ErrNotOpen
	}
	return r.baseline.Metadata, nil
}

// FilePaths returns the resolved segment paths in scan order.
func (r *Reindexer) FilePaths() []string {
	return append([]string(nil), r.baseline.FilePaths...)
}

// Folder returns the bag folder of the open bag.
func (r *Reindexer) Folder() string { return r.baseline.Folder }

// Reindex scans every segment and returns a freshly computed catalog.
//
// If a segment is corrupt or topics disagree on format, the catalog built up
// to that point is returned together with the error, and the Reindexer stays
// open. If ctx is cancelled the partial catalog is discarded, the bag is
// closed and ctx's error is returned.
func (r *Reindexer) Reindex(ctx context.Context) (storage.BagMetadata, error) {
	if r.state != stateOpen {
		return storage.BagMetadata{}, ErrNotOpen
	}
	start := time.Now()
	defer func() { r.metrics.observe(time.Since(start).Seconds()) }()

	base := r.baseline.Metadata
	storageID := r.opts.StorageID
	if storageID == "" {
		storageID = base.StorageIdentifier
	}
	version := base.Version
	if version == 0 {
		version = storage.CurrentLayoutVersion
	}

	// The handle left by Open is only fresh for the first pass.
	first := r.baseline.Handle
	r.baseline.Handle = nil

	scan := NewScan(ctx, r.storage, storageID, r.baseline.FilePaths, first, r.logger, r.metrics)
	builder := NewBuilder(storageID, version, base.RelativeFilePaths)
	defer func() {
		if err := scan.Close(); err != nil {
			r.logger.Warn("closing scan", log.Err(err))
		}
	}()
	var buildErr error
	for scan.Next() {
		if err := builder.Add(scan.Record()); err != nil {
			buildErr = err
			break
		}
	}

	scanErr := scan.Err()
	if scanErr != nil && (errors.Is(scanErr, context.Canceled) || errors.Is(scanErr, context.DeadlineExceeded)) {
		r.logger.Warn("reindex cancelled", log.Str("uri", r.opts.URI), log.Err(scanErr))
		_ = r.Close()
		return storage.BagMetadata{}, scanErr
	}

	md := builder.Metadata()
	switch {
	case buildErr != nil:
		return md, buildErr
	case scanErr != nil:
		return md, fmt.Errorf("reindex %s: %w", r.opts.URI, scanErr)
	}

	if md.Empty() {
		r.logger.Warn("bag contains no records", log.Str("uri", r.opts.URI))
	}
	r.logger.Info("reindexed bag",
		log.Str("uri", r.opts.URI),
		log.Uint64("messages", md.MessageCount),
		log.Int("topics", len(md.TopicsWithMessageCount)),
		log.Duration("elapsed", time.Since(start)))
	return md, nil
}

// Close releases the backend handle and discards the baseline. It is safe
// to call on a closed Reindexer.
func (r *Reindexer) Close() error {
	var err error
	if r.baseline.Handle != nil {
		err = r.baseline.Handle.Close()
	}
	r.baseline = Baseline{}
	r.opts = storage.StorageOptions{}
	r.convOpts = ConverterOptions{}
	r.state = stateClosed
	return err
}
