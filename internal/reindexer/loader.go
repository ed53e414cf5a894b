package reindexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/pkg/log"
)

// StorageOpener constructs read-only backend handles. storage.Factory
// implements it.
type StorageOpener interface {
	OpenReadOnly(path, storageID string) (storage.ReadOnly, error)
	Extensions() []string
}

// MetadataReader is the index-file collaborator. metadataio.IO implements it.
type MetadataReader interface {
	MetadataFileExists(uri string) bool
	ReadMetadata(uri string) (storage.BagMetadata, error)
}

// Baseline is what a Loader knows about a bag before scanning it.
type Baseline struct {
	Metadata storage.BagMetadata
	// Folder is the bag folder relative segment paths are anchored to.
	Folder string
	// FilePaths are the resolved segment paths, in write order.
	FilePaths []string
	// UsingFallback is set when no index existed and segments were discovered.
	UsingFallback bool
	// Handle is open on FilePaths[0] when there is at least one segment.
	Handle storage.ReadOnly
}

// Loader establishes a Baseline from an index file or, failing that, from
// the segments themselves.
type Loader struct {
	storage    StorageOpener
	metadata   MetadataReader
	extensions []string
	logger     log.Logger
}

// NewLoader returns a Loader. extensions overrides the segment suffixes
// used for discovery; when empty the opener's registered extensions apply.
func NewLoader(opener StorageOpener, metadata MetadataReader, extensions []string, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &Loader{
		storage:    opener,
		metadata:   metadata,
		extensions: extensions,
		logger:     logger.WithComponent("loader"),
	}
}

// Load returns the baseline for opts.URI. On success the caller owns
// Baseline.Handle.
func (l *Loader) Load(opts storage.StorageOptions) (Baseline, error) {
	info, err := os.Stat(opts.URI)
	if err != nil {
		return Baseline{}, fmt.Errorf("%w: %s: %v", ErrNotFound, opts.URI, err)
	}
	if info.IsDir() && l.metadata != nil && l.metadata.MetadataFileExists(opts.URI) {
		return l.loadIndex(opts)
	}
	return l.loadFallback(opts, info.IsDir())
}

func (l *Loader) loadIndex(opts storage.StorageOptions) (Baseline, error) {
	md, err := l.metadata.ReadMetadata(opts.URI)
	if err != nil {
		return Baseline{}, fmt.Errorf("%w: read index: %w", ErrOpen, err)
	}
	b := Baseline{Metadata: md, Folder: opts.URI}
	if len(md.RelativeFilePaths) == 0 {
		l.logger.Warn("No file paths were found in metadata.", log.Str("uri", opts.URI))
		return b, nil
	}
	b.FilePaths, err = ResolveRelativePaths(opts.URI, md.RelativeFilePaths, md.Version)
	if err != nil {
		return Baseline{}, err
	}
	for _, p := range b.FilePaths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return Baseline{}, fmt.Errorf("%w: segment %s", ErrNotFound, p)
		}
	}
	storageID := opts.StorageID
	if storageID == "" {
		storageID = md.StorageIdentifier
	}
	b.Handle, err = l.open(b.FilePaths[0], storageID)
	if err != nil {
		return Baseline{}, err
	}
	if len(md.TopicsWithMessageCount) == 0 {
		l.logger.Warn("No topics were listed in metadata.", log.Str("uri", opts.URI))
	}
	l.logger.Debug("loaded index",
		log.Str("uri", opts.URI),
		log.Int("version", md.Version),
		log.Int("segments", len(b.FilePaths)))
	return b, nil
}

func (l *Loader) loadFallback(opts storage.StorageOptions, isDir bool) (Baseline, error) {
	b := Baseline{UsingFallback: true}
	var segments []string
	switch {
	case !isDir || l.isSegment(opts.URI):
		b.Folder = filepath.Dir(filepath.Clean(opts.URI))
		segments = []string{opts.URI}
	default:
		b.Folder = opts.URI
		var err error
		segments, err = l.discover(opts.URI)
		if err != nil {
			return Baseline{}, err
		}
	}

	b.Metadata = storage.BagMetadata{
		Version:           storage.CurrentLayoutVersion,
		StorageIdentifier: opts.StorageID,
		StartingTime:      storage.SentinelStart,
	}
	if len(segments) == 0 {
		l.logger.Warn("No file paths were found in metadata.", log.Str("uri", opts.URI))
		return b, nil
	}

	h, err := l.open(segments[0], opts.StorageID)
	if err != nil {
		return Baseline{}, err
	}
	self, err := h.GetMetadata()
	if err != nil {
		_ = h.Close()
		return Baseline{}, fmt.Errorf("%w: %s: %v", ErrOpen, segments[0], err)
	}

	b.Handle = h
	b.FilePaths = segments
	b.Metadata.StorageIdentifier = h.GetStorageIdentifier()
	b.Metadata.RelativeFilePaths = make([]string, len(segments))
	for i, s := range segments {
		b.Metadata.RelativeFilePaths[i] = StripParentPath(s)
	}
	// Only the topic list is kept. Counts and times reported by the
	// segment itself are rebuilt by Reindex.
	for _, ti := range self.TopicsWithMessageCount {
		b.Metadata.TopicsWithMessageCount = append(b.Metadata.TopicsWithMessageCount,
			storage.TopicInformation{TopicMetadata: ti.TopicMetadata})
	}
	if len(b.Metadata.TopicsWithMessageCount) == 0 {
		l.logger.Warn("No topics were listed in metadata.", log.Str("uri", opts.URI))
	}
	l.logger.Debug("discovered segments",
		log.Str("uri", opts.URI),
		log.Str("storage_id", b.Metadata.StorageIdentifier),
		log.Int("segments", len(segments)))
	return b, nil
}

func (l *Loader) open(path, storageID string) (storage.ReadOnly, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: segment %s", ErrNotFound, path)
	}
	h, err := l.storage.OpenReadOnly(path, storageID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrOpen, path)
	}
	return h, nil
}

func (l *Loader) segmentExtensions() []string {
	if len(l.extensions) > 0 {
		return l.extensions
	}
	return l.storage.Extensions()
}

func (l *Loader) isSegment(path string) bool {
	name := filepath.Base(filepath.Clean(path))
	for _, ext := range l.segmentExtensions() {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// discover lists the segments directly inside dir in write order.
func (l *Loader) discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, dir, err)
	}
	var names []string
	for _, e := range entries {
		if l.isSegment(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sortSegmentNames(names)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = filepath.Join(dir, n)
	}
	return out, nil
}

// sortSegmentNames orders names by their trailing "_<N>" split index, so
// bag_2 sorts before bag_10. Names without an index sort after indexed ones,
// by name.
func sortSegmentNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		si, iok := splitIndex(names[i])
		sj, jok := splitIndex(names[j])
		switch {
		case iok && jok && si != sj:
			return si < sj
		case iok != jok:
			return iok
		}
		return names[i] < names[j]
	})
}

func splitIndex(name string) (uint64, bool) {
	stem := name
	if i := strings.IndexByte(stem, '.'); i >= 0 {
		stem = stem[:i]
	}
	i := strings.LastIndexByte(stem, '_')
	if i < 0 || i == len(stem)-1 {
		return 0, false
	}
	n, err := strconv.ParseUint(stem[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
