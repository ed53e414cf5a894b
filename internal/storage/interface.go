package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrNoStorage is returned when no registered plugin can open a path.
	ErrNoStorage = errors.New("storage: no storage could be initialized")
	// ErrUnknownStorage is returned when a pinned storage id is not registered.
	ErrUnknownStorage = errors.New("storage: unknown storage identifier")
)

// ReadOnly is the capability set every backend exposes for one opened segment.
// Records are iterated forward only, in append order; Next returns false at the
// end of the segment or on failure, and Err distinguishes the two.
type ReadOnly interface {
	// GetMetadata returns whatever the segment can say about itself. Counts
	// and times are informational only.
	GetMetadata() (BagMetadata, error)
	GetStorageIdentifier() string
	// GetRelativeFilePath returns the path the segment was opened with.
	GetRelativeFilePath() string
	GetAllTopicsAndTypes() ([]TopicMetadata, error)

	Next() bool
	Message() SerializedMessage
	Err() error

	Close() error
}

// Plugin constructs ReadOnly handles for one on-disk format.
type Plugin interface {
	Identifier() string
	// Extension is the segment file (or directory) suffix, including the dot.
	Extension() string
	OpenReadOnly(path string) (ReadOnly, error)
}

// Factory is an ordered registry of plugins.
type Factory struct {
	plugins []Plugin
}

// NewFactory returns a Factory with the given plugins registered in order.
func NewFactory(plugins ...Plugin) *Factory {
	f := &Factory{}
	for _, p := range plugins {
		f.Register(p)
	}
	return f
}

// Register adds p, replacing any plugin with the same identifier.
func (f *Factory) Register(p Plugin) {
	for i, existing := range f.plugins {
		if existing.Identifier() == p.Identifier() {
			f.plugins[i] = p
			return
		}
	}
	f.plugins = append(f.plugins, p)
}

// Plugin returns the plugin registered under id.
func (f *Factory) Plugin(id string) (Plugin, bool) {
	for _, p := range f.plugins {
		if p.Identifier() == id {
			return p, true
		}
	}
	return nil, false
}

// Extensions lists the segment suffixes of all registered plugins.
func (f *Factory) Extensions() []string {
	out := make([]string, 0, len(f.plugins))
	for _, p := range f.plugins {
		out = append(out, p.Extension())
	}
	return out
}

// OpenReadOnly opens path with the plugin pinned by storageID, or probes the
// registered plugins when storageID is empty. Plugins whose extension matches
// path are tried first.
func (f *Factory) OpenReadOnly(path, storageID string) (ReadOnly, error) {
	if storageID != "" {
		p, ok := f.Plugin(storageID)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStorage, storageID)
		}
		ro, err := p.OpenReadOnly(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s with %s: %v", ErrNoStorage, path, storageID, err)
		}
		return ro, nil
	}

	var errs []error
	for _, p := range f.probeOrder(path) {
		ro, err := p.OpenReadOnly(path)
		if err == nil {
			return ro, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Identifier(), err))
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: %s: no plugins registered", ErrNoStorage, path)
	}
	return nil, fmt.Errorf("%w: %s: %v", ErrNoStorage, path, errors.Join(errs...))
}

func (f *Factory) probeOrder(path string) []Plugin {
	base := strings.TrimRight(filepath.Base(path), string(filepath.Separator))
	matched := make([]Plugin, 0, len(f.plugins))
	rest := make([]Plugin, 0, len(f.plugins))
	for _, p := range f.plugins {
		if ext := p.Extension(); ext != "" && strings.HasSuffix(base, ext) {
			matched = append(matched, p)
			continue
		}
		rest = append(rest, p)
	}
	return append(matched, rest...)
}
