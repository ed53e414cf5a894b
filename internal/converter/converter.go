// Package converter resolves serialization-format pairs to converters.
package converter

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNoConverter is returned when no converter is registered for a pair.
var ErrNoConverter = errors.New("converter: no converter for format pair")

// Converter rewrites one serialized payload from its source format to its target format.
type Converter interface {
	Convert(data []byte) ([]byte, error)
}

// Func adapts a plain function to Converter.
type Func func([]byte) ([]byte, error)

func (f Func) Convert(data []byte) ([]byte, error) { return f(data) }

// Constructor builds a fresh converter.
type Constructor func() Converter

type pair struct{ src, dst string }

// Factory is a registry of converters keyed by (source, target) format.
type Factory struct {
	mu    sync.RWMutex
	ctors map[pair]Constructor
}

// NewFactory returns a Factory with the built-in json and yaml converters.
func NewFactory() *Factory {
	f := &Factory{ctors: make(map[pair]Constructor)}
	f.Register("json", "yaml", func() Converter { return Func(jsonToYAML) })
	f.Register("yaml", "json", func() Converter { return Func(yamlToJSON) })
	return f
}

// Register adds or replaces the constructor for src -> dst.
func (f *Factory) Register(src, dst string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctors[pair{src, dst}] = ctor
}

// Supports reports whether src can be converted to dst. Identical formats
// always can.
func (f *Factory) Supports(src, dst string) bool {
	if src == dst {
		return true
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ctors[pair{src, dst}]
	return ok
}

// Load returns a converter for src -> dst.
func (f *Factory) Load(src, dst string) (Converter, error) {
	if src == dst {
		return Func(identity), nil
	}
	f.mu.RLock()
	ctor, ok := f.ctors[pair{src, dst}]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrNoConverter, src, dst)
	}
	return ctor(), nil
}

func identity(b []byte) ([]byte, error) { return b, nil }

func jsonToYAML(b []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return yaml.Marshal(v)
}

func yamlToJSON(b []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return json.Marshal(v)
}
