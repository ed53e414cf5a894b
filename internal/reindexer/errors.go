package reindexer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the bag folder or a segment is missing.
	ErrNotFound = errors.New("reindexer: not found")
	// ErrOpen is returned when no storage backend could be constructed.
	ErrOpen = errors.New("reindexer: no storage could be initialized")
	// ErrInconsistentFormat is returned when topics disagree on serialization format.
	ErrInconsistentFormat = errors.New("reindexer: inconsistent serialization format")
	// ErrUnsupportedConversion is returned when no converter exists for the requested output format.
	ErrUnsupportedConversion = errors.New("reindexer: unsupported conversion")
	// ErrCorruptSegment is returned when a segment cannot be read to its end.
	ErrCorruptSegment = errors.New("reindexer: corrupt segment")
	// ErrNotOpen is returned by operations that require an open Reindexer.
	ErrNotOpen = errors.New("reindexer: not open")
)

// SegmentError reports a segment that failed mid-scan. Records is the
// number of records read from that segment before the failure.
type SegmentError struct {
	Path    string
	Records uint64
	Err     error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("reindexer: corrupt segment %s after %d records: %v", e.Path, e.Records, e.Err)
}

func (e *SegmentError) Unwrap() []error { return []error{ErrCorruptSegment, e.Err} }

// FormatError reports a topic whose serialization format (or, when Field is
// "type", message type) disagrees with what was seen first.
type FormatError struct {
	Topic    string
	Field    string
	Format   string
	Expected string
}

func (e *FormatError) Error() string {
	field := e.Field
	if field == "" {
		field = "serialization format"
	}
	return fmt.Sprintf("reindexer: topic %q has %s %q, expected %q", e.Topic, field, e.Format, e.Expected)
}

func (e *FormatError) Is(target error) bool { return target == ErrInconsistentFormat }
