package reindexer

import (
	"math"
	"time"

	"github.com/pjreed/rosbag2/internal/storage"
)

type topicCount struct {
	meta  storage.TopicMetadata
	count uint64
}

// Builder accumulates a catalog from scanned records. The zero value is not
// usable; start from NewBuilder.
type Builder struct {
	storageID string
	version   int
	paths     []string

	format string
	order  []string
	topics map[string]*topicCount
	count  uint64
	min    int64
	max    int64
}

// NewBuilder starts an empty catalog for the given backend and segment
// list. paths is copied verbatim into the result.
func NewBuilder(storageID string, version int, paths []string) *Builder {
	return &Builder{
		storageID: storageID,
		version:   version,
		paths:     append([]string(nil), paths...),
		topics:    make(map[string]*topicCount),
		min:       math.MaxInt64,
		max:       math.MinInt64,
	}
}

// Add counts r. The first record of a topic fixes its metadata; a later
// record that disagrees on serialization format or type, or a new topic in
// a different format than the store, is a *FormatError and is not counted.
func (b *Builder) Add(r Record) error {
	tc, ok := b.topics[r.Topic.Name]
	if ok {
		if r.Topic.SerializationFormat != tc.meta.SerializationFormat {
			return &FormatError{Topic: r.Topic.Name, Format: r.Topic.SerializationFormat, Expected: tc.meta.SerializationFormat}
		}
		if r.Topic.Type != tc.meta.Type {
			return &FormatError{Topic: r.Topic.Name, Field: "type", Format: r.Topic.Type, Expected: tc.meta.Type}
		}
	} else {
		if len(b.order) == 0 {
			b.format = r.Topic.SerializationFormat
		} else if r.Topic.SerializationFormat != b.format {
			return &FormatError{Topic: r.Topic.Name, Format: r.Topic.SerializationFormat, Expected: b.format}
		}
		tc = &topicCount{meta: r.Topic}
		b.topics[r.Topic.Name] = tc
		b.order = append(b.order, r.Topic.Name)
	}

	tc.count++
	b.count++
	if r.TimeStamp < b.min {
		b.min = r.TimeStamp
	}
	if r.TimeStamp > b.max {
		b.max = r.TimeStamp
	}
	return nil
}

// Count returns the number of records added so far.
func (b *Builder) Count() uint64 { return b.count }

// Metadata returns the catalog built so far. With no records the starting
// time is storage.SentinelStart, the duration is zero and Empty reports true.
func (b *Builder) Metadata() storage.BagMetadata {
	md := storage.BagMetadata{
		Version:           b.version,
		StorageIdentifier: b.storageID,
		RelativeFilePaths: append([]string{}, b.paths...),
		StartingTime:      storage.SentinelStart,
		MessageCount:      b.count,
	}
	if b.count > 0 {
		md.StartingTime = time.Unix(0, b.min).UTC()
		md.Duration = span(b.min, b.max)
	}
	md.TopicsWithMessageCount = make([]storage.TopicInformation, 0, len(b.order))
	for _, name := range b.order {
		tc := b.topics[name]
		md.TopicsWithMessageCount = append(md.TopicsWithMessageCount, storage.TopicInformation{
			TopicMetadata: tc.meta,
			MessageCount:  tc.count,
		})
	}
	return md
}

// span returns hi-lo, clamped to the largest representable duration.
func span(lo, hi int64) time.Duration {
	d := uint64(hi) - uint64(lo)
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
