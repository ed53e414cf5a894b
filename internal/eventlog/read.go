package eventlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
	"github.com/pjreed/rosbag2/internal/storage"
	pebblestore "github.com/pjreed/rosbag2/internal/storage/pebble"
)

// ErrNotSegment is returned when a Pebble directory carries no segment metadata.
var ErrNotSegment = errors.New("eventlog: not a segment")

// Reader scans one segment read-only. It implements storage.ReadOnly.
type Reader struct {
	path    string
	db      *pebblestore.DB
	lastSeq uint64
	topics  []storage.TopicMetadata
	byName  map[string]storage.TopicMetadata

	iter    *pebble.Iterator
	started bool
	cur     storage.SerializedMessage
	err     error
}

var _ storage.ReadOnly = (*Reader)(nil)

// Open opens the segment at path without modifying it.
func Open(path string) (*Reader, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: path, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	meta, err := db.Get(KeyMeta())
	if err != nil || len(meta) < 8 {
		_ = db.Close()
		if err == nil || errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotSegment, path)
		}
		return nil, err
	}
	topics, err := loadTopics(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	r := &Reader{
		path:    path,
		db:      db,
		lastSeq: binary.BigEndian.Uint64(meta[:8]),
		topics:  topics,
		byName:  make(map[string]storage.TopicMetadata, len(topics)),
	}
	for _, tm := range topics {
		r.byName[tm.Name] = tm
	}
	return r, nil
}

func (r *Reader) GetStorageIdentifier() string { return Identifier }

func (r *Reader) GetRelativeFilePath() string { return r.path }

func (r *Reader) GetAllTopicsAndTypes() ([]storage.TopicMetadata, error) {
	return append([]storage.TopicMetadata(nil), r.topics...), nil
}

// GetMetadata reports the segment's own view: its topics and the last
// sequence as a message count. Counts per topic and times are not tracked.
func (r *Reader) GetMetadata() (storage.BagMetadata, error) {
	md := storage.BagMetadata{
		Version:           storage.CurrentLayoutVersion,
		StorageIdentifier: Identifier,
		RelativeFilePaths: []string{filepath.Base(r.path)},
		StartingTime:      storage.SentinelStart,
		MessageCount:      r.lastSeq,
	}
	for _, tm := range r.topics {
		md.TopicsWithMessageCount = append(md.TopicsWithMessageCount, storage.TopicInformation{TopicMetadata: tm})
	}
	return md, nil
}

// Next advances to the next entry in sequence order.
func (r *Reader) Next() bool {
	if r.err != nil || r.db == nil {
		return false
	}
	var ok bool
	if !r.started {
		r.started = true
		iter, err := r.db.NewIter(&pebble.IterOptions{LowerBound: entryPrefix, UpperBound: prefixUpperBound(entryPrefix)})
		if err != nil {
			r.err = err
			return false
		}
		r.iter = iter
		ok = iter.First()
	} else {
		ok = r.iter.Next()
	}
	if !ok {
		r.err = r.iter.Error()
		return false
	}

	seq, _ := seqFromEntryKey(r.iter.Key())
	dec, err := DecodeRecord(r.iter.Value())
	if err != nil {
		r.err = fmt.Errorf("entry %d: %w", seq, err)
		return false
	}
	topic, ts, err := decodeHeader(dec.Header)
	if err != nil {
		r.err = fmt.Errorf("entry %d: %w", seq, err)
		return false
	}
	if _, known := r.byName[topic]; !known {
		r.err = fmt.Errorf("entry %d: %w: %q", seq, ErrUnknownTopic, topic)
		return false
	}
	r.cur = storage.SerializedMessage{TopicName: topic, TimeStamp: ts, Data: dec.Payload}
	return true
}

func (r *Reader) Message() storage.SerializedMessage { return r.cur }

func (r *Reader) Err() error { return r.err }

// Close releases the iterator and the database. It is safe to call twice.
func (r *Reader) Close() error {
	var errs []error
	if r.iter != nil {
		errs = append(errs, r.iter.Close())
		r.iter = nil
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}
