package eventlog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pjreed/rosbag2/internal/storage"
	pebblestore "github.com/pjreed/rosbag2/internal/storage/pebble"
)

// ErrUnknownTopic is returned when appending to a topic that was never created.
var ErrUnknownTopic = errors.New("eventlog: unknown topic")

// Writer appends records to one segment.
type Writer struct {
	db *pebblestore.DB

	mu      sync.Mutex
	lastSeq uint64
	topics  map[string]storage.TopicMetadata
}

// Create opens (or creates) a writable segment at dir and loads its last sequence.
func Create(dir string) (*Writer, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		return nil, err
	}
	w := &Writer{db: db, topics: make(map[string]storage.TopicMetadata)}
	meta, err := db.Get(KeyMeta())
	switch {
	case err == nil && len(meta) >= 8:
		w.lastSeq = binary.BigEndian.Uint64(meta[:8])
	case err == nil, errors.Is(err, pebble.ErrNotFound):
		if err := w.writeMeta(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
	default:
		_ = db.Close()
		return nil, err
	}
	topics, err := loadTopics(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, tm := range topics {
		w.topics[tm.Name] = tm
	}
	return w, nil
}

func (w *Writer) writeMeta(ctx context.Context) error {
	b := w.db.NewBatch()
	defer b.Close()
	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], w.lastSeq)
	if err := b.Set(KeyMeta(), meta[:], nil); err != nil {
		return err
	}
	return w.db.CommitBatch(ctx, b)
}

// CreateTopic registers a topic. Re-registering an identical topic is a no-op.
func (w *Writer) CreateTopic(tm storage.TopicMetadata) error {
	if tm.Name == "" {
		return errors.New("eventlog: topic name is required")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.topics[tm.Name]; ok {
		if existing != tm {
			return fmt.Errorf("eventlog: topic %q already registered with different metadata", tm.Name)
		}
		return nil
	}
	val, err := json.Marshal(tm)
	if err != nil {
		return err
	}
	if err := w.db.Set(KeyTopic(tm.Name), val); err != nil {
		return err
	}
	w.topics[tm.Name] = tm
	return nil
}

// Append appends msgs as a single atomic batch. Returns assigned seq numbers.
func (w *Writer) Append(ctx context.Context, msgs []storage.SerializedMessage) ([]uint64, error) {
	if len(msgs) == 0 {
		return nil, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	b := w.db.NewBatch()
	defer b.Close()

	seq := w.lastSeq
	seqs := make([]uint64, len(msgs))
	for i, m := range msgs {
		if _, ok := w.topics[m.TopicName]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, m.TopicName)
		}
		seq++
		val := EncodeRecord(encodeHeader(m.TopicName, m.TimeStamp), m.Data)
		if err := b.Set(KeyEntry(seq), val, nil); err != nil {
			return nil, err
		}
		seqs[i] = seq
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], seq)
	if err := b.Set(KeyMeta(), meta[:], nil); err != nil {
		return nil, err
	}
	if err := w.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	w.lastSeq = seq
	return seqs, nil
}

// Close flushes and closes the segment.
func (w *Writer) Close() error {
	return w.db.Close()
}

func loadTopics(db *pebblestore.DB) ([]storage.TopicMetadata, error) {
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: topicPrefix, UpperBound: prefixUpperBound(topicPrefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []storage.TopicMetadata
	for ok := iter.First(); ok; ok = iter.Next() {
		var tm storage.TopicMetadata
		if err := json.Unmarshal(iter.Value(), &tm); err != nil {
			return nil, fmt.Errorf("%w: topic %q: %v", ErrCorruptRecord, iter.Key()[len(topicPrefix):], err)
		}
		out = append(out, tm)
	}
	return out, iter.Error()
}
