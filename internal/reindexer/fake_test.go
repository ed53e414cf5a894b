package reindexer

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/stretchr/testify/require"
)

const fakeExt = ".fake"

type fakeSegment struct {
	topics []storage.TopicMetadata
	msgs   []storage.SerializedMessage
	// failAfter > 0 makes iteration fail after that many records.
	failAfter int
}

// fakeStore is an in-memory backend keyed by segment path. Segment files must
// still exist on disk so the loader can discover them.
type fakeStore struct {
	mu       sync.Mutex
	segments map[string]*fakeSegment
	open     int
	maxOpen  int
	opened   []string
	onOpen   func(path string)
	openErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{segments: make(map[string]*fakeSegment)}
}

// add creates an empty file for the segment and registers its contents.
func (f *fakeStore) add(t *testing.T, path string, seg *fakeSegment) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	f.segments[path] = seg
}

func (f *fakeStore) Extensions() []string { return []string{fakeExt} }

func (f *fakeStore) OpenReadOnly(path, storageID string) (storage.ReadOnly, error) {
	if storageID != "" && storageID != "fake" {
		return nil, storage.ErrUnknownStorage
	}
	if f.openErr != nil {
		return nil, f.openErr
	}
	if f.onOpen != nil {
		f.onOpen(path)
	}
	seg, ok := f.segments[path]
	if !ok {
		return nil, errors.New("fake: no such segment " + path)
	}
	f.mu.Lock()
	f.open++
	if f.open > f.maxOpen {
		f.maxOpen = f.open
	}
	f.opened = append(f.opened, path)
	f.mu.Unlock()
	return &fakeHandle{store: f, path: path, seg: seg, pos: -1}, nil
}

func (f *fakeStore) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

type fakeHandle struct {
	store  *fakeStore
	path   string
	seg    *fakeSegment
	pos    int
	err    error
	closed bool
}

func (h *fakeHandle) GetMetadata() (storage.BagMetadata, error) {
	md := storage.BagMetadata{
		Version:           storage.CurrentLayoutVersion,
		StorageIdentifier: "fake",
		RelativeFilePaths: []string{filepath.Base(h.path)},
		StartingTime:      storage.SentinelStart,
	}
	for _, tm := range h.seg.topics {
		// Stale counts, never trusted by Reindex.
		md.TopicsWithMessageCount = append(md.TopicsWithMessageCount, storage.TopicInformation{TopicMetadata: tm, MessageCount: 999})
	}
	return md, nil
}

func (h *fakeHandle) GetStorageIdentifier() string { return "fake" }
func (h *fakeHandle) GetRelativeFilePath() string  { return h.path }

func (h *fakeHandle) GetAllTopicsAndTypes() ([]storage.TopicMetadata, error) {
	return h.seg.topics, nil
}

func (h *fakeHandle) Next() bool {
	if h.closed || h.err != nil {
		return false
	}
	if h.seg.failAfter > 0 && h.pos+1 >= h.seg.failAfter {
		h.err = errors.New("fake: truncated record")
		return false
	}
	if h.pos+1 >= len(h.seg.msgs) {
		return false
	}
	h.pos++
	return true
}

func (h *fakeHandle) Message() storage.SerializedMessage { return h.seg.msgs[h.pos] }
func (h *fakeHandle) Err() error                         { return h.err }

func (h *fakeHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.store.mu.Lock()
	h.store.open--
	h.store.mu.Unlock()
	return nil
}

func cdrTopic(name string) storage.TopicMetadata {
	return storage.TopicMetadata{Name: name, Type: "pkg/msg/" + name, SerializationFormat: "cdr"}
}

func msgs(topic string, stamps ...int64) []storage.SerializedMessage {
	out := make([]storage.SerializedMessage, len(stamps))
	for i, ts := range stamps {
		out[i] = storage.SerializedMessage{TopicName: topic, TimeStamp: ts, Data: []byte{byte(i), 1, 2}}
	}
	return out
}
