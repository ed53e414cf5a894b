package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pjreed/rosbag2/internal/storage"
	_ "modernc.org/sqlite" // Import SQLite driver for database/sql
)

var (
	// ErrNotSegment is returned when a file is not a readable rosbag2 database.
	ErrNotSegment = errors.New("sqlite3: not a segment")
	// ErrUnknownTopicID is reported when a message references a missing topic row.
	ErrUnknownTopicID = errors.New("sqlite3: message references unknown topic")
)

// Reader scans one .db3 segment. It implements storage.ReadOnly.
type Reader struct {
	path   string
	db     *sql.DB
	topics []storage.TopicMetadata
	byID   map[int64]storage.TopicMetadata

	ctx    context.Context
	cancel context.CancelFunc
	rows   *sql.Rows
	cur    storage.SerializedMessage
	err    error
	done   bool
}

var _ storage.ReadOnly = (*Reader)(nil)

// Open opens an existing segment read-only. Missing files are never created.
func Open(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSegment, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotSegment, path)
	}
	// query_only is applied to every pooled connection through the DSN.
	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, err
	}
	r := &Reader{path: path, db: db, byID: make(map[int64]storage.TopicMetadata)}
	if err := r.loadTopics(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrNotSegment, path, err)
	}
	return r, nil
}

func (r *Reader) loadTopics() error {
	rows, err := r.db.Query(`SELECT id, name, type, serialization_format, offered_qos_profiles FROM topics ORDER BY id ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var tm storage.TopicMetadata
		if err := rows.Scan(&id, &tm.Name, &tm.Type, &tm.SerializationFormat, &tm.OfferedQoSProfiles); err != nil {
			return err
		}
		r.topics = append(r.topics, tm)
		r.byID[id] = tm
	}
	return rows.Err()
}

func (r *Reader) GetStorageIdentifier() string { return Identifier }

func (r *Reader) GetRelativeFilePath() string { return r.path }

func (r *Reader) GetAllTopicsAndTypes() ([]storage.TopicMetadata, error) {
	return append([]storage.TopicMetadata(nil), r.topics...), nil
}

// GetMetadata aggregates the segment's own view of counts and time span.
// It is informational only: reindexing recounts every record.
func (r *Reader) GetMetadata() (storage.BagMetadata, error) {
	md := storage.BagMetadata{
		Version:           storage.CurrentLayoutVersion,
		StorageIdentifier: Identifier,
		RelativeFilePaths: []string{filepath.Base(r.path)},
		StartingTime:      storage.SentinelStart,
	}

	counts := make(map[int64]uint64, len(r.byID))
	rows, err := r.db.Query(`SELECT topic_id, COUNT(*) FROM messages GROUP BY topic_id`)
	if err != nil {
		return md, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n uint64
		if err := rows.Scan(&id, &n); err != nil {
			return md, err
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return md, err
	}

	var minTS, maxTS sql.NullInt64
	if err := r.db.QueryRow(`SELECT MIN(timestamp), MAX(timestamp) FROM messages`).Scan(&minTS, &maxTS); err != nil {
		return md, err
	}
	if minTS.Valid && maxTS.Valid {
		md.StartingTime = time.Unix(0, minTS.Int64).UTC()
		md.Duration = time.Duration(maxTS.Int64 - minTS.Int64)
	}

	ids := make([]int64, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		md.TopicsWithMessageCount = append(md.TopicsWithMessageCount, storage.TopicInformation{
			TopicMetadata: r.byID[id],
			MessageCount:  counts[id],
		})
		md.MessageCount += counts[id]
	}
	return md, nil
}

// Next advances to the next message in id order.
func (r *Reader) Next() bool {
	if r.done || r.err != nil || r.db == nil {
		return false
	}
	if r.rows == nil {
		r.ctx, r.cancel = context.WithCancel(context.Background())
		rows, err := r.db.QueryContext(r.ctx, `SELECT id, topic_id, timestamp, data FROM messages ORDER BY id ASC`)
		if err != nil {
			r.err = err
			return false
		}
		r.rows = rows
	}
	if !r.rows.Next() {
		r.err = r.rows.Err()
		r.done = true
		return false
	}
	var id, topicID, ts int64
	var data []byte
	if err := r.rows.Scan(&id, &topicID, &ts, &data); err != nil {
		r.err = fmt.Errorf("message %d: %w", id, err)
		return false
	}
	tm, ok := r.byID[topicID]
	if !ok {
		r.err = fmt.Errorf("message %d: %w %d", id, ErrUnknownTopicID, topicID)
		return false
	}
	r.cur = storage.SerializedMessage{TopicName: tm.Name, TimeStamp: ts, Data: data}
	return true
}

func (r *Reader) Message() storage.SerializedMessage { return r.cur }

func (r *Reader) Err() error { return r.err }

// Close releases the cursor and the database handle. It is safe to call twice.
func (r *Reader) Close() error {
	var errs []error
	if r.rows != nil {
		errs = append(errs, r.rows.Close())
		r.rows = nil
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.db != nil {
		errs = append(errs, r.db.Close())
		r.db = nil
	}
	return errors.Join(errs...)
}
