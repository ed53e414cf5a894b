package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pjreed/rosbag2/internal/storage"
)

// Writer appends records to a .db3 segment.
type Writer struct {
	db       *sql.DB
	topicIDs map[string]int64
}

// Create opens or creates a segment at path and ensures the schema.
func Create(path string) (*Writer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	w := &Writer{db: db, topicIDs: make(map[string]int64)}
	rows, err := db.Query(`SELECT id, name FROM topics`)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			_ = db.Close()
			return nil, err
		}
		w.topicIDs[name] = id
	}
	if err := rows.Err(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// CreateTopic inserts a topic row unless one with the same name exists.
func (w *Writer) CreateTopic(tm storage.TopicMetadata) error {
	if tm.Name == "" {
		return errors.New("sqlite3: topic name is required")
	}
	if _, ok := w.topicIDs[tm.Name]; ok {
		return nil
	}
	res, err := w.db.Exec(`INSERT INTO topics(name, type, serialization_format, offered_qos_profiles) VALUES(?, ?, ?, ?)`,
		tm.Name, tm.Type, tm.SerializationFormat, tm.OfferedQoSProfiles)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.topicIDs[tm.Name] = id
	return nil
}

// Write appends msgs in one transaction.
func (w *Writer) Write(ctx context.Context, msgs []storage.SerializedMessage) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO messages(topic_id, timestamp, data) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, m := range msgs {
		id, ok := w.topicIDs[m.TopicName]
		if !ok {
			return fmt.Errorf("sqlite3: topic %q has not been created", m.TopicName)
		}
		data := m.Data
		if data == nil {
			data = []byte{}
		}
		if _, err := stmt.ExecContext(ctx, id, m.TimeStamp, data); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database, checkpointing the WAL into the main file.
func (w *Writer) Close() error {
	if _, err := w.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		_ = w.db.Close()
		return err
	}
	return w.db.Close()
}
