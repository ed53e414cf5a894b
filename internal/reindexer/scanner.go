package reindexer

import (
	"context"
	"fmt"

	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/pkg/log"
)

// Record is what a scan reports for one message. Payloads are not decoded.
type Record struct {
	Topic     storage.TopicMetadata
	TimeStamp int64
	Size      int
}

// Scan is a single-pass, forward-only iteration over the records of an
// ordered segment list. Exactly one segment is open at a time.
type Scan struct {
	ctx       context.Context
	storage   StorageOpener
	storageID string
	paths     []string
	logger    log.Logger
	metrics   *Metrics

	idx     int
	cur     storage.ReadOnly
	first   storage.ReadOnly
	topics  map[string]storage.TopicMetadata
	records uint64
	rec     Record
	err     error
	done    bool
}

// NewScan prepares a scan of paths in the given order. If first is non-nil
// it must be a fresh handle on paths[0]; the scan takes ownership of it.
// The context is checked before each segment is opened.
func NewScan(ctx context.Context, opener StorageOpener, storageID string, paths []string, first storage.ReadOnly, logger log.Logger, metrics *Metrics) *Scan {
	if logger == nil {
		logger = log.NewLogger(log.WithOutput(log.NullOutput{}))
	}
	return &Scan{
		ctx:       ctx,
		storage:   opener,
		storageID: storageID,
		paths:     paths,
		first:     first,
		logger:    logger.WithComponent("scanner"),
		metrics:   metrics,
	}
}

// Next advances to the next record. It returns false when every segment has
// been read or on failure; Err tells the two apart.
func (s *Scan) Next() bool {
	for {
		if s.err != nil || s.done {
			return false
		}
		if s.cur == nil && !s.openNext() {
			return false
		}
		if s.cur.Next() {
			msg := s.cur.Message()
			tm, ok := s.topics[msg.TopicName]
			if !ok {
				tm = storage.TopicMetadata{Name: msg.TopicName}
			}
			s.rec = Record{Topic: tm, TimeStamp: msg.TimeStamp, Size: len(msg.Data)}
			s.records++
			s.metrics.record(tm.Name, len(msg.Data))
			return true
		}
		if err := s.cur.Err(); err != nil {
			s.fail(err)
			return false
		}
		s.logger.Debug("segment scanned",
			log.Str("path", s.paths[s.idx]),
			log.Uint64("records", s.records))
		s.metrics.segmentScanned()
		if err := s.closeCurrent(); err != nil {
			s.logger.Warn("closing segment", log.Str("path", s.paths[s.idx]), log.Err(err))
		}
		s.idx++
	}
}

func (s *Scan) openNext() bool {
	if s.idx >= len(s.paths) {
		s.done = true
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	path := s.paths[s.idx]
	s.records = 0
	if s.first != nil {
		s.cur, s.first = s.first, nil
	} else {
		h, err := s.storage.OpenReadOnly(path, s.storageID)
		if err != nil {
			s.fail(err)
			return false
		}
		s.cur = h
	}

	topics, err := s.cur.GetAllTopicsAndTypes()
	if err != nil {
		s.fail(fmt.Errorf("list topics: %w", err))
		return false
	}
	s.topics = make(map[string]storage.TopicMetadata, len(topics))
	for _, tm := range topics {
		s.topics[tm.Name] = tm
	}
	return true
}

func (s *Scan) fail(err error) {
	path := ""
	if s.idx < len(s.paths) {
		path = s.paths[s.idx]
	}
	s.err = &SegmentError{Path: path, Records: s.records, Err: err}
	s.metrics.corruptSegment()
	s.logger.Error("segment scan failed", log.Str("path", path), log.Uint64("records", s.records), log.Err(err))
	_ = s.closeCurrent()
}

func (s *Scan) closeCurrent() error {
	if s.cur == nil {
		return nil
	}
	err := s.cur.Close()
	s.cur = nil
	return err
}

// Record returns the record Next advanced to.
func (s *Scan) Record() Record { return s.rec }

// Err returns the error that stopped the scan, a *SegmentError or the
// context's error, or nil if it ran to completion.
func (s *Scan) Err() error { return s.err }

// Close releases any open segment, including an unused first handle.
func (s *Scan) Close() error {
	err := s.closeCurrent()
	if s.first != nil {
		if ferr := s.first.Close(); err == nil {
			err = ferr
		}
		s.first = nil
	}
	s.done = true
	return err
}
