package metadataio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pjreed/rosbag2/internal/storage"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the index file name inside a bag folder.
const DefaultFileName = "metadata.yaml"

// ErrNoMetadata is returned when a bag folder has no index file.
var ErrNoMetadata = errors.New("metadataio: no metadata file")

// IO reads and writes the index file for bags.
type IO struct {
	// FileName overrides DefaultFileName when non-empty.
	FileName string
}

// New returns an IO using fileName, or DefaultFileName when empty.
func New(fileName string) *IO {
	return &IO{FileName: fileName}
}

func (m *IO) fileName() string {
	if m == nil || m.FileName == "" {
		return DefaultFileName
	}
	return m.FileName
}

// Path returns the index file path for the bag at uri.
func (m *IO) Path(uri string) string {
	return filepath.Join(uri, m.fileName())
}

// MetadataFileExists reports whether uri holds a regular index file.
func (m *IO) MetadataFileExists(uri string) bool {
	info, err := os.Stat(m.Path(uri))
	return err == nil && info.Mode().IsRegular()
}

// ReadMetadata parses the index file of the bag at uri.
func (m *IO) ReadMetadata(uri string) (storage.BagMetadata, error) {
	path := m.Path(uri)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.BagMetadata{}, fmt.Errorf("%w: %s", ErrNoMetadata, path)
		}
		return storage.BagMetadata{}, err
	}
	md, err := Unmarshal(b)
	if err != nil {
		return storage.BagMetadata{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return md, nil
}

// WriteMetadata replaces the index file of the bag at uri.
func (m *IO) WriteMetadata(uri string, md storage.BagMetadata) error {
	b, err := Marshal(md)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(uri, "."+m.fileName()+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, m.Path(uri))
}

type document struct {
	Info bagInfo `yaml:"rosbag2_bagfile_information"`
}

type bagInfo struct {
	Version           int          `yaml:"version"`
	StorageIdentifier string       `yaml:"storage_identifier"`
	RelativeFilePaths []string     `yaml:"relative_file_paths"`
	Duration          durationInfo `yaml:"duration"`
	StartingTime      startingTime `yaml:"starting_time"`
	MessageCount      uint64       `yaml:"message_count"`
	Topics            []topicInfo  `yaml:"topics_with_message_count"`
}

type durationInfo struct {
	Nanoseconds int64 `yaml:"nanoseconds"`
}

type startingTime struct {
	NanosecondsSinceEpoch int64 `yaml:"nanoseconds_since_epoch"`
}

type topicInfo struct {
	TopicMetadata storage.TopicMetadata `yaml:"topic_metadata"`
	MessageCount  uint64                `yaml:"message_count"`
}

// Marshal encodes md in the index file format.
func Marshal(md storage.BagMetadata) ([]byte, error) {
	doc := document{Info: bagInfo{
		Version:           md.Version,
		StorageIdentifier: md.StorageIdentifier,
		RelativeFilePaths: md.RelativeFilePaths,
		Duration:          durationInfo{Nanoseconds: int64(md.Duration)},
		StartingTime:      startingTime{NanosecondsSinceEpoch: md.StartingTime.UnixNano()},
		MessageCount:      md.MessageCount,
	}}
	if doc.Info.RelativeFilePaths == nil {
		doc.Info.RelativeFilePaths = []string{}
	}
	doc.Info.Topics = make([]topicInfo, 0, len(md.TopicsWithMessageCount))
	for _, ti := range md.TopicsWithMessageCount {
		doc.Info.Topics = append(doc.Info.Topics, topicInfo{TopicMetadata: ti.TopicMetadata, MessageCount: ti.MessageCount})
	}
	return yaml.Marshal(&doc)
}

// Unmarshal decodes an index file. A missing starting time decodes as the
// "unbounded future" sentinel.
func Unmarshal(b []byte) (storage.BagMetadata, error) {
	doc := document{Info: bagInfo{
		StartingTime: startingTime{NanosecondsSinceEpoch: storage.SentinelStart.UnixNano()},
	}}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return storage.BagMetadata{}, err
	}
	md := storage.BagMetadata{
		Version:           doc.Info.Version,
		StorageIdentifier: doc.Info.StorageIdentifier,
		RelativeFilePaths: doc.Info.RelativeFilePaths,
		StartingTime:      time.Unix(0, doc.Info.StartingTime.NanosecondsSinceEpoch).UTC(),
		Duration:          time.Duration(doc.Info.Duration.Nanoseconds),
		MessageCount:      doc.Info.MessageCount,
	}
	for _, t := range doc.Info.Topics {
		md.TopicsWithMessageCount = append(md.TopicsWithMessageCount, storage.TopicInformation{
			TopicMetadata: t.TopicMetadata,
			MessageCount:  t.MessageCount,
		})
	}
	return md, nil
}
