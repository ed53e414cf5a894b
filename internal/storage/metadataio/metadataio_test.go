package metadataio

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pjreed/rosbag2/internal/storage"
)

func sample() storage.BagMetadata {
	return storage.BagMetadata{
		Version:           storage.CurrentLayoutVersion,
		StorageIdentifier: "sqlite3",
		RelativeFilePaths: []string{"bag_0.db3", "bag_1.db3"},
		StartingTime:      time.Unix(0, 1_600_000_000_000_000_010).UTC(),
		Duration:          4 * time.Nanosecond,
		MessageCount:      7,
		TopicsWithMessageCount: []storage.TopicInformation{
			{TopicMetadata: storage.TopicMetadata{Name: "imu", Type: "sensor_msgs/msg/Imu", SerializationFormat: "cdr"}, MessageCount: 5},
			{TopicMetadata: storage.TopicMetadata{Name: "gps", Type: "sensor_msgs/msg/NavSatFix", SerializationFormat: "cdr", OfferedQoSProfiles: "- depth: 10"}, MessageCount: 2},
		},
	}
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	m := New("")
	if m.MetadataFileExists(dir) {
		t.Fatalf("index reported before write")
	}
	want := sample()
	if err := m.WriteMetadata(dir, want); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !m.MetadataFileExists(dir) {
		t.Fatalf("index missing after write")
	}
	got, err := m.ReadMetadata(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("mismatch\n got %+v\nwant %+v", got, want)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != DefaultFileName {
		t.Fatalf("unexpected files left behind: %v", entries)
	}
}

func TestMarshalLayout(t *testing.T) {
	b, err := Marshal(sample())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	for _, want := range []string{
		"rosbag2_bagfile_information:",
		"version: 4",
		"storage_identifier: sqlite3",
		"nanoseconds: 4",
		"nanoseconds_since_epoch: 1600000000000000010",
		"topics_with_message_count:",
		"serialization_format: cdr",
	} {
		if !strings.Contains(s, want) {
			t.Fatalf("missing %q in\n%s", want, s)
		}
	}
}

func TestReadMissing(t *testing.T) {
	_, err := New("").ReadMetadata(t.TempDir())
	if !errors.Is(err, ErrNoMetadata) {
		t.Fatalf("want ErrNoMetadata, got %v", err)
	}
}

func TestCustomFileName(t *testing.T) {
	dir := t.TempDir()
	m := New("index.yaml")
	if err := m.WriteMetadata(dir, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.yaml")); err != nil {
		t.Fatalf("stat: %v", err)
	}
	if New("").MetadataFileExists(dir) {
		t.Fatalf("default name should not exist")
	}
}

func TestUnmarshalWithoutStartingTime(t *testing.T) {
	md, err := Unmarshal([]byte("rosbag2_bagfile_information:\n  version: 3\n  storage_identifier: sqlite3\n"))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if md.Version != 3 || !md.StartingTime.Equal(storage.SentinelStart) {
		t.Fatalf("got %+v", md)
	}
}
