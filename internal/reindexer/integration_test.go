package reindexer_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pjreed/rosbag2/internal/converter"
	"github.com/pjreed/rosbag2/internal/eventlog"
	"github.com/pjreed/rosbag2/internal/reindexer"
	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/internal/storage/metadataio"
	"github.com/pjreed/rosbag2/internal/storage/sqlite3"
	"github.com/stretchr/testify/require"
)

var (
	imu = storage.TopicMetadata{Name: "imu", Type: "sensor_msgs/msg/Imu", SerializationFormat: "cdr"}
	gps = storage.TopicMetadata{Name: "gps", Type: "sensor_msgs/msg/NavSatFix", SerializationFormat: "cdr"}
)

func newReindexer() (*reindexer.Reindexer, *metadataio.IO) {
	factory := storage.NewFactory(sqlite3.Plugin{}, eventlog.Plugin{})
	io := metadataio.New("")
	return reindexer.New(factory, converter.NewFactory(), io), io
}

func writeDB3(t *testing.T, path string, msgs []storage.SerializedMessage) {
	t.Helper()
	w, err := sqlite3.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.CreateTopic(imu))
	require.NoError(t, w.CreateTopic(gps))
	require.NoError(t, w.Write(context.Background(), msgs))
	require.NoError(t, w.Close())
}

func writePebble(t *testing.T, dir string, msgs []storage.SerializedMessage) {
	t.Helper()
	w, err := eventlog.Create(dir)
	require.NoError(t, err)
	require.NoError(t, w.CreateTopic(imu))
	require.NoError(t, w.CreateTopic(gps))
	_, err = w.Append(context.Background(), msgs)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func rec(topic string, ts int64) storage.SerializedMessage {
	return storage.SerializedMessage{TopicName: topic, TimeStamp: ts, Data: []byte("payload")}
}

func TestReindexSQLiteBagAndPersist(t *testing.T) {
	dir := t.TempDir()
	writeDB3(t, filepath.Join(dir, "bag_0.db3"), []storage.SerializedMessage{rec("imu", 10), rec("imu", 11), rec("gps", 12)})
	writeDB3(t, filepath.Join(dir, "bag_1.db3"), []storage.SerializedMessage{rec("imu", 13), rec("imu", 14)})

	r, io := newReindexer()
	require.NoError(t, r.Open(context.Background(), storage.StorageOptions{URI: dir}, reindexer.ConverterOptions{}))
	md, err := r.Reindex(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.Close())

	require.Equal(t, sqlite3.Identifier, md.StorageIdentifier)
	require.Equal(t, []string{"bag_0.db3", "bag_1.db3"}, md.RelativeFilePaths)
	require.Equal(t, uint64(5), md.MessageCount)
	ti, ok := md.Topic("imu")
	require.True(t, ok)
	require.Equal(t, uint64(4), ti.MessageCount)
	require.Equal(t, int64(10), md.StartingTime.UnixNano())
	require.Equal(t, int64(14), md.EndingTime().UnixNano())

	require.NoError(t, io.WriteMetadata(dir, md))

	// A second pass goes through the written index and must agree.
	r2, _ := newReindexer()
	require.NoError(t, r2.Open(context.Background(), storage.StorageOptions{URI: dir}, reindexer.ConverterOptions{}))
	defer r2.Close()
	again, err := r2.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, md, again)
}

func TestReindexPebbleBag(t *testing.T) {
	dir := t.TempDir()
	writePebble(t, filepath.Join(dir, "bag_0.pebble"), []storage.SerializedMessage{rec("gps", 30), rec("imu", 20)})
	writePebble(t, filepath.Join(dir, "bag_1.pebble"), []storage.SerializedMessage{rec("imu", 25)})

	r, _ := newReindexer()
	require.NoError(t, r.Open(context.Background(), storage.StorageOptions{URI: dir, StorageID: eventlog.Identifier}, reindexer.ConverterOptions{}))
	defer r.Close()
	md, err := r.Reindex(context.Background())
	require.NoError(t, err)

	require.Equal(t, eventlog.Identifier, md.StorageIdentifier)
	require.Equal(t, []string{"bag_0.pebble", "bag_1.pebble"}, md.RelativeFilePaths)
	require.Equal(t, uint64(3), md.MessageCount)
	// First-seen order.
	require.Equal(t, "gps", md.TopicsWithMessageCount[0].TopicMetadata.Name)
	require.Equal(t, int64(20), md.StartingTime.UnixNano())
	require.Equal(t, int64(30), md.EndingTime().UnixNano())
}

func TestReindexSingleSegmentURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "solo.db3")
	writeDB3(t, path, []storage.SerializedMessage{rec("imu", 1)})

	r, _ := newReindexer()
	require.NoError(t, r.Open(context.Background(), storage.StorageOptions{URI: path}, reindexer.ConverterOptions{}))
	defer r.Close()
	require.Equal(t, dir, r.Folder())
	md, err := r.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"solo.db3"}, md.RelativeFilePaths)
	require.Equal(t, uint64(1), md.MessageCount)
}

func TestOpenUnknownStorageID(t *testing.T) {
	dir := t.TempDir()
	writeDB3(t, filepath.Join(dir, "bag_0.db3"), nil)

	r, _ := newReindexer()
	err := r.Open(context.Background(), storage.StorageOptions{URI: dir, StorageID: "mcap"}, reindexer.ConverterOptions{})
	require.ErrorIs(t, err, reindexer.ErrOpen)
	require.ErrorIs(t, err, storage.ErrUnknownStorage)
	require.False(t, r.IsOpen())
}
