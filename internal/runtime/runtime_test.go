package runtime

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cfgpkg "github.com/pjreed/rosbag2/internal/config"
	"github.com/pjreed/rosbag2/internal/eventlog"
	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/internal/storage/sqlite3"
	"github.com/stretchr/testify/require"
)

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{Config: cfgpkg.Default()})
	require.NoError(t, err)
	require.NoError(t, rt.CheckHealth(context.Background()))
	require.ElementsMatch(t, []string{sqlite3.Extension, eventlog.Extension}, rt.Storage().Extensions())
	require.NoError(t, rt.Close())
	require.Error(t, rt.CheckHealth(context.Background()))
}

func TestOpenRejectsUnknownStorageID(t *testing.T) {
	cfg := cfgpkg.Default()
	cfg.StorageID = "mcap"
	_, err := Open(Options{Config: cfg})
	require.True(t, errors.Is(err, storage.ErrUnknownStorage))
}

func TestReindexAndWriteMetrics(t *testing.T) {
	dir := t.TempDir()
	w, err := sqlite3.Create(filepath.Join(dir, "bag_0.db3"))
	require.NoError(t, err)
	require.NoError(t, w.CreateTopic(storage.TopicMetadata{Name: "imu", Type: "sensor_msgs/msg/Imu", SerializationFormat: "cdr"}))
	require.NoError(t, w.Write(context.Background(), []storage.SerializedMessage{
		{TopicName: "imu", TimeStamp: 1, Data: []byte("ab")},
		{TopicName: "imu", TimeStamp: 2, Data: []byte("cd")},
	}))
	require.NoError(t, w.Close())

	cfg := cfgpkg.Default()
	cfg.MetadataFileName = "index.yaml"
	rt, err := Open(Options{Config: cfg})
	require.NoError(t, err)
	defer rt.Close()

	r := rt.NewReindexer()
	require.NoError(t, r.Open(context.Background(), rt.StorageOptions(dir), rt.ConverterOptions()))
	md, err := r.Reindex(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(2), md.MessageCount)

	require.NoError(t, rt.Metadata().WriteMetadata(dir, md))
	_, err = os.Stat(filepath.Join(dir, "index.yaml"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "reindex.prom")
	require.NoError(t, rt.WriteMetrics(out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), `rosbag2_reindex_records_scanned_total{topic="imu"} 2`))

	require.NoError(t, rt.Close())
	require.False(t, r.IsOpen())
}
