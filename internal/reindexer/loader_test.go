package reindexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/internal/storage/metadataio"
	"github.com/stretchr/testify/require"
)

func TestSortSegmentNames(t *testing.T) {
	names := []string{"bag_10.db3", "notes.db3", "bag_2.db3", "bag_0.db3", "bag_1.db3", "alpha.db3"}
	sortSegmentNames(names)
	require.Equal(t, []string{"bag_0.db3", "bag_1.db3", "bag_2.db3", "bag_10.db3", "alpha.db3", "notes.db3"}, names)
}

func TestLoaderDiscoversSegmentsInWriteOrder(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	for _, n := range []string{"bag_10.fake", "bag_9.fake", "bag_0.fake"} {
		store.add(t, filepath.Join(dir, n), &fakeSegment{topics: []storage.TopicMetadata{cdrTopic("imu")}})
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), nil, 0o644))

	b, err := NewLoader(store, metadataio.New(""), nil, nil).Load(storage.StorageOptions{URI: dir})
	require.NoError(t, err)
	defer b.Handle.Close()

	require.True(t, b.UsingFallback)
	require.Equal(t, dir, b.Folder)
	require.Equal(t, []string{"bag_0.fake", "bag_9.fake", "bag_10.fake"}, b.Metadata.RelativeFilePaths)
	require.Equal(t, filepath.Join(dir, "bag_0.fake"), b.FilePaths[0])
	require.Equal(t, filepath.Join(dir, "bag_0.fake"), b.Handle.GetRelativeFilePath())
	require.Equal(t, "fake", b.Metadata.StorageIdentifier)
	require.Equal(t, storage.CurrentLayoutVersion, b.Metadata.Version)
	require.Equal(t, uint64(0), b.Metadata.TopicsWithMessageCount[0].MessageCount)
}

func TestLoaderSingleFileURI(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	path := filepath.Join(dir, "only.fake")
	store.add(t, path, &fakeSegment{topics: []storage.TopicMetadata{cdrTopic("imu")}})
	store.add(t, filepath.Join(dir, "other.fake"), &fakeSegment{})

	b, err := NewLoader(store, metadataio.New(""), nil, nil).Load(storage.StorageOptions{URI: path})
	require.NoError(t, err)
	defer b.Handle.Close()
	require.Equal(t, dir, b.Folder)
	require.Equal(t, []string{path}, b.FilePaths)
	require.Equal(t, []string{"only.fake"}, b.Metadata.RelativeFilePaths)
}

func TestLoaderExtensionOverride(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	store.add(t, filepath.Join(dir, "a_0.fake"), &fakeSegment{})
	store.add(t, filepath.Join(dir, "a_0.seg"), &fakeSegment{})

	b, err := NewLoader(store, nil, []string{".seg"}, nil).Load(storage.StorageOptions{URI: dir})
	require.NoError(t, err)
	defer b.Handle.Close()
	require.Equal(t, []string{"a_0.seg"}, b.Metadata.RelativeFilePaths)
}

func TestLoaderIndexWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	io := metadataio.New("")
	require.NoError(t, io.WriteMetadata(dir, storage.BagMetadata{Version: 4, StorageIdentifier: "fake"}))

	b, err := NewLoader(newFakeStore(), io, nil, nil).Load(storage.StorageOptions{URI: dir})
	require.NoError(t, err)
	require.False(t, b.UsingFallback)
	require.Nil(t, b.Handle)
	require.Empty(t, b.FilePaths)
}

func TestLoaderIndexMissingSegment(t *testing.T) {
	dir := t.TempDir()
	io := metadataio.New("")
	require.NoError(t, io.WriteMetadata(dir, storage.BagMetadata{
		Version:           4,
		StorageIdentifier: "fake",
		RelativeFilePaths: []string{"gone.fake"},
	}))

	_, err := NewLoader(newFakeStore(), io, nil, nil).Load(storage.StorageOptions{URI: dir})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoaderIndexMissingLaterSegment(t *testing.T) {
	dir := t.TempDir()
	store := newFakeStore()
	store.add(t, filepath.Join(dir, "bag_0.fake"), &fakeSegment{
		topics: []storage.TopicMetadata{cdrTopic("imu")},
		msgs:   msgs("imu", 1, 2),
	})
	io := metadataio.New("")
	require.NoError(t, io.WriteMetadata(dir, storage.BagMetadata{
		Version:           4,
		StorageIdentifier: "fake",
		RelativeFilePaths: []string{"bag_0.fake", "bag_1.fake"},
	}))

	_, err := NewLoader(store, io, nil, nil).Load(storage.StorageOptions{URI: dir})
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrCorruptSegment)
	require.ErrorContains(t, err, "bag_1.fake")
	require.Equal(t, 0, store.openCount())
}
