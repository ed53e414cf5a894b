package reindexrun

import (
	"fmt"
	"io"
	"strings"
	"time"

	cfgpkg "github.com/pjreed/rosbag2/internal/config"
	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/pjreed/rosbag2/internal/storage/metadataio"
)

// Info reads the existing index of the bag at uri.
func Info(uri string, cfg cfgpkg.Config) (storage.BagMetadata, error) {
	return metadataio.New(cfg.MetadataFileName).ReadMetadata(uri)
}

const infoLabelWidth = 19

// WriteInfo prints md in the layout of `ros2 bag info`.
func WriteInfo(w io.Writer, md storage.BagMetadata) error {
	var b strings.Builder
	row := func(label, value string) {
		fmt.Fprintf(&b, "%-*s%s\n", infoLabelWidth, label, value)
	}

	if len(md.RelativeFilePaths) == 0 {
		row("Files:", "")
	}
	for i, p := range md.RelativeFilePaths {
		label := ""
		if i == 0 {
			label = "Files:"
		}
		row(label, p)
	}
	row("Storage id:", md.StorageIdentifier)
	if md.Empty() {
		row("Duration:", "0s")
		row("Start:", "n/a (empty recording)")
		row("End:", "n/a (empty recording)")
	} else {
		row("Duration:", fmt.Sprintf("%.9fs", md.Duration.Seconds()))
		row("Start:", formatTime(md.StartingTime))
		row("End:", formatTime(md.EndingTime()))
	}
	row("Messages:", fmt.Sprintf("%d", md.MessageCount))

	if len(md.TopicsWithMessageCount) == 0 {
		row("Topic information:", "")
	}
	for i, ti := range md.TopicsWithMessageCount {
		label := ""
		if i == 0 {
			label = "Topic information:"
		}
		row(label, fmt.Sprintf("Topic: %s | Type: %s | Count: %d | Serialization Format: %s",
			ti.TopicMetadata.Name, ti.TopicMetadata.Type, ti.MessageCount, ti.TopicMetadata.SerializationFormat))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func formatTime(t time.Time) string {
	return fmt.Sprintf("%s (%d)", t.UTC().Format("Jan 02 2006 15:04:05.000000000"), t.UnixNano())
}
