package storage

import (
	"math"
	"time"
)

// CurrentLayoutVersion is the on-disk layout written by this module. Layouts
// below 4 prefix relative segment paths with the bag folder name.
const CurrentLayoutVersion = 4

var (
	// SentinelStart stands for "unbounded future": the starting time before any record is seen.
	SentinelStart = time.Unix(0, math.MaxInt64).UTC()
	// SentinelEnd stands for "unbounded past": the ending time before any record is seen.
	SentinelEnd = time.Unix(0, math.MinInt64).UTC()
)

// StorageOptions locates a bag and optionally pins the backend.
type StorageOptions struct {
	URI       string
	StorageID string
}

// TopicMetadata describes one logical record stream.
type TopicMetadata struct {
	Name                string `json:"name" yaml:"name"`
	Type                string `json:"type" yaml:"type"`
	SerializationFormat string `json:"serialization_format" yaml:"serialization_format"`
	OfferedQoSProfiles  string `json:"offered_qos_profiles" yaml:"offered_qos_profiles"`
}

// TopicInformation pairs a topic with the number of records observed for it.
type TopicInformation struct {
	TopicMetadata TopicMetadata
	MessageCount  uint64
}

// BagMetadata is the catalog of a bag: its segments, topics and time span.
type BagMetadata struct {
	Version                int
	StorageIdentifier      string
	RelativeFilePaths      []string
	StartingTime           time.Time
	Duration               time.Duration
	MessageCount           uint64
	TopicsWithMessageCount []TopicInformation
}

// Empty reports whether the catalog describes a recording with no records,
// in which case StartingTime and Duration carry no meaning.
func (m BagMetadata) Empty() bool {
	return m.MessageCount == 0
}

// EndingTime returns the timestamp of the latest record.
func (m BagMetadata) EndingTime() time.Time {
	if m.Empty() {
		return SentinelEnd
	}
	return m.StartingTime.Add(m.Duration)
}

// Topic looks up a topic by name.
func (m BagMetadata) Topic(name string) (TopicInformation, bool) {
	for _, ti := range m.TopicsWithMessageCount {
		if ti.TopicMetadata.Name == name {
			return ti, true
		}
	}
	return TopicInformation{}, false
}

// Topics returns the topic metadata in catalog order.
func (m BagMetadata) Topics() []TopicMetadata {
	out := make([]TopicMetadata, 0, len(m.TopicsWithMessageCount))
	for _, ti := range m.TopicsWithMessageCount {
		out = append(out, ti.TopicMetadata)
	}
	return out
}

// SerializedMessage is one opaque record as returned by a backend.
type SerializedMessage struct {
	TopicName string
	// TimeStamp is nanoseconds since the Unix epoch.
	TimeStamp int64
	Data      []byte
}
