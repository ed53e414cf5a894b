package reindexer

import (
	"testing"

	"github.com/pjreed/rosbag2/internal/converter"
	"github.com/pjreed/rosbag2/internal/storage"
	"github.com/stretchr/testify/require"
)

func TestCheckConsistency(t *testing.T) {
	conv := converter.NewFactory()
	js := func(name string) storage.TopicMetadata {
		return storage.TopicMetadata{Name: name, SerializationFormat: "json"}
	}
	tests := []struct {
		name    string
		topics  []storage.TopicMetadata
		output  string
		format  string
		wantErr error
	}{
		{name: "no topics", output: "yaml"},
		{name: "single format", topics: []storage.TopicMetadata{cdrTopic("a"), cdrTopic("b")}, format: "cdr"},
		{name: "same output", topics: []storage.TopicMetadata{cdrTopic("a")}, output: "cdr", format: "cdr"},
		{name: "supported conversion", topics: []storage.TopicMetadata{js("a")}, output: "yaml", format: "json"},
		{name: "unsupported conversion", topics: []storage.TopicMetadata{cdrTopic("a")}, output: "yaml", format: "cdr", wantErr: ErrUnsupportedConversion},
		{name: "mixed formats", topics: []storage.TopicMetadata{cdrTopic("a"), js("b")}, wantErr: ErrInconsistentFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			format, err := CheckConsistency(tc.topics, tc.output, conv)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.format, format)
		})
	}
}

func TestCheckConsistencyWithoutConverters(t *testing.T) {
	_, err := CheckConsistency([]storage.TopicMetadata{cdrTopic("a")}, "json", nil)
	require.ErrorIs(t, err, ErrUnsupportedConversion)
}
