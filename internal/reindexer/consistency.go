package reindexer

import (
	"fmt"

	"github.com/pjreed/rosbag2/internal/storage"
)

// FormatSupporter reports whether a (source, target) conversion is available.
// converter.Factory implements it.
type FormatSupporter interface {
	Supports(src, dst string) bool
}

// CheckConsistency verifies that all topics share one serialization format
// and that outputFormat, when set, can be produced from it. It returns the
// store-wide format, or "" when there are no topics.
func CheckConsistency(topics []storage.TopicMetadata, outputFormat string, converters FormatSupporter) (string, error) {
	if len(topics) == 0 {
		return "", nil
	}
	format := topics[0].SerializationFormat
	for _, tm := range topics[1:] {
		if tm.SerializationFormat != format {
			return "", &FormatError{Topic: tm.Name, Format: tm.SerializationFormat, Expected: format}
		}
	}
	if outputFormat == "" || outputFormat == format {
		return format, nil
	}
	if converters == nil || !converters.Supports(format, outputFormat) {
		return format, fmt.Errorf("%w: %s -> %s", ErrUnsupportedConversion, format, outputFormat)
	}
	return format, nil
}
