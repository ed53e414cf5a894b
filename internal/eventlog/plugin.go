package eventlog

import "github.com/pjreed/rosbag2/internal/storage"

const (
	// Identifier selects this backend in StorageOptions.StorageID.
	Identifier = "pebble"
	// Extension is the suffix of segment directories.
	Extension = ".pebble"
)

// Plugin registers the pebble backend with a storage.Factory.
type Plugin struct{}

func (Plugin) Identifier() string { return Identifier }
func (Plugin) Extension() string  { return Extension }

func (Plugin) OpenReadOnly(path string) (storage.ReadOnly, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}
