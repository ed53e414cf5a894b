package sqlite3

import "github.com/pjreed/rosbag2/internal/storage"

// Plugin registers the sqlite3 backend with a storage.Factory.
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
