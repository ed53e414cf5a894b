// Package storage holds the bag data model shared by every component and the
// read-only capability set a segment backend must implement.
//
// A bag is a directory of segment files plus an optional index
// (metadata.yaml). Backends are plugins selected by identifier:
//
//	f := storage.NewFactory()
//	f.Register(sqlite3.Plugin{})
//	f.Register(eventlog.Plugin{})
//
//	// empty id probes registered plugins; non-empty pins one
//	ro, err := f.OpenReadOnly("/data/bag/bag_0.db3", "")
//	if err != nil { /* handle */ }
//	defer ro.Close()
//	for ro.Next() {
//	    msg := ro.Message()
//	    _ = msg.TopicName
//	}
//	if err := ro.Err(); err != nil { /* truncated or unreadable */ }
package storage
