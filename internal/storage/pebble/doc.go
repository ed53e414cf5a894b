// Package pebblestore wraps a Pebble database for use as a bag segment.
//
// A segment is written once through batches and later reopened read-only
// for scanning; read-only handles reject writes with ErrReadOnly.
//
//	db, err := pebblestore.Open(pebblestore.Options{DataDir: "bag/bag_0.pebble"})
//	if err != nil { /* handle */ }
//	b := db.NewBatch()
//	_ = b.Set(key, value, nil)
//	err = db.CommitBatch(ctx, b)
//	b.Close()
//	db.Close()
//
//	seg, err := pebblestore.Open(pebblestore.Options{DataDir: "bag/bag_0.pebble", ReadOnly: true})
package pebblestore
