// Package eventlog implements the "pebble" segment backend: every segment of a
// bag is a Pebble directory (bag_N.pebble) holding an append-only record log
// and the table of topics written to it.
//
// # Keyspace
//
// Keys are lexicographically ordered so a forward scan of the entry range
// yields records in append order:
//   - m              (segment metadata: lastSeq)
//   - t/{topic}      (topic metadata, JSON)
//   - e/{seq_be8}    (entries)
//
// Entry values are: uvarint headerLen | header | payload | crc32c(header|payload),
// with header = uvarint topicLen | topic | timestamp_be8 (ns since epoch).
//
// # Usage
//
//	w, _ := eventlog.Create("/data/bag/bag_0.pebble")
//	_ = w.CreateTopic(storage.TopicMetadata{Name: "imu", Type: "sensor_msgs/Imu", SerializationFormat: "cdr"})
//	_, _ = w.Append(ctx, []storage.SerializedMessage{{TopicName: "imu", TimeStamp: 10, Data: p}})
//	_ = w.Close()
//
//	r, _ := eventlog.Open("/data/bag/bag_0.pebble")
//	defer r.Close()
//	for r.Next() {
//	    _ = r.Message()
//	}
//	// a truncated or checksum-failing entry stops the scan with ErrCorruptRecord
//	_ = r.Err()
package eventlog
