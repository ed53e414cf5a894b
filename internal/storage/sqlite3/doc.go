// Package sqlite3 implements the "sqlite3" segment backend. Each segment is a
// .db3 file with the rosbag2 schema:
//
//	topics(id, name, type, serialization_format, offered_qos_profiles)
//	messages(id, topic_id, timestamp, data)
//
// Records are read in messages.id order, which is append order.
package sqlite3
