package eventlog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - m
// - t/{topic}
// - e/{seq_be8}

var (
	metaKey     = []byte("m")
	topicPrefix = []byte("t/")
	entryPrefix = []byte("e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMeta is the segment metadata key holding the last assigned sequence.
func KeyMeta() []byte { return append([]byte(nil), metaKey...) }

// KeyTopic builds the topic metadata key.
func KeyTopic(topic string) []byte {
	k := make([]byte, 0, len(topicPrefix)+len(topic))
	k = append(k, topicPrefix...)
	k = append(k, topic...)
	return k
}

// KeyEntry builds the entry key with a big-endian sequence for proper ordering.
func KeyEntry(seq uint64) []byte {
	k := make([]byte, 0, len(entryPrefix)+8)
	k = append(k, entryPrefix...)
	k = appendBE8(k, seq)
	return k
}

// seqFromEntryKey extracts the sequence from an entry key.
func seqFromEntryKey(k []byte) (uint64, bool) {
	if len(k) != len(entryPrefix)+8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(k[len(entryPrefix):]), true
}

// prefixUpperBound returns the smallest key greater than every key with prefix p.
func prefixUpperBound(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
