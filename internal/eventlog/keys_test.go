package eventlog

import (
	"bytes"
	"testing"
)

func TestEntryKeysSortBySeq(t *testing.T) {
	k1 := KeyEntry(1)
	k2 := KeyEntry(2)
	k256 := KeyEntry(256)
	if !(bytes.Compare(k1, k2) < 0 && bytes.Compare(k2, k256) < 0) {
		t.Fatalf("entry keys not ordered by sequence")
	}
	seq, ok := seqFromEntryKey(k256)
	if !ok || seq != 256 {
		t.Fatalf("seq round trip: %d %v", seq, ok)
	}
	if _, ok := seqFromEntryKey(KeyTopic("imu")); ok {
		t.Fatalf("topic key parsed as entry")
	}
}

func TestPrefixUpperBound(t *testing.T) {
	ub := prefixUpperBound(entryPrefix)
	if !bytes.Equal(ub, []byte("e0")) {
		t.Fatalf("upper bound %q", ub)
	}
	if bytes.Compare(KeyEntry(^uint64(0)), ub) >= 0 {
		t.Fatalf("max entry key not below bound")
	}
	if bytes.Compare(KeyTopic("zzz"), prefixUpperBound(topicPrefix)) >= 0 {
		t.Fatalf("topic key not below bound")
	}
}
