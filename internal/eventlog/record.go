package eventlog

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// ErrCorruptRecord reports an entry that is truncated or fails its checksum.
var ErrCorruptRecord = errors.New("eventlog: corrupt record")

// Record encoding: uvarint headerLen | header | payload | crc32c(header|payload)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func EncodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

type Decoded struct {
	Header  []byte
	Payload []byte
}

// DecodeRecord validates and splits an encoded entry. Returned slices are copies.
func DecodeRecord(b []byte) (Decoded, error) {
	if len(b) < 1+4 {
		return Decoded{}, fmt.Errorf("%w: %d bytes", ErrCorruptRecord, len(b))
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 {
		return Decoded{}, fmt.Errorf("%w: bad header length", ErrCorruptRecord)
	}
	if n+4 > len(b) || uint64(len(b)-n-4) < hlen {
		return Decoded{}, fmt.Errorf("%w: header length %d exceeds record", ErrCorruptRecord, hlen)
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != expect {
		return Decoded{}, fmt.Errorf("%w: checksum mismatch", ErrCorruptRecord)
	}
	return Decoded{Header: append([]byte(nil), header...), Payload: append([]byte(nil), payload...)}, nil
}

// encodeHeader packs the routing key and timestamp of an entry.
func encodeHeader(topic string, ts int64) []byte {
	h := make([]byte, 0, binary.MaxVarintLen64+len(topic)+8)
	h = binary.AppendUvarint(h, uint64(len(topic)))
	h = append(h, topic...)
	return binary.BigEndian.AppendUint64(h, uint64(ts))
}

func decodeHeader(h []byte) (string, int64, error) {
	tlen, n := binary.Uvarint(h)
	if n <= 0 || len(h)-n < 8 || uint64(len(h)-n-8) != tlen {
		return "", 0, fmt.Errorf("%w: malformed header", ErrCorruptRecord)
	}
	topic := string(h[n : n+int(tlen)])
	ts := int64(binary.BigEndian.Uint64(h[n+int(tlen):]))
	return topic, ts, nil
}
