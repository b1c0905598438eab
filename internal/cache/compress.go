package cache

import (
	"encoding/binary"
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/pierrec/lz4/v4"
)

// Stored payloads start with a one-byte codec tag and the little-endian
// uint32 length of the uncompressed data.
const (
	codecRaw byte = iota
	codecLZ4

	headerSize = 5
)

var errShortPayload = errors.New("payload shorter than header")

func compress(raw []byte) ([]byte, error) {
	n := len(raw)
	size, err := safecast.Conv[uint32](n)
	if err != nil {
		return nil, fmt.Errorf("payload too large: %w", err)
	}
	out := make([]byte, headerSize+lz4.CompressBlockBound(n))
	binary.LittleEndian.PutUint32(out[1:headerSize], size)
	written, err := lz4.CompressBlock(raw, out[headerSize:], nil)
	if err != nil {
		return nil, err
	}
	// incompressible input yields 0
	if written == 0 || written >= n {
		out[0] = codecRaw
		return append(out[:headerSize], raw...), nil
	}
	out[0] = codecLZ4
	return out[:headerSize+written], nil
}

func decompress(payload []byte) ([]byte, error) {
	if len(payload) < headerSize {
		return nil, errShortPayload
	}
	size := binary.LittleEndian.Uint32(payload[1:headerSize])
	body := payload[headerSize:]
	switch payload[0] {
	case codecRaw:
		if len(body) != int(size) {
			return nil, fmt.Errorf("raw payload is %d bytes, header says %d", len(body), size)
		}
		return body, nil
	case codecLZ4:
		raw := make([]byte, size)
		n, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return nil, err
		}
		if n != int(size) {
			return nil, fmt.Errorf("decompressed %d bytes, header says %d", n, size)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown codec %d", payload[0])
	}
}
