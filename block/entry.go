package block

import "github.com/rpcpool/kvblock/codec"

// entry is one decoded record from a bucket's collision chain: the full
// 32-bit hash of its key (for a cheap pre-comparison before the byte-wise
// key match), the offset of its value in the data segment, an inner offset
// used only under a segmented compression mode, and a view of its raw key
// bytes into the entries segment's backing array.
type entry struct {
	hash        uint32
	dataOffset  uint64
	innerOffset uint32
	key         []byte
}

// entryDecoder decodes entry records from a bucket's collision chain. It is
// built once, at Open time, from the block's compression mode, so the hot
// scan loop never re-derives whether inner_offset is present per entry.
type entryDecoder struct {
	segmented bool
}

func newEntryDecoder(compress CompressionMode) entryDecoder {
	return entryDecoder{segmented: compress.IsSegmented()}
}

// decode reads one entry from the head of *buf, advancing *buf past it.
// ok is false on any truncation; the caller must treat that as corruption,
// not as an ordinary miss.
func (d entryDecoder) decode(buf *[]byte) (e entry, ok bool) {
	hash, ok := codec.GetFixed32(buf)
	if !ok {
		return entry{}, false
	}
	dataOffset, ok := codec.GetUvarint64(buf)
	if !ok {
		return entry{}, false
	}
	var innerOffset uint32
	if d.segmented {
		innerOffset, ok = codec.GetUvarint32(buf)
		if !ok {
			return entry{}, false
		}
	}
	keyLength, ok := codec.GetFixed8(buf)
	if !ok {
		return entry{}, false
	}
	if uint64(len(*buf)) < uint64(keyLength) {
		return entry{}, false
	}
	key := (*buf)[:keyLength]
	*buf = (*buf)[keyLength:]
	return entry{
		hash:        hash,
		dataOffset:  dataOffset,
		innerOffset: innerOffset,
		key:         key,
	}, true
}

// find scans the collision chain in chain (exactly the bytes of one
// bucket's entries range) for a record whose hash and key both match.
// maxChainLength enforces spec's chain-length cap unconditionally: a chain
// that runs longer than the block declares is corruption, not a slow path,
// regardless of build mode.
func (d entryDecoder) find(chain []byte, hash uint32, key []byte, maxChainLength uint32) (entry, error) {
	var count uint32
	for len(chain) > 0 {
		count++
		if count > maxChainLength {
			return entry{}, &CorruptionError{Reason: "collision chain exceeds max_list_length"}
		}
		e, ok := d.decode(&chain)
		if !ok {
			return entry{}, &CorruptionError{Reason: "failed to decode entry record"}
		}
		if e.hash == hash && string(e.key) == string(key) {
			return e, nil
		}
	}
	return entry{}, ErrNotFound
}

// walk invokes fn with the raw key bytes of every entry in the entries
// segment, in on-disk order, stopping early if fn returns false. It powers
// Block.Keys and does not participate in Get's hot path.
func (d entryDecoder) walk(entries []byte, fn func(key []byte) bool) error {
	for len(entries) > 0 {
		e, ok := d.decode(&entries)
		if !ok {
			return &CorruptionError{Reason: "failed to decode entry record while walking keys"}
		}
		if !fn(e.key) {
			return nil
		}
	}
	return nil
}
