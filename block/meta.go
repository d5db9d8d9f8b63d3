package block

import (
	"fmt"
	"math/bits"

	"github.com/dustin/go-humanize"
	"github.com/rpcpool/kvblock/codec"
)

// CompressionMode selects how values in the data segment are materialized.
type CompressionMode uint8

const (
	// NoCompress stores values verbatim.
	NoCompress CompressionMode = 0
	// Snappy stores each value independently, whole-block snappy compressed.
	Snappy CompressionMode = 1
	// SegmentSnappy stores many values concatenated into a single
	// snappy-compressed envelope, addressed by an inner offset.
	SegmentSnappy CompressionMode = 2
	// SegmentZlib is like SegmentSnappy but the envelope is zlib compressed
	// and prefixed with its own decompressed length.
	SegmentZlib CompressionMode = 3
)

// IsSegmented reports whether a mode packs multiple values into a shared,
// decompressed envelope addressed by entry.innerOffset. This predicate
// exists so callers never compare CompressionMode ordinals directly (the
// original implementation used "compress > Snappy", which silently breaks
// if a new mode is ever inserted between Snappy and SegmentSnappy).
func (m CompressionMode) IsSegmented() bool {
	return m == SegmentSnappy || m == SegmentZlib
}

func (m CompressionMode) String() string {
	switch m {
	case NoCompress:
		return "none"
	case Snappy:
		return "snappy"
	case SegmentSnappy:
		return "segment-snappy"
	case SegmentZlib:
		return "segment-zlib"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// magicLength is the fixed size, in bytes, of the magic header.
const magicLength = 4

// Magic is the constant that must appear at offset 0 of every block file
// produced and consumed by this package.
var Magic = [magicLength]byte{'k', 'v', 'b', '1'}

// metaLength is the fixed on-disk size of Meta, in bytes: five uint64
// segment-size fields, one uint64 hash table length, one uint32 max list
// length, one byte compression mode, and the 4-byte magic echoed at the
// tail for a cheap double-check.
const metaLength = 5*8 + 8 + 4 + 1 + magicLength

// Meta is the fixed trailer record at the end of every block file. All
// fields are little-endian. Field order and widths are part of the wire
// format; the byte layout is the field order below, as written by Bytes and
// read by LoadMeta.
type Meta struct {
	MagicLength     uint64
	DataLength      uint64
	EntriesLength   uint64
	BucketLength    uint64
	MetaLength      uint64
	HashTableLength uint64
	MaxListLength   uint32
	Compress        CompressionMode
	Magic           [magicLength]byte
}

// Bytes serializes m to its fixed-width wire representation.
func (m *Meta) Bytes() []byte {
	buf := make([]byte, 0, metaLength)
	var scratch [8]byte
	putFixed64 := func(v uint64) {
		codec.PutFixed64(scratch[:8], v)
		buf = append(buf, scratch[:8]...)
	}
	putFixed64(m.MagicLength)
	putFixed64(m.DataLength)
	putFixed64(m.EntriesLength)
	putFixed64(m.BucketLength)
	putFixed64(m.MetaLength)
	putFixed64(m.HashTableLength)
	codec.PutFixed32(scratch[:4], m.MaxListLength)
	buf = append(buf, scratch[:4]...)
	buf = append(buf, byte(m.Compress))
	buf = append(buf, m.Magic[:]...)
	return buf
}

// LoadMeta deserializes a Meta from its fixed-width wire representation.
// buf must be exactly metaLength bytes; a shorter slice is always a
// programmer/open-path error (the caller is responsible for reading
// exactly the trailer region) rather than a recoverable decode failure.
func LoadMeta(buf []byte) (*Meta, error) {
	if len(buf) != metaLength {
		return nil, fmt.Errorf("block: meta record must be %d bytes, got %d", metaLength, len(buf))
	}
	m := &Meta{}
	m.MagicLength, _ = codec.GetFixed64(&buf)
	m.DataLength, _ = codec.GetFixed64(&buf)
	m.EntriesLength, _ = codec.GetFixed64(&buf)
	m.BucketLength, _ = codec.GetFixed64(&buf)
	m.MetaLength, _ = codec.GetFixed64(&buf)
	m.HashTableLength, _ = codec.GetFixed64(&buf)
	maxList, _ := codec.GetFixed32(&buf)
	m.MaxListLength = maxList
	compress, _ := codec.GetFixed8(&buf)
	m.Compress = CompressionMode(compress)
	copy(m.Magic[:], buf[:magicLength])
	return m, nil
}

// validate checks the structural invariants spec.md §3/§4.5 require before
// a Meta can be trusted to size the entries/bucket reads that follow.
func (m *Meta) validate(fileSize uint64) error {
	if m.Magic != Magic {
		return ErrBadMagic
	}
	expect := m.MagicLength + m.DataLength + m.EntriesLength + m.BucketLength + m.MetaLength
	if expect != fileSize {
		return &CorruptionError{Reason: fmt.Sprintf("meta declares total size %d, file is %d", expect, fileSize)}
	}
	if m.HashTableLength == 0 || m.HashTableLength&(m.HashTableLength-1) != 0 {
		return &CorruptionError{Reason: fmt.Sprintf("hash_table_length %d is not a power of two", m.HashTableLength)}
	}
	if m.BucketLength != (m.HashTableLength+1)*8 {
		return &CorruptionError{Reason: fmt.Sprintf("bucket_length %d does not match (hash_table_length+1)*8=%d", m.BucketLength, (m.HashTableLength+1)*8)}
	}
	if m.MaxListLength == 0 {
		return &CorruptionError{Reason: "max_list_length must be nonzero"}
	}
	switch m.Compress {
	case NoCompress, Snappy, SegmentSnappy, SegmentZlib:
	default:
		return &CorruptionError{Reason: fmt.Sprintf("unknown compression mode %d", m.Compress)}
	}
	return nil
}

// bucketCountBits returns log2(HashTableLength), used only for diagnostics.
func (m *Meta) bucketCountBits() int {
	return bits.Len64(m.HashTableLength) - 1
}

func (m *Meta) String() string {
	return fmt.Sprintf(
		"block meta{compress=%s buckets=%d (2^%d) data=%s entries=%s bucket=%s max_list=%d}",
		m.Compress, m.HashTableLength, m.bucketCountBits(),
		humanize.Bytes(m.DataLength), humanize.Bytes(m.EntriesLength),
		humanize.Bytes(m.BucketLength), m.MaxListLength,
	)
}
