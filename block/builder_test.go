package block

import (
	"bytes"
	"compress/zlib"
	"os"

	"github.com/golang/snappy"
	"github.com/rpcpool/kvblock/blockhash"
	"github.com/rpcpool/kvblock/codec"
)

// testBuilder assembles a valid block byte layout directly from raw
// key/value pairs, exercising the same codec and blockhash primitives the
// engine reads back with. It exists purely so block_test.go can build
// fixtures without shelling out to a separate writer; constructing new
// block files is not part of the package's public surface.
type testBuilder struct {
	hashTableLength uint64
	maxListLength   uint32
	compress        CompressionMode
}

type testKV struct {
	key   []byte
	value []byte
}

func newTestBuilder(hashTableLength uint64, compress CompressionMode) *testBuilder {
	return &testBuilder{
		hashTableLength: hashTableLength,
		maxListLength:   1 << 20,
		compress:        compress,
	}
}

// build writes a complete block file to path for the given key/value pairs.
// For NoCompress and Snappy each value is stored independently. For the
// segmented modes, all values are concatenated (length-prefixed) into one
// envelope and compressed once, and every entry's inner_offset points into
// that shared envelope.
func (tb *testBuilder) build(path string, kvs []testKV) error {
	var data []byte // values segment, each entry either NoCompress/Snappy-wrapped
	var entries []byte
	type placed struct {
		hash        uint32
		dataOffset  uint64
		innerOffset uint32
		key         []byte
	}
	var placements []placed

	if tb.compress.IsSegmented() {
		var envelope []byte
		innerOffsets := make([]uint32, len(kvs))
		for i, kv := range kvs {
			innerOffsets[i] = uint32(len(envelope))
			envelope = codec.PutLengthPrefixed(envelope, kv.value)
		}
		var frame []byte
		switch tb.compress {
		case SegmentSnappy:
			frame = snappy.Encode(nil, envelope)
		case SegmentZlib:
			var buf bytes.Buffer
			w := zlib.NewWriter(&buf)
			if _, err := w.Write(envelope); err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			var lenPrefix [5]byte
			n := codec.PutUvarint32(lenPrefix[:], uint32(len(envelope)))
			frame = append(append([]byte{}, lenPrefix[:n]...), buf.Bytes()...)
		}
		dataOffset := uint64(len(data))
		data = codec.PutLengthPrefixed(data, frame)
		for i, kv := range kvs {
			placements = append(placements, placed{
				hash:        blockhash.Sum(kv.key, 0),
				dataOffset:  dataOffset,
				innerOffset: innerOffsets[i],
				key:         kv.key,
			})
		}
	} else {
		for _, kv := range kvs {
			raw := kv.value
			if tb.compress == Snappy {
				raw = snappy.Encode(nil, kv.value)
			}
			dataOffset := uint64(len(data))
			data = codec.PutLengthPrefixed(data, raw)
			placements = append(placements, placed{
				hash:       blockhash.Sum(kv.key, 0),
				dataOffset: dataOffset,
				key:        kv.key,
			})
		}
	}

	buckets := make([][]placed, tb.hashTableLength)
	for _, p := range placements {
		i := p.hash & (uint32(tb.hashTableLength) - 1)
		buckets[i] = append(buckets[i], p)
	}

	offsets := make([]uint64, tb.hashTableLength+1)
	for i, bucket := range buckets {
		offsets[i] = uint64(len(entries))
		for _, p := range bucket {
			var hdr [4]byte
			codec.PutFixed32(hdr[:], p.hash)
			entries = append(entries, hdr[:]...)

			var vbuf [10]byte
			n := codec.PutUvarint64(vbuf[:], p.dataOffset)
			entries = append(entries, vbuf[:n]...)

			if tb.compress.IsSegmented() {
				var ibuf [5]byte
				n := codec.PutUvarint32(ibuf[:], p.innerOffset)
				entries = append(entries, ibuf[:n]...)
			}

			entries = append(entries, byte(len(p.key)))
			entries = append(entries, p.key...)
		}
	}
	offsets[tb.hashTableLength] = uint64(len(entries))

	var bucketBuf []byte
	for _, off := range offsets {
		var b [8]byte
		codec.PutFixed64(b[:], off)
		bucketBuf = append(bucketBuf, b[:]...)
	}

	meta := &Meta{
		MagicLength:     magicLength,
		DataLength:      uint64(len(data)),
		EntriesLength:   uint64(len(entries)),
		BucketLength:    uint64(len(bucketBuf)),
		MetaLength:      metaLength,
		HashTableLength: tb.hashTableLength,
		MaxListLength:   tb.maxListLength,
		Compress:        tb.compress,
	}
	meta.Magic = Magic

	var out []byte
	out = append(out, Magic[:]...)
	out = append(out, data...)
	out = append(out, entries...)
	out = append(out, bucketBuf...)
	out = append(out, meta.Bytes()...)

	return os.WriteFile(path, out, 0o644)
}
