package block

import "github.com/rpcpool/kvblock/codec"

// bucketTable is the in-memory hash table loaded from a block's bucket
// segment: hash_table_length+1 cumulative fixed64 offsets into the entries
// segment, non-decreasing, with table[0] == 0 and table[len-1] ==
// len(entries). Translated from original_source/block.h's Block::Bucket.
type bucketTable struct {
	offsets []uint64
}

// loadBucketTable decodes buf (exactly (hashTableLength+1)*8 bytes) into a
// bucketTable. It does not validate monotonicity; that is the caller's
// corruption check to make once, at Open time, not on every lookup.
func loadBucketTable(buf []byte, hashTableLength uint64) bucketTable {
	offsets := make([]uint64, hashTableLength+1)
	for i := range offsets {
		offsets[i] = codec.Fixed64(buf[i*8:])
	}
	return bucketTable{offsets: offsets}
}

// lookup resolves hash to the [pos, pos+length) byte range of the entries
// segment holding that bucket's collision chain. empty is true when the
// bucket holds no entries at all.
func (b bucketTable) lookup(hash uint32) (pos, length uint64, empty bool) {
	hashTableLength := uint64(len(b.offsets) - 1)
	i := uint64(hash) & (hashTableLength - 1)
	pos = b.offsets[i]
	length = b.offsets[i+1] - pos
	return pos, length, length == 0
}

// valid reports whether the table is a well-formed prefix-sum array:
// non-decreasing, starting at 0.
func (b bucketTable) valid(entriesLength uint64) bool {
	if len(b.offsets) == 0 {
		return false
	}
	if b.offsets[0] != 0 {
		return false
	}
	for i := 1; i < len(b.offsets); i++ {
		if b.offsets[i] < b.offsets[i-1] {
			return false
		}
	}
	return b.offsets[len(b.offsets)-1] == entriesLength
}
