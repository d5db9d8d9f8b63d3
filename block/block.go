// Package block implements a read-only handle onto the immutable, hash-indexed
// key-value block file format: a single file laid out as magic, data,
// entries, bucket, and meta segments, opened once and queried many times via
// Get. Construction of new block files is out of scope for this package; it
// only reads a layout some other writer already produced.
package block

import (
	"fmt"
	"os"
	"sync/atomic"

	logging "github.com/ipfs/go-log/v2"
	"github.com/rpcpool/kvblock/blockhash"
	"github.com/rpcpool/kvblock/codec"
	"golang.org/x/exp/mmap"
)

var log = logging.Logger("kvblock")

// keyHash computes the bucket-placement hash for key, always under seed 0,
// matching the original engine's Block::Get(key, value) convenience
// overload.
func keyHash(key []byte) uint32 {
	return blockhash.Sum(key, 0)
}

// Block is a read-only handle onto one block file. The zero value is not
// usable; obtain one with Open. A Block is safe for concurrent Get calls
// once Open has returned successfully. Open and Close must not be called
// concurrently with each other or with any in-flight Get.
type Block struct {
	path  string
	meta  *Meta
	state int32

	bucket  bucketTable
	entries []byte
	decoder entryDecoder

	data    *mmap.ReaderAt
	dataOff int64 // offset of the data segment's first byte within data's mapping
}

// Open reads and validates path's meta trailer, loads its entries and
// bucket segments into memory, and mmaps its data segment. It follows the
// original engine's InitIndex-then-InitData order: the small, frequently
// re-read index structures are read eagerly, and only the (potentially
// large) value data is left resident via mmap.
func Open(path string) (*Block, error) {
	b := &Block{path: path}
	storeState(&b.state, stateOpening)

	if err := b.open(); err != nil {
		storeState(&b.state, stateUninitialized)
		return nil, err
	}

	storeState(&b.state, stateOpen)
	log.Debugw("opened block", "path", path, "meta", b.meta.String())
	return b, nil
}

func (b *Block) open() error {
	f, err := os.Open(b.path)
	if err != nil {
		return &OpenIOError{Op: "open", Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return &OpenIOError{Op: "stat", Err: err}
	}
	fileSize := uint64(fi.Size())

	if fileSize < uint64(magicLength+metaLength) {
		return ErrTooSmall
	}

	var magicBuf [magicLength]byte
	if _, err := f.ReadAt(magicBuf[:], 0); err != nil {
		return &OpenIOError{Op: "read magic", Err: err}
	}
	if magicBuf != Magic {
		return ErrBadMagic
	}

	metaBuf := make([]byte, metaLength)
	if _, err := f.ReadAt(metaBuf, int64(fileSize)-int64(metaLength)); err != nil {
		return &OpenIOError{Op: "read meta", Err: err}
	}
	meta, err := LoadMeta(metaBuf)
	if err != nil {
		return err
	}
	if err := meta.validate(fileSize); err != nil {
		return err
	}
	b.meta = meta

	entriesOff := meta.MagicLength + meta.DataLength
	entries := make([]byte, meta.EntriesLength)
	if meta.EntriesLength > 0 {
		if _, err := f.ReadAt(entries, int64(entriesOff)); err != nil {
			return &OpenIOError{Op: "read entries", Err: err}
		}
	}
	b.entries = entries

	bucketOff := entriesOff + meta.EntriesLength
	bucketBuf := make([]byte, meta.BucketLength)
	if _, err := f.ReadAt(bucketBuf, int64(bucketOff)); err != nil {
		return &OpenIOError{Op: "read bucket", Err: err}
	}
	table := loadBucketTable(bucketBuf, meta.HashTableLength)
	if !table.valid(meta.EntriesLength) {
		return &CorruptionError{Reason: "bucket array is not a valid non-decreasing prefix-sum table"}
	}
	b.bucket = table

	b.decoder = newEntryDecoder(meta.Compress)

	data, err := mmap.Open(b.path)
	if err != nil {
		return &OpenIOError{Op: "mmap", Err: err}
	}
	if uint64(data.Len()) < meta.MagicLength+meta.DataLength {
		data.Close()
		return &CorruptionError{Reason: "mmap shorter than magic_length+data_length"}
	}
	b.data = data
	b.dataOff = int64(meta.MagicLength)

	return nil
}

// Meta returns the block's parsed trailer record.
func (b *Block) Meta() *Meta {
	return b.meta
}

// Get looks up key and returns its materialized value. It returns
// ErrNotFound if no entry matches; it returns a *CorruptionError if the
// entries, bucket, or compressed payload structure is inconsistent with
// what Meta declares; it returns ErrClosed if the block has been, or is
// being, closed.
func (b *Block) Get(key []byte) ([]byte, error) {
	switch loadState(&b.state) {
	case stateOpen:
	case stateClosed, stateClosing:
		return nil, ErrClosed
	default:
		return nil, ErrNotOpen
	}

	hash := keyHash(key)
	pos, length, empty := b.bucket.lookup(hash)
	if empty {
		return nil, ErrNotFound
	}
	if pos+length > uint64(len(b.entries)) {
		return nil, &CorruptionError{Reason: "bucket range exceeds entries segment"}
	}

	chain := b.entries[pos : pos+length]
	e, err := b.decoder.find(chain, hash, key, b.meta.MaxListLength)
	if err != nil {
		return nil, err
	}

	return b.materialize(e)
}

// materialize reads the length-prefixed raw value at e.dataOffset from the
// data segment and, depending on the block's compression mode, decompresses
// and/or extracts the sub-value addressed by e.innerOffset.
func (b *Block) materialize(e entry) ([]byte, error) {
	raw, err := b.readValueAt(e.dataOffset)
	if err != nil {
		return nil, err
	}

	switch b.meta.Compress {
	case NoCompress:
		return raw, nil

	case Snappy:
		return uncompressSnappy(raw)

	case SegmentSnappy:
		segment, err := uncompressSnappy(raw)
		if err != nil {
			return nil, err
		}
		return sliceSegmentElement(segment, e.innerOffset)

	case SegmentZlib:
		rawLen, n, ok := codec.Uvarint32(raw)
		if !ok {
			return nil, &CorruptionError{Reason: "segment zlib: bad raw-length prefix"}
		}
		segment, err := uncompressZlib(raw[n:], int(rawLen))
		if err != nil {
			return nil, err
		}
		return sliceSegmentElement(segment, e.innerOffset)

	default:
		return nil, &CorruptionError{Reason: fmt.Sprintf("unknown compression mode %d", b.meta.Compress)}
	}
}

// sliceSegmentElement extracts the length-prefixed element at innerOffset
// within a decompressed segment envelope.
func sliceSegmentElement(segment []byte, innerOffset uint32) ([]byte, error) {
	if uint64(innerOffset) > uint64(len(segment)) {
		return nil, &CorruptionError{Reason: "inner_offset past end of decompressed segment"}
	}
	rest := segment[innerOffset:]
	v, ok := codec.GetLengthPrefixedSlice(&rest)
	if !ok {
		return nil, &CorruptionError{Reason: "failed to read length-prefixed element at inner_offset"}
	}
	return v, nil
}

// maxVarint32Width bounds how many header bytes readValueAt needs to probe
// before it knows a value's true length: a varint32 is at most 5 bytes.
const maxVarint32Width = 5

// readValueAt reads the length-prefixed raw value stored at offset off
// within the data segment (i.e. relative to the first byte after magic).
// It probes a small header window to decode the length prefix, then reads
// exactly the value's bytes, rather than copying the whole remaining
// segment tail on every lookup.
func (b *Block) readValueAt(off uint64) ([]byte, error) {
	if off > b.meta.DataLength {
		return nil, &CorruptionError{Reason: "data_offset past end of data segment"}
	}
	remaining := b.meta.DataLength - off

	headerLen := uint64(maxVarint32Width)
	if headerLen > remaining {
		headerLen = remaining
	}
	header := make([]byte, headerLen)
	if _, err := b.data.ReadAt(header, b.dataOff+int64(off)); err != nil {
		return nil, &OpenIOError{Op: "mmap read", Err: err}
	}
	length, n, ok := codec.Uvarint32(header)
	if !ok {
		return nil, &CorruptionError{Reason: "failed to read length prefix at data_offset"}
	}
	if uint64(n)+uint64(length) > remaining {
		return nil, &CorruptionError{Reason: "length-prefixed value runs past end of data segment"}
	}

	buf := make([]byte, uint64(n)+uint64(length))
	if _, err := b.data.ReadAt(buf, b.dataOff+int64(off)); err != nil {
		return nil, &OpenIOError{Op: "mmap read", Err: err}
	}
	return buf[n:], nil
}

// Keys invokes yield with the raw key bytes of every entry in the entries
// segment, in on-disk bucket order, stopping early if yield returns false.
// It is a direct translation of the original engine's debug-only
// printKeys walk, without the console-printing side effect.
func (b *Block) Keys(yield func(key []byte) bool) {
	if loadState(&b.state) != stateOpen {
		return
	}
	if err := b.decoder.walk(b.entries, yield); err != nil {
		log.Warnw("corruption while walking keys", "path", b.path, "err", err)
	}
}

// Close releases the block's resources: the mmap'd data segment is
// unmapped and in-memory index structures are dropped. Close is not safe
// to call concurrently with Get; callers must ensure all Gets have
// returned first. A concurrent Get that observes the state transition
// instead returns ErrClosed rather than reading through a freed mapping.
func (b *Block) Close() error {
	if !atomic.CompareAndSwapInt32(&b.state, int32(stateOpen), int32(stateClosing)) {
		return ErrClosed
	}
	var err error
	if b.data != nil {
		err = b.data.Close()
	}
	b.entries = nil
	b.bucket = bucketTable{}
	storeState(&b.state, stateClosed)
	return err
}

func (b *Block) String() string {
	if b.meta == nil {
		return fmt.Sprintf("block{path=%s state=%s}", b.path, loadState(&b.state))
	}
	return fmt.Sprintf("block{path=%s state=%s %s}", b.path, loadState(&b.state), b.meta)
}
