package block

import (
	"testing"

	"github.com/rpcpool/kvblock/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeEntry(hash uint32, dataOffset uint64, innerOffset uint32, key []byte, segmented bool) []byte {
	var buf []byte
	var hdr [4]byte
	codec.PutFixed32(hdr[:], hash)
	buf = append(buf, hdr[:]...)

	var vbuf [10]byte
	n := codec.PutUvarint64(vbuf[:], dataOffset)
	buf = append(buf, vbuf[:n]...)

	if segmented {
		var ibuf [5]byte
		n := codec.PutUvarint32(ibuf[:], innerOffset)
		buf = append(buf, ibuf[:n]...)
	}

	buf = append(buf, byte(len(key)))
	buf = append(buf, key...)
	return buf
}

func TestEntryDecoderRoundTripNonSegmented(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	buf := encodeEntry(0xDEADBEEF, 123, 0, []byte("hello"), false)

	e, ok := d.decode(&buf)
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), e.hash)
	assert.Equal(t, uint64(123), e.dataOffset)
	assert.Equal(t, "hello", string(e.key))
	assert.Empty(t, buf)
}

func TestEntryDecoderRoundTripSegmented(t *testing.T) {
	d := newEntryDecoder(SegmentZlib)
	buf := encodeEntry(7, 9, 42, []byte("k"), true)

	e, ok := d.decode(&buf)
	require.True(t, ok)
	assert.Equal(t, uint32(42), e.innerOffset)
	assert.Empty(t, buf)
}

func TestEntryDecoderTruncatedFails(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	buf := encodeEntry(1, 2, 0, []byte("key"), false)
	buf = buf[:len(buf)-1]
	_, ok := d.decode(&buf)
	assert.False(t, ok)
}

func TestEntryDecoderFindMatchesHashAndKey(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	var chain []byte
	chain = append(chain, encodeEntry(1, 100, 0, []byte("a"), false)...)
	chain = append(chain, encodeEntry(1, 200, 0, []byte("b"), false)...)
	chain = append(chain, encodeEntry(2, 300, 0, []byte("c"), false)...)

	e, err := d.find(chain, 1, []byte("b"), 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), e.dataOffset)
}

func TestEntryDecoderFindNotFound(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	chain := encodeEntry(1, 100, 0, []byte("a"), false)
	_, err := d.find(chain, 1, []byte("zzz"), 10)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEntryDecoderFindEnforcesChainCap(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	var chain []byte
	for i := 0; i < 5; i++ {
		chain = append(chain, encodeEntry(uint32(i), uint64(i), 0, []byte("x"), false)...)
	}
	_, err := d.find(chain, 999, []byte("nope"), 3)
	require.Error(t, err)
	var ce *CorruptionError
	assert.ErrorAs(t, err, &ce)
}

func TestEntryDecoderWalkVisitsAllKeysInOrder(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	var entries []byte
	entries = append(entries, encodeEntry(1, 0, 0, []byte("first"), false)...)
	entries = append(entries, encodeEntry(2, 0, 0, []byte("second"), false)...)

	var got []string
	err := d.walk(entries, func(key []byte) bool {
		got = append(got, string(key))
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestEntryDecoderWalkStopsEarly(t *testing.T) {
	d := newEntryDecoder(NoCompress)
	var entries []byte
	entries = append(entries, encodeEntry(1, 0, 0, []byte("first"), false)...)
	entries = append(entries, encodeEntry(2, 0, 0, []byte("second"), false)...)

	var got []string
	err := d.walk(entries, func(key []byte) bool {
		got = append(got, string(key))
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, got)
}
