package block

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// uncompressSnappy decodes a whole snappy frame, matching the original
// engine's util::Snappy_GetUncompressedLength + util::Snappy_Uncompress
// pair. Any snappy-level error is surfaced as corruption: a value this
// engine wrote and now cannot decompress is never a transient condition.
func uncompressSnappy(raw []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(raw)
	if err != nil {
		return nil, &CorruptionError{Reason: fmt.Sprintf("snappy: bad frame: %v", err)}
	}
	dst := make([]byte, n)
	out, err := snappy.Decode(dst, raw)
	if err != nil {
		return nil, &CorruptionError{Reason: fmt.Sprintf("snappy: decode failed: %v", err)}
	}
	return out, nil
}

// uncompressZlib inflates raw, which is expected to decompress to exactly
// rawLen bytes (the length the segment writer prefixed ahead of the zlib
// stream; see Block.materialize and [MODULE C3]). Matches
// util::Zlib_Uncompress's length-checked inflate.
func uncompressZlib(raw []byte, rawLen int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, &CorruptionError{Reason: fmt.Sprintf("zlib: bad stream: %v", err)}
	}
	defer r.Close()

	dst := make([]byte, rawLen)
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &CorruptionError{Reason: fmt.Sprintf("zlib: inflate failed: %v", err)}
	}
	if n != rawLen {
		return nil, &CorruptionError{Reason: fmt.Sprintf("zlib: declared length %d, inflated %d", rawLen, n)}
	}
	// A well-formed stream is fully consumed by ReadFull; trailing bytes
	// would mean rawLen undercounted the real payload.
	var extra [1]byte
	if m, _ := r.Read(extra[:]); m > 0 {
		return nil, &CorruptionError{Reason: "zlib: trailing data after declared length"}
	}
	return dst, nil
}
