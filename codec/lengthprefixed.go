package codec

// PutLengthPrefixed appends a varint-32 length prefix followed by v to dst
// and returns the extended slice.
func PutLengthPrefixed(dst []byte, v []byte) []byte {
	var lenBuf [maxVarint32Bytes]byte
	n := PutUvarint32(lenBuf[:], uint32(len(v)))
	dst = append(dst, lenBuf[:n]...)
	dst = append(dst, v...)
	return dst
}

// GetLengthPrefixedSlice reads a varint-32 length L from the head of
// *input, then carves off the following L bytes as a non-owning view into
// the same backing array, advancing *input past both. ok is false if the
// length varint is truncated or if fewer than L bytes remain.
func GetLengthPrefixedSlice(input *[]byte) (v []byte, ok bool) {
	length, n, ok := Uvarint32(*input)
	if !ok {
		return nil, false
	}
	rest := (*input)[n:]
	if uint32(len(rest)) < length {
		return nil, false
	}
	v = rest[:length]
	*input = rest[length:]
	return v, true
}
