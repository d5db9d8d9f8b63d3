package codec

// Varints are encoded 7 payload bits per byte, low-order group first, with
// the high bit of each byte set iff another byte follows. A 32-bit value
// occupies 1-5 bytes; a 64-bit value occupies 1-10 bytes.

const (
	maxVarint32Bytes = 5
	maxVarint64Bytes = 10
)

// PutUvarint32 writes v to dst (which must be at least maxVarint32Bytes
// long) and returns the number of bytes written.
func PutUvarint32(dst []byte, v uint32) int {
	i := 0
	for v >= 0x80 {
		dst[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	dst[i] = byte(v)
	return i + 1
}

// PutUvarint64 writes v to dst (which must be at least maxVarint64Bytes
// long) and returns the number of bytes written.
func PutUvarint64(dst []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		dst[i] = byte(v) | 0x80
		v >>= 7
		i++
	}
	dst[i] = byte(v)
	return i + 1
}

// Uvarint32 decodes a varint from the head of src. ok is false if src is
// truncated mid-varint or the encoded value overflows 32 bits; in that case
// v and n are zero.
func Uvarint32(src []byte) (v uint32, n int, ok bool) {
	var shift uint
	for i := 0; i < len(src) && i < maxVarint32Bytes; i++ {
		b := src[i]
		if b < 0x80 {
			full := v | uint32(b)<<shift
			if shift >= 32 || (shift == 28 && b > 0xf) {
				return 0, 0, false
			}
			return full, i + 1, true
		}
		v |= uint32(b&0x7f) << shift
		shift += 7
	}
	return 0, 0, false
}

// Uvarint64 is the 64-bit counterpart of Uvarint32.
func Uvarint64(src []byte) (v uint64, n int, ok bool) {
	var shift uint
	for i := 0; i < len(src) && i < maxVarint64Bytes; i++ {
		b := src[i]
		if b < 0x80 {
			if shift >= 64 || (shift == 63 && b > 1) {
				return 0, 0, false
			}
			return v | uint64(b)<<shift, i + 1, true
		}
		v |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, 0, false
}

// GetUvarint32 decodes a varint from the head of *input and advances
// *input past it. On failure *input is left unchanged: the open question
// in the original spec ("the slice is left in an undefined position on
// failure") is resolved here as "never partially consumed".
func GetUvarint32(input *[]byte) (uint32, bool) {
	v, n, ok := Uvarint32(*input)
	if !ok {
		return 0, false
	}
	*input = (*input)[n:]
	return v, true
}

// GetUvarint64 is the 64-bit counterpart of GetUvarint32.
func GetUvarint64(input *[]byte) (uint64, bool) {
	v, n, ok := Uvarint64(*input)
	if !ok {
		return 0, false
	}
	*input = (*input)[n:]
	return v, true
}
