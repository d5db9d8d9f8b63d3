// Package codec implements the fixed-width and variable-width little-endian
// encodings shared by the block file format: fixed 8/16/32/64-bit integers,
// unsigned varints, and length-prefixed byte slices.
package codec

import "encoding/binary"

// PutFixed8 writes v into dst[0]. dst must have length >= 1.
func PutFixed8(dst []byte, v uint8) {
	dst[0] = v
}

// Fixed8 reads a single byte from src. src must have length >= 1.
func Fixed8(src []byte) uint8 {
	return src[0]
}

// PutFixed16 writes v into dst[0:2] little-endian. dst must have length >= 2.
func PutFixed16(dst []byte, v uint16) {
	binary.LittleEndian.PutUint16(dst, v)
}

// Fixed16 reads a little-endian uint16 from src[0:2].
func Fixed16(src []byte) uint16 {
	return binary.LittleEndian.Uint16(src)
}

// PutFixed32 writes v into dst[0:4] little-endian. dst must have length >= 4.
func PutFixed32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}

// Fixed32 reads a little-endian uint32 from src[0:4].
func Fixed32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// PutFixed64 writes v into dst[0:8] little-endian. dst must have length >= 8.
func PutFixed64(dst []byte, v uint64) {
	binary.LittleEndian.PutUint64(dst, v)
}

// Fixed64 reads a little-endian uint64 from src[0:8].
func Fixed64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// GetFixed8 reads a fixed 1-byte value, reporting whether input had enough
// bytes, and advances *input past the consumed bytes on success.
func GetFixed8(input *[]byte) (uint8, bool) {
	if len(*input) < 1 {
		return 0, false
	}
	v := Fixed8(*input)
	*input = (*input)[1:]
	return v, true
}

// GetFixed16 is the 2-byte counterpart of GetFixed8.
func GetFixed16(input *[]byte) (uint16, bool) {
	if len(*input) < 2 {
		return 0, false
	}
	v := Fixed16(*input)
	*input = (*input)[2:]
	return v, true
}

// GetFixed32 is the 4-byte counterpart of GetFixed8.
func GetFixed32(input *[]byte) (uint32, bool) {
	if len(*input) < 4 {
		return 0, false
	}
	v := Fixed32(*input)
	*input = (*input)[4:]
	return v, true
}

// GetFixed64 is the 8-byte counterpart of GetFixed8.
func GetFixed64(input *[]byte) (uint64, bool) {
	if len(*input) < 8 {
		return 0, false
	}
	v := Fixed64(*input)
	*input = (*input)[8:]
	return v, true
}
