// Package blockhash implements the 32-bit seeded hash used to place keys
// into buckets in a block's hash table. It is a Murmur-style
// multiply-and-mix hash translated from the original kvstore engine's
// util/hash.{h,cc} (see _examples/original_source/hash.h): a non-cryptographic
// digest that must be bit-identical between the process that builds a block
// and every process that later opens it.
package blockhash

import "encoding/binary"

// multiplier is the mixing constant baked into the wire format. Any change
// here changes every bucket assignment in every previously built block.
const multiplier = 0xbc9f1d34

// finalShift is applied after each 4-byte word and once more over the
// byte-wise tail.
const finalShift = 24

// Sum returns the 32-bit hash of data under the given seed. The block
// engine always calls Sum with seed 0; Sum accepts an arbitrary seed so it
// can also serve as a general-purpose keyed hash.
func Sum(data []byte, seed uint32) uint32 {
	h := seed ^ (uint32(len(data)) * multiplier)

	for len(data) >= 4 {
		w := binary.LittleEndian.Uint32(data)
		data = data[4:]
		h += w
		h *= multiplier
		h ^= h >> finalShift
	}

	var tail uint32
	switch len(data) {
	case 3:
		tail |= uint32(data[2]) << 16
		fallthrough
	case 2:
		tail |= uint32(data[1]) << 8
		fallthrough
	case 1:
		tail |= uint32(data[0])
		h += tail
		h *= multiplier
		h ^= h >> finalShift
	}

	return h
}
