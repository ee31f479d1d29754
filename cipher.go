package netpc

import (
	"encoding/binary"
	"math/rand"
)

// newMask returns a fresh 4-byte masking key.
func newMask() (m [4]byte) {
	binary.BigEndian.PutUint32(m[:], rand.Uint32())
	return m
}

// cipher XORs payload in place with the 4-byte repeating mask. The
// same transform both masks and unmasks. offset is the number of
// payload bytes already transformed, for continuing over chunked data.
func cipher(payload []byte, mask [4]byte, offset int) {
	n := len(payload)
	if n < 8 {
		for i := 0; i < n; i++ {
			payload[i] ^= mask[(offset+i)&3]
		}
		return
	}

	// Align to the mask boundary byte by byte, then fold the key into
	// a 64-bit word and process eight bytes per step; the sub-word
	// tail goes byte by byte again.
	mpos := offset & 3
	ln := (4 - mpos) & 3
	for i := 0; i < ln; i++ {
		payload[i] ^= mask[(mpos+i)&3]
	}
	m32 := binary.LittleEndian.Uint32(mask[:])
	m64 := uint64(m32)<<32 | uint64(m32)
	p := payload[ln:]
	for len(p) >= 8 {
		binary.LittleEndian.PutUint64(p, binary.LittleEndian.Uint64(p)^m64)
		p = p[8:]
	}
	for i := 0; i < len(p); i++ {
		p[i] ^= mask[i&3]
	}
}
