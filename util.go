package netpc

import "bytes"

const maxLeadingInt = int(^uint(0) >> 1)

// leadingInt parses the decimal prefix of bts, stopping at the first
// non-digit, strtol style. A prefix that does not fit in an int
// returns -1; callers must not slice with the result unchecked.
func leadingInt(bts []byte) (n int) {
	for _, c := range bts {
		if c < '0' || c > '9' {
			break
		}
		d := int(c - '0')
		if n > (maxLeadingInt-d)/10 {
			return -1
		}
		n = n*10 + d
	}
	return n
}

// indexFrom is bytes.IndexByte starting at position i, returning an
// absolute index into b.
func indexFrom(b []byte, i int, c byte) int {
	j := bytes.IndexByte(b[i:], c)
	if j < 0 {
		return -1
	}
	return i + j
}
