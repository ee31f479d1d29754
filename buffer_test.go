package netpc

import (
	"testing"
	"unsafe"
)

func TestBufSizePin(t *testing.T) {
	if got := unsafe.Sizeof(netBuf{}); got != BufSize {
		t.Fatalf("sizeof(netBuf) = %d; want %d", got, BufSize)
	}
}

func TestAllocReusesFreedNode(t *testing.T) {
	DrainPool()

	b := allocBuf()
	b.size = 100
	deallocBuf(b)
	if n := PoolStats(); n != 1 {
		t.Fatalf("PoolStats = %d; want 1", n)
	}

	c := allocBuf()
	if c != b {
		t.Fatalf("alloc after dealloc did not reuse the freed node")
	}
	if c.size != 0 || c.next != nil {
		t.Fatalf("reused node not zeroed: size=%d next=%v", c.size, c.next)
	}
	if n := PoolStats(); n != 0 {
		t.Fatalf("PoolStats = %d; want 0", n)
	}
	deallocBuf(c)
}

func TestAllocNeverAliases(t *testing.T) {
	DrainPool()

	const n = 64
	seen := make(map[*netBuf]bool, n)
	bufs := make([]*netBuf, 0, n)
	for i := 0; i < n; i++ {
		b := allocBuf()
		if seen[b] {
			t.Fatalf("allocation %d returned an already live node", i)
		}
		seen[b] = true
		bufs = append(bufs, b)
	}
	for _, b := range bufs {
		deallocBuf(b)
	}
	if got := PoolStats(); got != n {
		t.Fatalf("PoolStats = %d; want %d", got, n)
	}

	DrainPool()
	if got := PoolStats(); got != 0 {
		t.Fatalf("PoolStats after drain = %d; want 0", got)
	}
}
