package netpc

import (
	"sync"
	"unsafe"
)

// BufSize is the total size of a pooled buffer node, bookkeeping fields
// included. Peers of this substrate assume the resulting chunking, so
// the layout is pinned at compile time below.
const BufSize = 1280

// bufDataLen is the payload capacity left after the link and fill count.
const bufDataLen = BufSize - 10

// netBuf is one fixed-capacity node in a singly-linked buffer chain. A
// node is owned by exactly one of the free list, one writer chain or
// one socket send queue at any time; ownership moves with the link,
// never by copying.
type netBuf struct {
	next *netBuf
	size uint16
	data [bufDataLen]byte
}

// Pin sizeof(netBuf) == BufSize; either constant underflows otherwise.
const (
	_ = BufSize - unsafe.Sizeof(netBuf{})
	_ = unsafe.Sizeof(netBuf{}) - BufSize
)

// bufAlloc recycles nodes through a process-wide free list. The mutex
// is the only synchronization in the package; everything else assumes
// a single-threaded caller.
type bufAlloc struct {
	mu   sync.Mutex
	free *netBuf
	n    int
}

var pool bufAlloc

// allocBuf returns a node with size 0 and no link, reusing a freed node
// when one is available.
func allocBuf() *netBuf {
	pool.mu.Lock()
	b := pool.free
	if b != nil {
		pool.free = b.next
		pool.n--
		b.next = nil
		b.size = 0
	}
	pool.mu.Unlock()
	if b == nil {
		b = new(netBuf)
	}
	return b
}

// deallocBuf parks a node on the free list. The caller must not retain
// the pointer afterward.
func deallocBuf(b *netBuf) {
	pool.mu.Lock()
	b.next = pool.free
	pool.free = b
	pool.n++
	pool.mu.Unlock()
}

// deallocChain returns every node of a detached chain to the pool.
func deallocChain(hd *netBuf) {
	for hd != nil {
		nxt := hd.next
		deallocBuf(hd)
		hd = nxt
	}
}

// PoolStats reports the number of nodes currently parked on the free
// list.
func PoolStats() int {
	pool.mu.Lock()
	n := pool.n
	pool.mu.Unlock()
	return n
}

// DrainPool drops every pooled node, releasing the capacity to the
// garbage collector. Meant for process shutdown and tests.
func DrainPool() {
	pool.mu.Lock()
	pool.free = nil
	pool.n = 0
	pool.mu.Unlock()
}
