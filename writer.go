package netpc

// Writer accumulates one outbound message as a chain of pooled buffer
// nodes. The zero value is ready to use. Writers are not safe for
// concurrent use.
//
// A Writer that was handed to Socket.AddSend has given its chain away
// and is empty again; one that is abandoned with data still buffered
// must be Released to return its nodes to the pool.
type Writer struct {
	hd *netBuf
	tl *netBuf
	sz int
}

func (w *Writer) grow() {
	b := allocBuf()
	if w.tl != nil {
		w.tl.next = b
	} else {
		w.hd = b
	}
	w.tl = b
}

// Write appends p verbatim, allocating nodes as the tail fills. It
// implements io.Writer and never fails.
func (w *Writer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if w.tl == nil || int(w.tl.size) == bufDataLen {
			w.grow()
		}
		m := copy(w.tl.data[w.tl.size:], p)
		p = p[m:]
		w.tl.size += uint16(m)
		w.sz += m
	}
	return n, nil
}

// WriteByte appends a single byte. It implements io.ByteWriter and
// never fails.
func (w *Writer) WriteByte(c byte) error {
	if w.tl == nil || int(w.tl.size) == bufDataLen {
		w.grow()
	}
	w.tl.data[w.tl.size] = c
	w.tl.size++
	w.sz++
	return nil
}

// WriteString appends s without an intermediate copy of the string.
func (w *Writer) WriteString(s string) {
	for len(s) > 0 {
		if w.tl == nil || int(w.tl.size) == bufDataLen {
			w.grow()
		}
		m := copy(w.tl.data[w.tl.size:], s)
		s = s[m:]
		w.tl.size += uint16(m)
		w.sz += m
	}
}

// Splice moves the entire chain of other onto w's tail in O(1),
// leaving other empty. This is the message-composition primitive, e.g.
// embedding a serialized body into a request.
func (w *Writer) Splice(other *Writer) {
	sz := other.sz
	hd, tl := other.Detach()
	if hd == nil {
		return
	}
	if w.tl != nil {
		w.tl.next = hd
	} else {
		w.hd = hd
	}
	w.tl = tl
	w.sz += sz
}

// Detach hands the whole chain to the caller and resets w to empty.
// Ownership of every node transfers with the returned head.
func (w *Writer) Detach() (hd, tl *netBuf) {
	hd, tl = w.hd, w.tl
	w.hd, w.tl = nil, nil
	w.sz = 0
	return hd, tl
}

// Size returns the number of buffered bytes not yet detached.
func (w *Writer) Size() int { return w.sz }

// Release returns an undetached chain to the pool.
func (w *Writer) Release() {
	hd, _ := w.Detach()
	deallocChain(hd)
}

// Bytes flattens the chain into one contiguous slice without detaching
// it. Intended for handshake composition checks and tests, not the hot
// path.
func (w *Writer) Bytes() []byte {
	out := make([]byte, 0, w.sz)
	for b := w.hd; b != nil; b = b.next {
		out = append(out, b.data[:b.size]...)
	}
	return out
}
