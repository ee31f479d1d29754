package netpc

import (
	"bytes"
	"strings"
	"testing"
)

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i)
	}
	return p
}

// chainBytes flattens a node chain without touching ownership.
func chainBytes(hd *netBuf) []byte {
	var out []byte
	for b := hd; b != nil; b = b.next {
		out = append(out, b.data[:b.size]...)
	}
	return out
}

func TestWriterRoundTrip(t *testing.T) {
	var w Writer
	var want []byte

	for _, chunk := range [][]byte{
		[]byte("status"),
		pattern(bufDataLen - 3), // crosses the first node boundary
		pattern(3 * bufDataLen), // spans several nodes
		nil,
		[]byte("z"),
	} {
		if n, err := w.Write(chunk); n != len(chunk) || err != nil {
			t.Fatalf("Write = (%d, %v); want (%d, nil)", n, err, len(chunk))
		}
		want = append(want, chunk...)
	}
	_ = w.WriteByte('!')
	want = append(want, '!')
	w.WriteString("tail")
	want = append(want, "tail"...)

	if w.Size() != len(want) {
		t.Fatalf("Size = %d; want %d", w.Size(), len(want))
	}
	if got := w.Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("Bytes mismatch: %d bytes vs %d", len(got), len(want))
	}

	hd, tl := w.Detach()
	if w.Size() != 0 || len(w.Bytes()) != 0 {
		t.Fatalf("writer not empty after Detach")
	}
	if got := chainBytes(hd); !bytes.Equal(got, want) {
		t.Fatalf("detached chain mismatch")
	}
	// tail must be the last linked node
	last := hd
	for last.next != nil {
		last = last.next
	}
	if last != tl {
		t.Fatalf("Detach tail is not the last node of the chain")
	}
	deallocChain(hd)
}

func TestWriterSplice(t *testing.T) {
	var a, b Writer
	a.WriteString("alpha-")
	bBody := strings.Repeat("b", 3000)
	b.WriteString(bBody)

	wantLen := a.Size() + b.Size()
	a.Splice(&b)

	if b.Size() != 0 || len(b.Bytes()) != 0 {
		t.Fatalf("donor writer not empty after Splice")
	}
	if a.Size() != wantLen {
		t.Fatalf("Size = %d; want %d", a.Size(), wantLen)
	}

	// appends continue on the spliced tail
	a.WriteString("!")
	want := "alpha-" + bBody + "!"
	if got := string(a.Bytes()); got != want {
		t.Fatalf("spliced bytes mismatch: got %d bytes, want %d", len(got), len(want))
	}
	a.Release()
}

func TestWriterSpliceEmptyDonor(t *testing.T) {
	var a, b Writer
	a.WriteString("keep")
	a.Splice(&b)
	if got := string(a.Bytes()); got != "keep" {
		t.Fatalf("Bytes = %q; want %q", got, "keep")
	}
	a.Release()
}

func TestWriterRelease(t *testing.T) {
	DrainPool()

	var w Writer
	w.Write(pattern(4000)) // 4 nodes
	w.Release()
	if got := PoolStats(); got != 4 {
		t.Fatalf("PoolStats = %d; want 4", got)
	}
	if w.Size() != 0 {
		t.Fatalf("Size = %d after Release; want 0", w.Size())
	}
}
