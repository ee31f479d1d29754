package netpc

import "strconv"

const (
	cr = '\r'
	lf = '\n'
)

// HTTPRequest serializes an HTTP/1.1 request into a buffer chain.
// Call Init, then any AddHdr variants, then exactly one of the
// AddContent variants or End.
type HTTPRequest struct {
	Writer
}

// Init writes the request line "<METHOD> <ENDPOINT> HTTP/1.1\r\n".
func (r *HTTPRequest) Init(method, endpoint string) {
	r.WriteString(method)
	r.WriteByte(' ')
	r.WriteString(endpoint)
	r.WriteString(" HTTP/1.1\r\n")
}

// AddHdr writes one "<name>: <value>\r\n" header line.
func (r *HTTPRequest) AddHdr(name, value string) {
	r.WriteString(name)
	r.WriteByte(':')
	r.WriteByte(' ')
	r.WriteString(value)
	r.WriteByte(cr)
	r.WriteByte(lf)
}

// AddHdrInt writes a header whose value is an unsigned decimal.
func (r *HTTPRequest) AddHdrInt(name string, val uint64) {
	var buf [20]byte
	r.WriteString(name)
	r.WriteByte(':')
	r.WriteByte(' ')
	r.Write(strconv.AppendUint(buf[:0], val, 10))
	r.WriteByte(cr)
	r.WriteByte(lf)
}

// AddContent writes the Content-Length header sized to body, the blank
// line terminating the header section, and the body bytes.
func (r *HTTPRequest) AddContent(body []byte) {
	r.AddHdrInt("Content-Length", uint64(len(body)))
	r.WriteByte(cr)
	r.WriteByte(lf)
	r.Write(body)
}

// AddContentWriter is AddContent with the body spliced out of w in
// O(1), leaving w empty.
func (r *HTTPRequest) AddContentWriter(w *Writer) {
	r.AddHdrInt("Content-Length", uint64(w.Size()))
	r.WriteByte(cr)
	r.WriteByte(lf)
	r.Splice(w)
}

// End terminates the header section with no body and no Content-Length
// header.
func (r *HTTPRequest) End() {
	r.WriteByte(cr)
	r.WriteByte(lf)
}

// HTTPClient decodes one complete HTTP/1.1 response per Parse call:
// status line, headers and a fixed-length body (no chunked encoding).
// Hooks left nil are skipped; hooks fire only once the whole response
// is buffered, so a response split across reads never dispatches
// twice.
//
// Any delimiter still missing before the body boundary makes Parse
// report incomplete rather than fail: the assumption is that the
// response is simply not fully buffered yet. Bounding a peer that
// never completes is the engine's job (Socket.MaxRecvBuf).
type HTTPClient struct {
	// StatusFn receives the numeric status code and the reason text.
	StatusFn func(status int, reason []byte)

	// HeaderFn receives every header except Content-Length.
	HeaderFn func(name, value []byte)

	// ContentFn receives the body, sized by the first Content-Length
	// header. Later Content-Length headers are swallowed, first
	// occurrence wins.
	ContentFn func(body []byte)
}

type httpHeader struct {
	name, val []byte
}

// Parse implements Parser.
func (c *HTTPClient) Parse(window []byte) (int, bool) {
	// Status line: the first space precedes the code, the second the
	// reason text, which runs to CR.
	sp := indexFrom(window, 0, ' ')
	if sp < 0 {
		return 0, false
	}
	pos := sp + 1
	if sp = indexFrom(window, pos, ' '); sp < 0 {
		return 0, false
	}
	status := leadingInt(window[pos:sp])
	pos = sp + 1
	crp := indexFrom(window, pos, cr)
	if crp < 0 || crp+1 >= len(window) || window[crp+1] != lf {
		return 0, false
	}
	reason := window[pos:crp]
	pos = crp + 2

	var (
		hdrs   []httpHeader
		clen   int
		hasLen bool
	)
	for {
		if pos+2 <= len(window) && window[pos] == cr && window[pos+1] == lf {
			pos += 2
			break
		}
		colon := indexFrom(window, pos, ':')
		if colon < 0 {
			return 0, false
		}
		name := window[pos:colon]
		v := colon + 1
		for v < len(window) && (window[v] == ' ' || window[v] == '\t') {
			v++
		}
		if crp = indexFrom(window, v, cr); crp < 0 {
			return 0, false
		}
		if crp+1 >= len(window) || window[crp+1] != lf {
			return 0, false
		}
		if string(name) == "Content-Length" || string(name) == "content-length" {
			if !hasLen {
				hasLen = true
				clen = leadingInt(window[v:crp])
			}
		} else {
			hdrs = append(hdrs, httpHeader{name, window[v:crp]})
		}
		pos = crp + 2
	}

	// Subtraction form so an absurd Content-Length cannot wrap the
	// boundary; such a body can never be fully buffered, so the
	// response stays incomplete until MaxRecvBuf cuts the peer off.
	if clen < 0 || clen > len(window)-pos {
		return 0, false
	}
	body := window[pos : pos+clen]

	if c.StatusFn != nil {
		c.StatusFn(status, reason)
	}
	if c.HeaderFn != nil {
		for _, h := range hdrs {
			c.HeaderFn(h.name, h.val)
		}
	}
	if c.ContentFn != nil {
		c.ContentFn(body)
	}
	return pos + clen, true
}
