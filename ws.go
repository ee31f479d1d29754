package netpc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gobwas/httphead"
	"github.com/gobwas/pool/pbytes"
)

// OpCode is a websocket frame operation code.
// See https://tools.ietf.org/html/rfc6455#section-5.2
type OpCode byte

const (
	OpContinuation OpCode = 0x0
	OpText         OpCode = 0x1
	OpBinary       OpCode = 0x2
	OpClose        OpCode = 0x8
	OpPing         OpCode = 0x9
	OpPong         OpCode = 0xa
)

const (
	bitFin  = 0x80 // FIN flag in the first header byte
	bitMask = 0x80 // MASK flag in the second header byte

	len7  = 125
	len16 = 1<<16 - 1

	// Largest possible frame header: 2 fixed bytes, 8 length bytes,
	// 4 mask key bytes.
	maxHdrSize = 14
)

// wsKey is the fixed demonstration nonce from RFC 6455 section 1.3.
// It is deliberately not randomized: the handshake accepts any 101
// response and never validates Sec-WebSocket-Accept.
const wsKey = "dGhlIHNhbXBsZSBub25jZQ=="

// WsWriter builds RFC 6455 frames into a buffer chain.
type WsWriter struct {
	Writer
}

// Commit appends one complete frame: FIN set (outgoing messages are
// never fragmented), RSV clear, minimal length encoding. When mask is
// set a fresh key is generated and payload is XORed IN PLACE before
// being copied into the chain, so the caller's buffer comes back
// masked.
func (w *WsWriter) Commit(op OpCode, payload []byte, mask bool) {
	var hdr [maxHdrSize]byte
	hdr[0] = bitFin | byte(op)
	n := 2
	switch l := len(payload); {
	case l <= len7:
		hdr[1] = byte(l)
	case l <= len16:
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(l))
		n += 2
	default:
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(l))
		n += 8
	}
	if mask {
		hdr[1] |= bitMask
		key := newMask()
		copy(hdr[n:], key[:])
		n += 4
		cipher(payload, key, 0)
	}
	w.Write(hdr[:n])
	w.Write(payload)
}

// WsParser decodes websocket frames from the receive window,
// reassembles fragmented messages and auto-replies to control frames
// on its socket. Replies follow the client/server masking direction
// convention: a reply is masked iff the inbound frame was not.
type WsParser struct {
	sock *Socket

	// MsgFn receives the payload of every complete text or binary
	// message. The slice aliases parser-owned storage and is only
	// valid for the duration of the call.
	MsgFn func(payload []byte)

	frag []byte // pooled accumulator for fragmented messages
}

// NewWsParser returns a parser whose control-frame replies are queued
// on sock.
func NewWsParser(sock *Socket) *WsParser {
	return &WsParser{sock: sock}
}

// Parse implements Parser. Frames with an unknown opcode record
// ErrUnknownOpCode on the socket but still count as consumed.
func (p *WsParser) Parse(window []byte) (int, bool) {
	if len(window) < 2 {
		return 0, false
	}
	fin := window[0]&bitFin != 0
	op := OpCode(window[0] & 0x0f)
	masked := window[1]&bitMask != 0

	hdrLen := 2
	payLen := int(window[1] & 0x7f)
	switch payLen {
	case 126:
		if len(window) < 4 {
			return 0, false
		}
		payLen = int(binary.BigEndian.Uint16(window[2:]))
		hdrLen = 4
	case 127:
		if len(window) < 10 {
			return 0, false
		}
		payLen = int(binary.BigEndian.Uint64(window[2:]))
		hdrLen = 10
	}
	if payLen < 0 {
		// RFC 6455 5.2: the most significant bit of the 64-bit
		// length must be 0.
		p.sock.setErr(fmt.Errorf("websocket frame length has MSB set"))
		return 0, false
	}
	maskLen := 0
	if masked {
		maskLen = 4
	}
	// Subtraction form: payLen can be up to 2^63-1 and must not wrap
	// the frame boundary.
	if payLen > len(window)-hdrLen-maskLen {
		return 0, false
	}
	total := hdrLen + maskLen + payLen
	payload := window[hdrLen+maskLen : total]
	if masked {
		var key [4]byte
		copy(key[:], window[hdrLen:])
		cipher(payload, key, 0)
	}

	switch op {
	case OpText, OpBinary:
		if fin {
			if p.MsgFn != nil {
				p.MsgFn(payload)
			}
		} else {
			p.accumulate(payload)
		}
	case OpContinuation:
		p.accumulate(payload)
		if fin {
			if p.MsgFn != nil {
				p.MsgFn(p.frag)
			}
			p.resetFrag()
		}
	case OpPing:
		var pong WsWriter
		pong.Commit(OpPong, payload, !masked)
		p.sock.AddSend(&pong.Writer)
	case OpPong:
		// no action
	case OpClose:
		var reply WsWriter
		reply.Commit(OpClose, nil, !masked)
		p.sock.AddSend(&reply.Writer)
	default:
		p.sock.setErr(fmt.Errorf("%w: 0x%x", ErrUnknownOpCode, byte(op)))
	}
	return total, true
}

// accumulate appends payload to the in-progress message, growing the
// pooled backing store as needed.
func (p *WsParser) accumulate(payload []byte) {
	if cap(p.frag)-len(p.frag) < len(payload) {
		grown := pbytes.Get(len(p.frag), len(p.frag)+len(payload))
		copy(grown, p.frag)
		if p.frag != nil {
			pbytes.Put(p.frag)
		}
		p.frag = grown
	}
	p.frag = append(p.frag, payload...)
}

func (p *WsParser) resetFrag() {
	if p.frag != nil {
		pbytes.Put(p.frag)
		p.frag = nil
	}
}

// WsConnect upgrades a TCP connection to websocket. Init connects,
// swaps the configured parser for a one-shot handshake interceptor and
// queues the upgrade request; the first HTTP response either restores
// the real parser (status 101) or records a handshake failure carrying
// the status text. Exactly one response is ever routed through the
// interceptor.
type WsConnect struct {
	TCPConnect

	exts []httphead.Option
}

// NewWsConnect returns an unconnected websocket connector for
// host:port.
func NewWsConnect(host string, port int) *WsConnect {
	c := &WsConnect{}
	c.fd = -1
	c.host, c.port = host, port
	return c
}

// Init connects and starts the upgrade. The parser attached at call
// time is saved and reinstalled once the server answers 101; until
// then inbound bytes are routed through the handshake interceptor.
func (c *WsConnect) Init(ctx context.Context) error {
	if err := c.TCPConnect.Init(ctx); err != nil {
		return err
	}
	c.startHandshake()
	return nil
}

func (c *WsConnect) startHandshake() {
	hs := &wsHandshake{conn: c, saved: c.Parser()}
	hs.StatusFn = hs.onStatus
	hs.HeaderFn = hs.onHeader
	c.SetParser(hs)
	c.exts = nil

	var req HTTPRequest
	req.Init("GET", "/")
	req.AddHdr("Connection", "Upgrade")
	req.AddHdr("Sec-WebSocket-Key", wsKey)
	req.AddHdr("Sec-WebSocket-Version", "13")
	req.End()
	c.AddSend(&req.Writer)
}

// Extensions lists the Sec-WebSocket-Extensions options the server
// sent in its 101 response. Informational only: the handshake succeeds
// on status 101 alone.
func (c *WsConnect) Extensions() []httphead.Option { return c.exts }

// wsHandshake intercepts exactly one HTTP response during the upgrade,
// then is discarded.
type wsHandshake struct {
	HTTPClient
	conn  *WsConnect
	saved Parser
}

func (h *wsHandshake) onStatus(status int, reason []byte) {
	if status == 101 {
		h.conn.SetParser(h.saved)
		return
	}
	h.conn.setErr(fmt.Errorf("%w: %s", ErrHandshake, reason))
}

func (h *wsHandshake) onHeader(name, value []byte) {
	if string(name) != "Sec-WebSocket-Extensions" {
		return
	}
	// The window aliases the socket receive buffer; the options must
	// outlive it.
	v := append([]byte(nil), value...)
	if opts, ok := httphead.ParseOptions(v, h.conn.exts); ok {
		h.conn.exts = opts
	}
}
