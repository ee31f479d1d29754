package netpc

import (
	"fmt"

	"github.com/gobwas/pool/pbytes"
	"golang.org/x/sys/unix"
)

// recvChunk is the granularity the receive buffer grows and reads by.
const recvChunk = 4096

// Syscall entry points, replaceable in tests. MSG_DONTWAIT keeps the
// calls non-blocking even if someone flips the descriptor back to
// blocking mode behind our back.
var (
	sysSend = func(fd int, p []byte) (int, error) {
		return unix.SendmsgN(fd, p, nil, nil, unix.MSG_NOSIGNAL|unix.MSG_DONTWAIT)
	}
	sysRecv = func(fd int, p []byte) (int, error) {
		n, _, err := unix.Recvfrom(fd, p, unix.MSG_DONTWAIT)
		return n, err
	}
	sysClose = unix.Close
)

func wouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}

// Socket drives non-blocking I/O over one file descriptor: an outbound
// queue of buffer-node chains, a growable pooled receive buffer and
// the Parser the inbound bytes are fed to.
//
// The socket never blocks and owns no event loop; the caller invokes
// Poll whenever external readiness notification says the descriptor
// may be readable or writable. Within one socket, sent bytes preserve
// queue order and received bytes are parsed in arrival order.
type Socket struct {
	errState

	fd int

	whd  *netBuf // send queue head
	wtl  *netBuf // send queue tail
	woff int     // bytes of whd already sent

	rbuf []byte // pooled receive storage
	rsz  int    // filled (unparsed) length of rbuf

	parser Parser

	// MaxRecvBuf, when positive, bounds the unparsed receive backlog;
	// exceeding it records ErrRecvOverflow. Zero means unbounded,
	// which trusts the peer to eventually produce parseable units.
	MaxRecvBuf int
}

// NewSocket returns a socket with no descriptor attached.
func NewSocket() *Socket {
	return &Socket{fd: -1}
}

// Fd returns the attached descriptor, -1 when closed.
func (s *Socket) Fd() int { return s.fd }

// SetFd attaches an externally created descriptor.
func (s *Socket) SetFd(fd int) { s.fd = fd }

// SetParser attaches the parser inbound bytes are fed to. The socket
// does not own it.
func (s *Socket) SetParser(p Parser) { s.parser = p }

// Parser returns the attached parser.
func (s *Socket) Parser() Parser { return s.parser }

// Close closes the descriptor. Idempotent.
func (s *Socket) Close() {
	if s.fd >= 0 {
		sysClose(s.fd)
		s.fd = -1
	}
}

// SetBlock toggles the descriptor between blocking and non-blocking
// mode.
func (s *Socket) SetBlock(block bool) error {
	flags, err := unix.FcntlInt(uintptr(s.fd), unix.F_GETFL, 0)
	if err != nil {
		return s.setErr(fmt.Errorf("fcntl F_GETFL: %w", err))
	}
	if block {
		flags &^= unix.O_NONBLOCK
	} else {
		flags |= unix.O_NONBLOCK
	}
	if _, err = unix.FcntlInt(uintptr(s.fd), unix.F_SETFL, flags); err != nil {
		return s.setErr(fmt.Errorf("fcntl F_SETFL: %w", err))
	}
	return nil
}

// AddSend takes ownership of w's chain and appends it to the send
// queue in O(1). The writer comes back empty.
func (s *Socket) AddSend(w *Writer) {
	hd, tl := w.Detach()
	if hd == nil {
		return
	}
	if s.wtl != nil {
		s.wtl.next = hd
	} else {
		s.whd = hd
	}
	s.wtl = tl
}

// Poll makes whatever progress the descriptor allows right now: flush
// the send queue, then read and parse inbound bytes. Once an error is
// recorded Poll does nothing; recovery means tearing the socket down
// and rebuilding it.
func (s *Socket) Poll() {
	if s.whd != nil {
		s.pollSend()
	}
	s.pollRecv()
}

func (s *Socket) pollSend() {
	if s.whd == nil || s.IsErr() {
		return
	}
	for {
		n, err := sysSend(s.fd, s.whd.data[s.woff:s.whd.size])
		if err != nil || n <= 0 {
			if wouldBlock(err) {
				return // resumed by a later Poll
			}
			if err == nil {
				err = unix.ECONNRESET
			}
			s.setErr(fmt.Errorf("failed to write: %w", err))
			return
		}
		s.woff += n
		if s.woff < int(s.whd.size) {
			continue
		}
		nxt := s.whd.next
		deallocBuf(s.whd)
		s.whd, s.woff = nxt, 0
		if s.whd == nil {
			s.wtl = nil
			return
		}
	}
}

func (s *Socket) pollRecv() {
	for !s.IsErr() {
		if len(s.rbuf)-s.rsz < recvChunk {
			grown := pbytes.GetLen(len(s.rbuf) + recvChunk)
			copy(grown, s.rbuf[:s.rsz])
			if s.rbuf != nil {
				pbytes.Put(s.rbuf)
			}
			s.rbuf = grown
		}
		n, err := sysRecv(s.fd, s.rbuf[s.rsz:s.rsz+recvChunk])
		if err != nil || n <= 0 {
			// rc==0 means the peer closed; only would-block is benign.
			if !wouldBlock(err) {
				if err == nil {
					err = unix.ECONNRESET
				}
				s.setErr(fmt.Errorf("failed to read: %w", err))
			}
			return
		}
		s.rsz += n

		idx := 0
		for s.parser != nil && !s.IsErr() && s.rsz > 0 {
			un, ok := s.parser.Parse(s.rbuf[idx : idx+s.rsz])
			if !ok {
				// Keep the unconsumed tail at the buffer start for
				// the next read.
				if idx > 0 {
					copy(s.rbuf, s.rbuf[idx:idx+s.rsz])
				}
				break
			}
			idx += un
			s.rsz -= un
		}
		if s.MaxRecvBuf > 0 && s.rsz > s.MaxRecvBuf {
			s.setErr(fmt.Errorf("%w: %d buffered", ErrRecvOverflow, s.rsz))
			return
		}
	}
}
