package netpc

import "errors"

// Errors recorded by the engine and connectors. OS-level failures are
// wrapped fmt.Errorf values carrying the unix.Errno; these sentinels
// cover the failures that have no errno.
var (
	// ErrResolve means no IPv4 address record exists for the host.
	ErrResolve = errors.New("no ipv4 address for host")

	// ErrHandshake means the websocket upgrade got a non-101 response.
	ErrHandshake = errors.New("websocket handshake failed")

	// ErrUnknownOpCode means a frame carried an opcode this parser
	// does not speak.
	ErrUnknownOpCode = errors.New("unknown websocket opcode")

	// ErrRecvOverflow means the unparsed receive backlog exceeded
	// Socket.MaxRecvBuf.
	ErrRecvOverflow = errors.New("receive backlog over limit")
)

// errState is the fault recorder embedded in sockets and connectors.
// The first recorded error sticks until ResetErr; an errored engine
// performs no further I/O. Callers poll IsErr/Err after each Poll or
// Init call rather than relying on propagation through the event loop.
type errState struct {
	err error
}

// setErr records err unless an error is already recorded, and returns
// err for direct propagation by the failure path.
func (e *errState) setErr(err error) error {
	if e.err == nil {
		e.err = err
	}
	return err
}

// IsErr reports whether a failure has been recorded.
func (e *errState) IsErr() bool { return e.err != nil }

// Err returns the first recorded failure, or nil.
func (e *errState) Err() error { return e.err }

// ResetErr clears the recorded failure.
func (e *errState) ResetErr() { e.err = nil }
