// Package netpc is the client-side networking substrate for a
// poll-driven market data client: pooled buffer chains, a non-blocking
// socket engine with partial-I/O resumption, and HTTP/1.1 plus RFC 6455
// websocket protocol support built over a single streaming-parser
// contract.
//
// Nothing in this package blocks or spawns goroutines. All progress
// happens inside Socket.Poll, which the owning event loop calls
// whenever the descriptor is known to be readable or writable; a
// would-block condition simply defers the remaining work to a later
// Poll call without losing state.
//
// Outbound data is composed in Writers, which accumulate bytes in
// chains of pooled fixed-size buffer nodes and hand the whole chain to
// a socket send queue in O(1):
//
//	var req HTTPRequest
//	req.Init("GET", "/")
//	req.AddHdr("Accept", "text/plain")
//	req.End()
//	sock.AddSend(&req.Writer)
//
// Inbound data flows through whatever Parser is attached to the
// socket. A Parser consumes one whole protocol unit from the receive
// window or reports that the unit is not fully buffered yet, in which
// case the engine keeps the bytes and retries after the next read.
//
// Failures are recorded on the socket or connector once and queried
// with IsErr/Err after each Poll or Init call; an errored socket
// performs no further I/O until it is torn down and rebuilt.
package netpc
