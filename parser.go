package netpc

// Parser consumes whole protocol units from a byte window.
//
// Parse inspects window and either recognizes one complete unit at its
// start, returning the unit's length in bytes with ok set, or returns
// ok false meaning the unit is not fully buffered yet and nothing was
// consumed. Partial consumption is not allowed, and Parse must never
// read past the window.
//
// The engine re-invokes the attached Parser after every successful
// read, so a Parser is free to keep per-message state (see WsParser's
// fragment accumulator) but must tolerate seeing the same incomplete
// prefix multiple times.
type Parser interface {
	Parse(window []byte) (n int, ok bool)
}
