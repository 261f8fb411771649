package rcon

import "errors"

// Sentinel errors returned by this package. Callers classify failures with
// errors.Is; the concrete error values usually carry additional detail via
// fmt.Errorf wrapping.
var (
	// ErrUnreachable means the RCON endpoint could not be dialed.
	ErrUnreachable = errors.New("rcon: server unreachable")

	// ErrAuthFailed means the server rejected the password. The client
	// never retries this: a bad password will not self-correct.
	ErrAuthFailed = errors.New("rcon: authentication rejected")

	// ErrTimeout means no bytes arrived within the read deadline.
	ErrTimeout = errors.New("rcon: deadline exceeded")

	// ErrConnectionLost means the connection failed mid-exchange. The
	// session is closed; the client retries the command exactly once on a
	// fresh connection.
	ErrConnectionLost = errors.New("rcon: connection lost")

	// ErrMalformedPacket means a frame violated the wire format.
	ErrMalformedPacket = errors.New("rcon: malformed packet")

	// ErrOversizedPacket means a frame exceeded the protocol's size limit.
	ErrOversizedPacket = errors.New("rcon: packet too large")

	// ErrProtocolViolation means the server sent a packet sequence the
	// protocol does not allow in the session's current state, e.g. a
	// response id that belongs to no in-flight request. The session cannot
	// be trusted afterwards and is closed.
	ErrProtocolViolation = errors.New("rcon: protocol violation")

	// ErrClosed means the session or client has been shut down.
	ErrClosed = errors.New("rcon: closed")
)
