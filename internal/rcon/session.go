package rcon

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"net"
	"time"
)

// sessionState tracks a session through its lifecycle. State transitions
// are one-way: Unauthenticated → Authenticated → Closed, with any protocol
// or I/O failure short-circuiting to Closed.
type sessionState int

const (
	stateUnauthenticated sessionState = iota
	stateAuthenticated
	stateClosed
)

// Session owns one TCP connection to an RCON server and runs the protocol
// over it: the authentication handshake at construction time, then one
// command exchange at a time. The protocol is strictly half-duplex per
// connection, so a session never multiplexes requests; [Client] serializes
// callers. A session that returns an error from Execute is closed and must
// be replaced, never reused.
type Session struct {
	conn    net.Conn
	state   sessionState
	nextID  int32
	dec     Decoder
	timeout time.Duration
	logger  *slog.Logger
}

// NewSession performs the authentication handshake over conn and returns an
// authenticated session. Every read and write is bounded by timeout. On any
// failure the connection is closed before the error is returned. The logger
// may be nil; it only receives debug-level packet traces.
func NewSession(conn net.Conn, password string, timeout time.Duration, logger *slog.Logger) (*Session, error) {
	s := &Session{
		conn:    conn,
		state:   stateUnauthenticated,
		nextID:  1,
		timeout: timeout,
		logger:  logger,
	}
	if err := s.authenticate(password); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close shuts the underlying connection down. It is safe to call multiple
// times.
func (s *Session) Close() error {
	if s.state == stateClosed {
		return nil
	}
	s.state = stateClosed
	return s.conn.Close()
}

// allocID returns a fresh request id. Ids are positive and unique per
// in-flight exchange; the counter wraps from the int32 maximum back to 1 so
// it can never collide with the server's -1 auth-failure sentinel.
func (s *Session) allocID() int32 {
	id := s.nextID
	if s.nextID == math.MaxInt32 {
		s.nextID = 1
	} else {
		s.nextID++
	}
	return id
}

// authenticate runs the login handshake: send the password in an Auth
// packet, then judge the session by the server's very first reply. Anything
// other than an AuthResponse before authentication completes indicates a
// server or protocol mismatch and is not silently discarded.
func (s *Session) authenticate(password string) error {
	authID := s.allocID()
	req := Packet{ID: authID, Type: PacketTypeAuth, Body: []byte(password)}
	if err := s.writePacket(req); err != nil {
		return err
	}

	resp, err := s.readPacket()
	if err != nil {
		return err
	}
	if resp.Type != PacketTypeAuthResponse {
		return fmt.Errorf("%w: packet type %d before auth completed", ErrProtocolViolation, resp.Type)
	}

	switch resp.ID {
	case authID:
		s.state = stateAuthenticated
		return nil
	case -1:
		// The connection stays open per protocol but is unusable.
		return ErrAuthFailed
	default:
		return fmt.Errorf("%w: auth response for unknown id %d", ErrProtocolViolation, resp.ID)
	}
}

// Execute runs one command exchange and returns the reassembled response
// body. The protocol has no end-of-response marker, so the session sends an
// empty follow-up ExecCommand with the same request id right after the real
// one: the server answers the command with one or more ResponseValue
// packets and then answers the follow-up with a single empty ResponseValue,
// which acts as the end-of-response sentinel.
//
// On any error the session transitions to its terminal closed state; retry
// and reconnect policy belongs to [Client].
func (s *Session) Execute(ctx context.Context, command string) ([]byte, error) {
	if s.state != stateAuthenticated {
		return nil, fmt.Errorf("%w: execute on unauthenticated session", ErrProtocolViolation)
	}

	stop := s.watchContext(ctx)
	defer stop()

	rid := s.allocID()
	body, err := s.exchange(rid, command)
	if err != nil {
		s.Close()
		if ctx.Err() != nil {
			// A canceled exchange leaves a partially drained response
			// stream behind; the connection cannot be resumed.
			return nil, fmt.Errorf("rcon: execute aborted: %w", ctx.Err())
		}
		return nil, err
	}
	return body, nil
}

func (s *Session) exchange(rid int32, command string) ([]byte, error) {
	err := s.writePacket(Packet{ID: rid, Type: PacketTypeExecCommand, Body: []byte(command)})
	if err != nil {
		return nil, err
	}
	// The empty follow-up that produces the reassembly sentinel.
	err = s.writePacket(Packet{ID: rid, Type: PacketTypeExecCommand})
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	for {
		resp, err := s.readPacket()
		if err != nil {
			return nil, err
		}
		if resp.ID != rid {
			// No other request is pending on this connection, so a foreign
			// id can only mean the server lost framing.
			return nil, fmt.Errorf("%w: response id %d, want %d", ErrProtocolViolation, resp.ID, rid)
		}
		if resp.Type != PacketTypeResponseValue {
			return nil, fmt.Errorf("%w: packet type %d during command exchange", ErrProtocolViolation, resp.Type)
		}
		if len(resp.Body) == 0 {
			// The sentinel itself is discarded, not appended.
			return body.Bytes(), nil
		}
		body.Write(resp.Body)
	}
}

// writePacket encodes and sends one packet under the session's deadline.
func (s *Session) writePacket(p Packet) error {
	s.logPacket("rcon: sending packet", p)

	bs, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionLost, err)
	}
	if _, err := s.conn.Write(bs); err != nil {
		return s.ioError(err)
	}
	return nil
}

// readPacket returns the next packet from the connection, reading as many
// times as fragmentation requires. Each individual read is bounded by the
// session's deadline.
func (s *Session) readPacket() (*Packet, error) {
	scratch := make([]byte, MaxPacketSize+4)
	for {
		p, err := s.dec.Next()
		if err != nil {
			return nil, err
		}
		if p != nil {
			s.logPacket("rcon: received packet", *p)
			return p, nil
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionLost, err)
		}
		n, err := s.conn.Read(scratch)
		if n > 0 {
			s.dec.Feed(scratch[:n])
		}
		if err != nil && n == 0 {
			return nil, s.ioError(err)
		}
	}
}

// ioError maps raw socket errors onto the package taxonomy.
func (s *Session) ioError(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return fmt.Errorf("%w after %s", ErrTimeout, s.timeout)
	}
	return fmt.Errorf("%w: %v", ErrConnectionLost, err)
}

// watchContext unblocks pending socket I/O when ctx is canceled by moving
// the connection deadline into the past. The returned stop function must be
// called once the exchange settles.
func (s *Session) watchContext(ctx context.Context) func() {
	if ctx.Done() == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.SetDeadline(time.Now())
		case <-done:
		}
	}()
	return func() { close(done) }
}

// logPacket emits a debug trace of one packet. Outbound auth packets are
// scrubbed so the server password never reaches the logs.
func (s *Session) logPacket(msg string, p Packet) {
	if s.logger == nil || !s.logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	if p.Type == PacketTypeAuth {
		p.Body = []byte("xxxxx")
	}
	bs, err := p.MarshalBinary()
	if err != nil {
		return
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, msg,
		slog.String("packet", hex.EncodeToString(bs)))
}
