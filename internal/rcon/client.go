package rcon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultTimeout bounds dialing and every individual socket read or write
// when the [Config] leaves the corresponding field zero.
const DefaultTimeout = 10 * time.Second

// Config carries the connection settings for a [Client].
type Config struct {
	// Addr is the host:port of the RCON endpoint.
	Addr string

	// Password is sent during the authentication handshake. Minecraft
	// requires a non-empty rcon.password for the port to be open at all.
	Password string

	// DialTimeout bounds connection establishment. Zero means
	// [DefaultTimeout].
	DialTimeout time.Duration

	// Timeout bounds every socket read and write. Zero means
	// [DefaultTimeout].
	Timeout time.Duration

	// Logger receives debug-level packet traces. May be nil.
	Logger *slog.Logger
}

// Client is the public face of the package: it lazily dials and
// authenticates a [Session], reuses it across calls and replaces it after
// failures. On a transient connection loss mid-command it reconnects and
// retries the command exactly once, absorbing idle-connection drops from
// the server without masking persistent outages. Authentication failures
// are never retried.
//
// Client is safe for concurrent use; calls are serialized because the
// protocol allows only one exchange in flight per connection.
type Client struct {
	cfg Config

	mu     sync.Mutex
	sess   *Session
	closed bool
}

// NewClient returns a client for the given endpoint. No connection is made
// until the first Execute call.
func NewClient(cfg Config) *Client {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultTimeout
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{cfg: cfg}
}

// Execute runs command on the server and returns the reassembled response
// text, lossily decoded as UTF-8. It implements domain.CommandExecutor.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	if command == "" {
		return "", errors.New("rcon: empty command")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	sess, err := c.session(ctx)
	if err != nil {
		return "", err
	}

	body, err := sess.Execute(ctx, command)
	if err == nil {
		return sanitize(body), nil
	}
	c.sess = nil

	// A single reconnect-and-retry absorbs servers that drop idle
	// connections. Anything but a connection loss surfaces immediately.
	if !errors.Is(err, ErrConnectionLost) || ctx.Err() != nil {
		return "", err
	}

	sess, err = c.session(ctx)
	if err != nil {
		return "", err
	}
	body, err = sess.Execute(ctx, command)
	if err != nil {
		c.sess = nil
		return "", err
	}
	return sanitize(body), nil
}

// Close tears down the live session, if any. The client refuses further
// calls afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.sess = nil
	return err
}

// session returns the live session or establishes a new one. Callers hold
// c.mu.
func (c *Client) session(ctx context.Context) (*Session, error) {
	if c.sess != nil {
		return c.sess, nil
	}

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnreachable, c.cfg.Addr, err)
	}

	sess, err := NewSession(conn, c.cfg.Password, c.cfg.Timeout, c.cfg.Logger)
	if err != nil {
		return nil, err
	}
	c.sess = sess
	return sess, nil
}

// sanitize converts a raw response body to valid UTF-8, replacing invalid
// sequences with the Unicode replacement rune. Payloads stay otherwise
// opaque; the bridge never interprets command output.
func sanitize(body []byte) string {
	return strings.ToValidUTF8(string(body), string(utf8.RuneError))
}
