// Package status probes the Minecraft game port to determine whether the
// server is reachable at all, independently of the RCON channel.
package status

import (
	"net"
	"time"
)

const probeTimeout = 3 * time.Second

// Checker probes a TCP endpoint.
type Checker struct {
	addr string
}

// NewChecker returns a checker for the given host:port. An empty address
// yields a checker whose probes always fail.
func NewChecker(addr string) *Checker {
	return &Checker{addr: addr}
}

// Ping attempts a TCP connection to the game port.
func (c *Checker) Ping() error {
	conn, err := net.DialTimeout("tcp", c.addr, probeTimeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

// Check returns a human-readable status string for chat-facing output.
func (c *Checker) Check() string {
	if err := c.Ping(); err != nil {
		return "offline"
	}
	return "online"
}
