// Package forward re-sends validated NMEA sentences to other consumers, such
// as a chart plotter or EFB app listening for NMEA over UDP.
package forward

import (
	"fmt"
	"net"
	"strings"
	"sync/atomic"
)

type udpConn interface {
	Write([]byte) (int, error)
	Close() error
}

// UDP writes each sentence line, CRLF terminated, as its own datagram.
type UDP struct {
	dest  string
	conn  udpConn
	sent  atomic.Uint64
	fails atomic.Uint64
}

func NewUDP(dest string) (*UDP, error) {
	return newUDP(dest, net.ResolveUDPAddr, func(network string, laddr, raddr *net.UDPAddr) (udpConn, error) {
		return net.DialUDP(network, laddr, raddr)
	})
}

func newUDP(
	dest string,
	resolve func(network, address string) (*net.UDPAddr, error),
	dial func(network string, laddr, raddr *net.UDPAddr) (udpConn, error),
) (*UDP, error) {
	addr, err := resolve("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := dial("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}
	return &UDP{dest: dest, conn: conn}, nil
}

func (u *UDP) Dest() string { return u.dest }

// Send forwards text, which holds one or more sentence lines separated by
// "\n" (a reassembled GSV group). It stops at the first failed write.
func (u *UDP) Send(text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := u.conn.Write([]byte(line + "\r\n")); err != nil {
			u.fails.Add(1)
			return fmt.Errorf("forward to %s: %w", u.dest, err)
		}
		u.sent.Add(1)
	}
	return nil
}

// Snapshot reports datagram counters for the status page.
type Snapshot struct {
	Dest   string `json:"dest"`
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

func (u *UDP) Snapshot() Snapshot {
	return Snapshot{Dest: u.dest, Sent: u.sent.Load(), Failed: u.fails.Load()}
}

func (u *UDP) Close() error {
	if u.conn == nil {
		return nil
	}
	return u.conn.Close()
}
