package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// maxDatagram is the largest UDP payload accepted. Senders pack one or more
// sentences per datagram.
const maxDatagram = 64 * 1024

type udpConn interface {
	ReadFromUDP(b []byte) (int, *net.UDPAddr, error)
	SetReadDeadline(t time.Time) error
	LocalAddr() net.Addr
	Close() error
}

// UDPListener receives NMEA datagrams, as sent by phone GNSS apps and marine
// multiplexers.
type UDPListener struct {
	conn    udpConn
	buf     []byte
	pending []string
}

func ListenUDP(addr string) (*UDPListener, error) {
	return listenUDP(addr, net.ResolveUDPAddr, func(network string, laddr *net.UDPAddr) (udpConn, error) {
		return net.ListenUDP(network, laddr)
	})
}

func listenUDP(
	addr string,
	resolve func(network, address string) (*net.UDPAddr, error),
	listen func(network string, laddr *net.UDPAddr) (udpConn, error),
) (*UDPListener, error) {
	laddr, err := resolve("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen addr: %w", err)
	}
	conn, err := listen("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("listen udp: %w", err)
	}
	return &UDPListener{conn: conn, buf: make([]byte, maxDatagram)}, nil
}

func (l *UDPListener) Addr() net.Addr { return l.conn.LocalAddr() }

// ReadLine returns the next line of the current datagram, receiving a new one
// when it is used up. A closed listener reports io.EOF.
func (l *UDPListener) ReadLine(ctx context.Context) (string, error) {
	for len(l.pending) == 0 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		stop := context.AfterFunc(ctx, func() {
			_ = l.conn.SetReadDeadline(time.Now())
		})
		n, _, err := l.conn.ReadFromUDP(l.buf)
		stop()
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				_ = l.conn.SetReadDeadline(time.Time{})
				return "", cerr
			}
			if errors.Is(err, net.ErrClosed) {
				return "", io.EOF
			}
			return "", err
		}
		for _, line := range strings.Split(string(l.buf[:n]), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				l.pending = append(l.pending, line)
			}
		}
	}
	line := l.pending[0]
	l.pending = l.pending[1:]
	return line, nil
}

func (l *UDPListener) Close() error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Close()
}
