package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	gpsdDefaultAddr = "127.0.0.1:2947"

	// gpsdWatchNMEA asks gpsd for the raw sentences it receives instead of
	// its JSON reports.
	gpsdWatchNMEA = "?WATCH={\"enable\":true,\"nmea\":true}\n"
)

// ErrDisconnected is returned when the peer closes the connection. The next
// ReadLine reconnects.
var ErrDisconnected = errors.New("source: connection closed by peer")

type TCPConfig struct {
	Name string
	Addr string

	MaxLineBytes int
	// DialTimeout is used for each connect attempt.
	DialTimeout time.Duration

	// Hello is written after every connect.
	Hello string
	// SentencesOnly drops lines that do not start with '$', such as the
	// JSON banner gpsd sends before the NMEA stream.
	SentencesOnly bool
}

// TCPClient reads newline-delimited lines from a TCP endpoint. It connects on
// the first ReadLine and reconnects on the ReadLine after a failure; pacing
// reconnects is left to the caller's retry backoff.
type TCPClient struct {
	cfg TCPConfig

	mu       sync.Mutex
	conn     net.Conn
	br       *bufio.Reader
	closed   bool
	state    string
	lastErr  string
	lastSeen time.Time
	count    uint64
}

// TCPSnapshot reports the connection state for status pages.
type TCPSnapshot struct {
	Name        string `json:"name"`
	Addr        string `json:"addr"`
	State       string `json:"state"`
	LastError   string `json:"last_error,omitempty"`
	LastSeenUTC string `json:"last_seen_utc,omitempty"`
	Lines       uint64 `json:"lines"`
}

func NewTCPClient(cfg TCPConfig) (*TCPClient, error) {
	if cfg.Name == "" {
		cfg.Name = "tcp"
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("tcp source addr is required")
	}
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	return &TCPClient{cfg: cfg, state: "stopped"}, nil
}

// NewGPSD returns a client that puts gpsd into raw NMEA watch mode.
func NewGPSD(addr string) (*TCPClient, error) {
	if strings.TrimSpace(addr) == "" {
		addr = gpsdDefaultAddr
	}
	return NewTCPClient(TCPConfig{
		Name:          "gpsd",
		Addr:          addr,
		Hello:         gpsdWatchNMEA,
		SentencesOnly: true,
	})
}

func (c *TCPClient) ReadLine(ctx context.Context) (string, error) {
	for {
		conn, br, err := c.connection(ctx)
		if err != nil {
			return "", err
		}

		stop := context.AfterFunc(ctx, func() {
			_ = conn.SetReadDeadline(time.Now())
		})
		line, err := readLine(br, c.cfg.MaxLineBytes)
		stop()

		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				_ = conn.SetReadDeadline(time.Time{})
				return "", cerr
			}
			c.drop(conn, err)
			if errors.Is(err, io.EOF) {
				err = ErrDisconnected
			}
			if c.isClosed() {
				return "", io.EOF
			}
			return "", fmt.Errorf("%s read: %w", c.cfg.Name, err)
		}
		if line == "" {
			continue
		}
		if c.cfg.SentencesOnly && !strings.HasPrefix(line, "$") {
			continue
		}

		c.mu.Lock()
		c.lastSeen = time.Now().UTC()
		c.count++
		c.mu.Unlock()
		return line, nil
	}
}

// connection returns the live connection, dialling if there is none.
func (c *TCPClient) connection(ctx context.Context) (net.Conn, *bufio.Reader, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, io.EOF
	}
	if c.conn != nil {
		conn, br := c.conn, c.br
		c.mu.Unlock()
		return conn, br, nil
	}
	c.mu.Unlock()

	c.setState("connecting", "")
	dialer := &net.Dialer{Timeout: c.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr)
	if err != nil {
		c.setState("error", err.Error())
		return nil, nil, fmt.Errorf("%s dial %s: %w", c.cfg.Name, c.cfg.Addr, err)
	}
	if c.cfg.Hello != "" {
		if _, err := conn.Write([]byte(c.cfg.Hello)); err != nil {
			_ = conn.Close()
			c.setState("error", err.Error())
			return nil, nil, fmt.Errorf("%s hello: %w", c.cfg.Name, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		_ = conn.Close()
		return nil, nil, io.EOF
	}
	c.conn = conn
	c.br = bufio.NewReaderSize(conn, 4096)
	c.setStateLocked("connected", "")
	return c.conn, c.br, nil
}

func (c *TCPClient) drop(conn net.Conn, err error) {
	_ = conn.Close()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
		c.br = nil
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) {
		c.setStateLocked("disconnected", "")
	} else {
		c.setStateLocked("disconnected", err.Error())
	}
}

func (c *TCPClient) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close ends the stream; ReadLine returns io.EOF from then on.
func (c *TCPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.setStateLocked("stopped", "")
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.br = nil
	return err
}

func (c *TCPClient) Snapshot() TCPSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := TCPSnapshot{
		Name:      c.cfg.Name,
		Addr:      c.cfg.Addr,
		State:     c.state,
		LastError: c.lastErr,
		Lines:     c.count,
	}
	if !c.lastSeen.IsZero() {
		out.LastSeenUTC = c.lastSeen.Format(time.RFC3339Nano)
	}
	return out
}

func (c *TCPClient) setState(state string, lastErr string) {
	c.mu.Lock()
	c.setStateLocked(state, lastErr)
	c.mu.Unlock()
}

func (c *TCPClient) setStateLocked(state string, lastErr string) {
	c.state = state
	if lastErr != "" {
		c.lastErr = lastErr
		return
	}
	// Clear stale errors on healthy/neutral states so status output doesn't
	// look broken after a transient startup failure.
	if state == "connected" || state == "connecting" || state == "stopped" {
		c.lastErr = ""
	}
}
