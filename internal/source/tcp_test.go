package source

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

const testGGA = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"

// serveOnce accepts one connection, reports the first line the client sends
// and writes lines back.
func serveOnce(t *testing.T, lines []string, hold bool) (string, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	hello := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		first, _ := bufio.NewReader(conn).ReadString('\n')
		hello <- first
		for _, l := range lines {
			if _, err := conn.Write([]byte(l + "\r\n")); err != nil {
				return
			}
		}
		if hold {
			time.Sleep(time.Second)
		}
	}()
	return ln.Addr().String(), hello
}

func TestGPSD_WatchesNMEAAndSkipsJSON(t *testing.T) {
	addr, hello := serveOnce(t, []string{
		`{"class":"VERSION","release":"3.25"}`,
		`{"class":"DEVICES","devices":[]}`,
		testGGA,
	}, false)

	c, err := NewGPSD(addr)
	if err != nil {
		t.Fatalf("NewGPSD: %v", err)
	}
	defer c.Close()

	line, err := c.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != testGGA {
		t.Fatalf("line=%q want %q", line, testGGA)
	}
	if got := <-hello; got != gpsdWatchNMEA {
		t.Fatalf("hello=%q want %q", got, gpsdWatchNMEA)
	}

	// The server hangs up after its lines: that is transient, not end of stream.
	_, err = c.ReadLine(context.Background())
	if !errors.Is(err, ErrDisconnected) {
		t.Fatalf("err=%v want %v", err, ErrDisconnected)
	}
	if errors.Is(err, io.EOF) {
		t.Fatalf("disconnect must not look like end of stream")
	}

	snap := c.Snapshot()
	if snap.State != "disconnected" {
		t.Fatalf("state=%q want disconnected", snap.State)
	}
	if snap.Lines != 1 {
		t.Fatalf("lines=%d want 1", snap.Lines)
	}
}

func TestTCPClient_CancelInterruptsRead(t *testing.T) {
	addr, _ := serveOnce(t, nil, true)
	c, err := NewTCPClient(TCPConfig{Name: "t", Addr: addr, Hello: "hi\n"})
	if err != nil {
		t.Fatalf("NewTCPClient: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ReadLine(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err=%v want %v", err, context.DeadlineExceeded)
	}
}

func TestTCPClient_ClosedIsEOF(t *testing.T) {
	c, err := NewTCPClient(TCPConfig{Addr: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewTCPClient: %v", err)
	}
	_ = c.Close()
	if _, err := c.ReadLine(context.Background()); err != io.EOF {
		t.Fatalf("err=%v want EOF", err)
	}
	if snap := c.Snapshot(); snap.State != "stopped" {
		t.Fatalf("state=%q want stopped", snap.State)
	}
}

func TestTCPClient_RequiresAddr(t *testing.T) {
	if _, err := NewTCPClient(TCPConfig{Name: "t"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestTCPClient_setState_ClearsStaleErrorOnConnected(t *testing.T) {
	c, err := NewTCPClient(TCPConfig{Name: "t", Addr: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewTCPClient: %v", err)
	}

	c.setState("error", "dial tcp: connection refused")
	c.setState("connected", "")

	snap := c.Snapshot()
	if snap.State != "connected" {
		t.Fatalf("state=%q want %q", snap.State, "connected")
	}
	if snap.LastError != "" {
		t.Fatalf("last_error=%q want empty", snap.LastError)
	}
}
