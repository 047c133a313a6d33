package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Serial reads NMEA from a USB or UART receiver.
type Serial struct {
	device string
	baud   int

	mu sync.Mutex
	f  *os.File
	br *bufio.Reader
}

// OpenSerial opens device in raw mode. An empty device is auto-detected and a
// zero baud defaults to 9600.
func OpenSerial(device string, baud int) (*Serial, error) {
	if device == "" {
		device = AutoDetectDevice()
		if device == "" {
			return nil, fmt.Errorf("serial auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
		}
	}
	if baud == 0 {
		baud = 9600
	}
	f, err := openSerial(device, baud)
	if err != nil {
		return nil, fmt.Errorf("serial open failed device=%s baud=%d: %w", device, baud, err)
	}
	return &Serial{device: device, baud: baud, f: f, br: bufio.NewReaderSize(f, 4096)}, nil
}

func (s *Serial) Device() string { return s.device }

// ReadLine returns the next line. Cancelling ctx interrupts a blocked read.
func (s *Serial) ReadLine(ctx context.Context) (string, error) {
	s.mu.Lock()
	f := s.f
	s.mu.Unlock()
	if f == nil {
		return "", os.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = f.SetReadDeadline(time.Now())
	})
	defer stop()

	line, err := readLine(s.br, DefaultMaxLineBytes)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) && ctx.Err() != nil {
		_ = f.SetReadDeadline(time.Time{})
		return "", ctx.Err()
	}
	return line, err
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// AutoDetectDevice returns the first USB serial device present, or "".
func AutoDetectDevice() string {
	return detectDevice(func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})
}

func detectDevice(exists func(string) bool) string {
	candidates := []string{}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if exists(p) {
			return p
		}
	}
	return ""
}
