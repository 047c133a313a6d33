package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nmea-ng/internal/dispatch"
)

// DefaultMaxLineBytes bounds one line. NMEA sentences are at most 82 bytes on
// the wire, so anything near this is garbage and is truncated.
const DefaultMaxLineBytes = 4096

// Reader reads lines from an io.Reader.
type Reader struct {
	br     *bufio.Reader
	max    int
	closer io.Closer
}

func NewReader(r io.Reader, maxLineBytes int) *Reader {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &Reader{br: bufio.NewReaderSize(r, 4096), max: maxLineBytes}
}

// OpenFile reads lines from the file at path. "-" is stdin.
func OpenFile(path string) (*Reader, error) {
	if path == "-" {
		return NewReader(os.Stdin, 0), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f, 0)
	r.closer = f
	return r, nil
}

// ReadLine returns the next line. A blocked read is not interrupted by ctx.
// A file or pipe does not recover from a read error, so any error other than
// io.EOF wraps dispatch.ErrSourceFailed.
func (r *Reader) ReadLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := readLine(r.br, r.max)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: %w", dispatch.ErrSourceFailed, err)
	}
	return line, err
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// readLine reads up to the next '\n'. Bytes past max are discarded so an
// endless line cannot grow memory; the truncated line then fails its
// checksum downstream.
func readLine(br *bufio.Reader, max int) (string, error) {
	var buf []byte
	read := false
	for {
		frag, isPrefix, err := br.ReadLine()
		if err != nil {
			if read && err == io.EOF {
				return strings.TrimSpace(string(buf)), nil
			}
			return "", err
		}
		read = true
		if room := max - len(buf); room > 0 {
			if len(frag) > room {
				frag = frag[:room]
			}
			buf = append(buf, frag...)
		}
		if !isPrefix {
			return strings.TrimSpace(string(buf)), nil
		}
	}
}
