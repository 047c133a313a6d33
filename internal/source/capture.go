package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Capture format: line-oriented text.
//
// - Blank lines ignored.
// - Lines starting with '#' ignored.
// - Line "START" resets the origin (next record time is relative to 0 again).
// - Data lines are: <t_ns>,<sentence>
//   where t_ns is nanoseconds since START and sentence is the raw line as
//   received. Only the first comma separates the fields.

// Record is one captured line. A START marker has an empty Line.
type Record struct {
	At   time.Duration
	Line string
}

func (r Record) isStart() bool { return r.Line == "" }

type CaptureReader struct {
	r io.Reader
}

func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{r: r}
}

func (cr *CaptureReader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(cr.r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{})
			continue
		}

		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("invalid capture line (missing comma): %q", line)
		}
		tsStr := strings.TrimSpace(line[:comma])
		sentence := strings.TrimSpace(line[comma+1:])
		if tsStr == "" || sentence == "" {
			return nil, fmt.Errorf("invalid capture line (empty field): %q", line)
		}

		tsNs, err := strconv.ParseInt(tsStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid capture timestamp %q: %w", tsStr, err)
		}
		if tsNs < 0 {
			return nil, fmt.Errorf("invalid capture timestamp (negative): %d", tsNs)
		}
		recs = append(recs, Record{At: time.Duration(tsNs), Line: sentence})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

// CaptureWriter records lines with their arrival time.
type CaptureWriter struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

// CreateCapture creates (or truncates) a capture file. With appendMode an
// existing file is kept and a new START section is added.
func CreateCapture(path string, appendMode bool) (*CaptureWriter, error) {
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &CaptureWriter{f: f, w: bw, start: time.Now()}, nil
}

func (cw *CaptureWriter) WriteLine(now time.Time, line string) error {
	if cw.closed {
		return errors.New("capture writer is closed")
	}
	if line == "" {
		return errors.New("line is empty")
	}
	if strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("line contains a newline: %q", line)
	}

	d := now.Sub(cw.start)
	if d < 0 {
		d = 0
	}
	_, err := fmt.Fprintf(cw.w, "%d,%s\n", d.Nanoseconds(), line)
	return err
}

func (cw *CaptureWriter) Flush() error {
	if cw.closed {
		return nil
	}
	return cw.w.Flush()
}

func (cw *CaptureWriter) Close() error {
	if cw.closed {
		return nil
	}
	cw.closed = true
	if err := cw.w.Flush(); err != nil {
		_ = cw.f.Close()
		return err
	}
	return cw.f.Close()
}

// LineSource is what Tee wraps. It matches dispatch.LineSource.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

type tee struct {
	src LineSource
	w   *CaptureWriter
	log *slog.Logger
	now func() time.Time
}

// Tee records every line read from src into w. A failed write is logged and
// the line is passed on regardless.
func Tee(src LineSource, w *CaptureWriter, logger *slog.Logger) LineSource {
	if logger == nil {
		logger = slog.Default().With("component", "capture")
	}
	return &tee{src: src, w: w, log: logger, now: time.Now}
}

func (t *tee) ReadLine(ctx context.Context) (string, error) {
	line, err := t.src.ReadLine(ctx)
	if err != nil || line == "" {
		return line, err
	}
	if werr := t.w.WriteLine(t.now(), line); werr != nil {
		t.log.Warn("capture write failed", "error", werr)
	}
	return line, nil
}

// Sleeper waits between replayed records.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Replay plays captured records back with their relative timing.
//
// speed: 1.0 = real time, 2.0 = 2x speed (half waits), 0.5 = half speed.
// START markers reset the origin.
type Replay struct {
	records []Record
	speed   float64
	loop    bool
	sleeper Sleeper

	next     int
	lastAt   time.Duration
	origin   time.Duration
	haveLast bool
}

func NewReplay(records []Record, speed float64, loop bool, sleeper Sleeper) (*Replay, error) {
	if speed <= 0 {
		return nil, fmt.Errorf("replay speed must be > 0")
	}
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	n := 0
	for _, r := range records {
		if !r.isStart() {
			n++
		}
	}
	if n == 0 {
		return nil, errors.New("no records")
	}
	return &Replay{records: records, speed: speed, loop: loop, sleeper: sleeper}, nil
}

// OpenReplay reads a capture file for replay.
func OpenReplay(path string, speed float64, loop bool) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := NewCaptureReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", path, err)
	}
	return NewReplay(recs, speed, loop, nil)
}

func (p *Replay) ReadLine(ctx context.Context) (string, error) {
	for {
		if p.next >= len(p.records) {
			if !p.loop {
				return "", io.EOF
			}
			p.next = 0
			p.origin = 0
			p.haveLast = false
		}
		r := p.records[p.next]
		if r.isStart() {
			p.origin = r.At
			p.lastAt = 0
			p.haveLast = false
			p.next++
			continue
		}

		at := r.At - p.origin
		if at < 0 {
			at = 0
		}
		if p.haveLast {
			wait := at - p.lastAt
			if wait < 0 {
				wait = 0
			}
			wait = time.Duration(float64(wait) / p.speed)
			if wait > 0 {
				if err := p.sleeper.Sleep(ctx, wait); err != nil {
					return "", err
				}
			}
		}

		p.next++
		p.lastAt = at
		p.haveLast = true
		return r.Line, nil
	}
}
