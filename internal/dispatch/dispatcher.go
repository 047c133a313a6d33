package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"nmea-ng/internal/nmea"
)

// LineSource yields one line per call. io.EOF ends the stream and an error
// wrapping ErrSourceFailed ends it with that error; any other error is
// treated as transient and the read is retried.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// ErrSourceFailed marks a read error that retrying cannot fix, such as a
// failed read from a file or pipe.
var ErrSourceFailed = errors.New("source failed")

// Message is one complete sentence. Text holds every line of the sentence
// separated by "\n" and is ready for nmea.Decode.
type Message struct {
	Talker     nmea.Talker     `json:"talker"`
	Identifier nmea.Identifier `json:"identifier"`
	Text       string          `json:"text"`
	Lines      int             `json:"lines"`
}

// Drop reasons reported in Stats and metrics. Checksum, classify, header,
// sequence and decode count lines; collision, abandoned and incomplete count
// pending groups thrown away.
const (
	ReasonChecksum   = "checksum"
	ReasonClassify   = "classify"
	ReasonHeader     = "header"
	ReasonSequence   = "sequence"
	ReasonCollision  = "collision"
	ReasonAbandoned  = "abandoned"
	ReasonIncomplete = "incomplete"
	ReasonDecode     = "decode"
)

var reasons = []string{
	ReasonChecksum, ReasonClassify, ReasonHeader, ReasonSequence,
	ReasonCollision, ReasonAbandoned, ReasonIncomplete, ReasonDecode,
}

type Options struct {
	Logger  *slog.Logger
	Metrics *Metrics

	// RetryDelay is the first wait after a source error. It doubles on each
	// consecutive failure up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration

	// HistorySize is the number of rejected lines kept for Stats.
	HistorySize int
}

type groupKey struct {
	talker nmea.Talker
	id     nmea.Identifier
}

type group struct {
	expected int
	lines    []string
}

// Dispatcher reads lines from one source. It is not safe for concurrent use,
// except for Stats which may be called from any goroutine.
type Dispatcher struct {
	src     LineSource
	log     *slog.Logger
	metrics *Metrics

	retryDelay    time.Duration
	maxRetryDelay time.Duration

	pending map[groupKey]*group
	done    bool

	history *history
	lines   atomic.Uint64
	emitted atomic.Uint64
	skipped atomic.Uint64
	retries atomic.Uint64
	npend   atomic.Int64
	dropped map[string]*atomic.Uint64
}

func New(src LineSource, opts Options) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = slog.Default().With("component", "dispatch")
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 250 * time.Millisecond
	}
	if opts.MaxRetryDelay < opts.RetryDelay {
		opts.MaxRetryDelay = 10 * time.Second
		if opts.MaxRetryDelay < opts.RetryDelay {
			opts.MaxRetryDelay = opts.RetryDelay
		}
	}
	if opts.HistorySize == 0 {
		opts.HistorySize = 64
	}
	d := &Dispatcher{
		src:           src,
		log:           log,
		metrics:       opts.Metrics,
		retryDelay:    opts.RetryDelay,
		maxRetryDelay: opts.MaxRetryDelay,
		pending:       make(map[groupKey]*group),
		history:       newHistory(opts.HistorySize, 0),
		dropped:       make(map[string]*atomic.Uint64, len(reasons)),
	}
	for _, r := range reasons {
		d.dropped[r] = new(atomic.Uint64)
	}
	return d
}

// Next returns the next complete message.
//
// When the source ends while groups are still pending, those groups are
// discarded and Next returns an error wrapping nmea.ErrIncompleteGroup; the
// call after that returns io.EOF. A cancelled ctx returns ctx.Err() and a
// terminal source error (ErrSourceFailed) is returned without retrying.
func (d *Dispatcher) Next(ctx context.Context) (Message, error) {
	backoff := d.retryDelay
	for {
		if d.done {
			return Message{}, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return Message{}, err
		}

		line, err := d.src.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Message{}, d.finish()
			}
			if cerr := ctx.Err(); cerr != nil {
				return Message{}, cerr
			}
			if errors.Is(err, ErrSourceFailed) {
				d.log.Error("nmea source failed", "error", err)
				return Message{}, err
			}
			d.retries.Add(1)
			d.metrics.retry()
			d.log.Warn("nmea source read failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return Message{}, ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < d.maxRetryDelay {
				backoff *= 2
				if backoff > d.maxRetryDelay {
					backoff = d.maxRetryDelay
				}
			}
			continue
		}
		backoff = d.retryDelay

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		d.lines.Add(1)
		d.metrics.line()

		if msg, ok := d.handle(line); ok {
			d.emitted.Add(1)
			d.metrics.emit(msg)
			return msg, nil
		}
	}
}

func (d *Dispatcher) finish() error {
	d.done = true
	n := len(d.pending)
	if n == 0 {
		return io.EOF
	}
	for k, g := range d.pending {
		d.log.Warn("nmea group incomplete at end of input",
			"talker", k.talker, "identifier", k.id, "have", len(g.lines), "want", g.expected)
		d.countDrop(ReasonIncomplete)
	}
	clear(d.pending)
	d.syncPending()
	return fmt.Errorf("%w: %d group(s) pending at end of input", nmea.ErrIncompleteGroup, n)
}

func (d *Dispatcher) handle(line string) (Message, bool) {
	if err := nmea.ValidateChecksum(line); err != nil {
		d.reject(line, ReasonChecksum, err)
		// A damaged line may still belong to a group. The group cannot
		// complete correctly any more, so forget it.
		if t, id, cerr := nmea.Classify(line); cerr == nil && id.MultiLine() {
			d.abandon(groupKey{talker: t, id: id}, ReasonChecksum)
		}
		return Message{}, false
	}

	talker, id, err := nmea.Classify(line)
	if err != nil {
		d.reject(line, ReasonClassify, err)
		return Message{}, false
	}
	if id == nmea.IdentifierUnknown {
		d.skipped.Add(1)
		d.metrics.skip()
		d.log.Debug("nmea sentence skipped", "line", line)
		return Message{}, false
	}
	if !id.MultiLine() {
		return Message{Talker: talker, Identifier: id, Text: line, Lines: 1}, true
	}
	return d.collect(groupKey{talker: talker, id: id}, line)
}

// collect adds one line to the group for key and returns the message when
// the group is complete.
func (d *Dispatcher) collect(key groupKey, line string) (Message, bool) {
	h, err := nmea.ParseGSVHeader(line)
	if err != nil {
		d.reject(line, ReasonHeader, err)
		d.abandon(key, ReasonHeader)
		return Message{}, false
	}
	expected := nmea.ExpectedLines(h.SatellitesInView)
	defer d.syncPending()

	g := d.pending[key]
	if h.Number == 1 {
		if g != nil {
			d.log.Warn("nmea group restarted before completion",
				"talker", key.talker, "identifier", key.id, "have", len(g.lines), "want", g.expected)
			d.countDrop(ReasonCollision)
		}
		g = &group{expected: expected, lines: make([]string, 0, expected)}
		d.pending[key] = g
	} else if g == nil || h.Number != len(g.lines)+1 || expected != g.expected {
		d.reject(line, ReasonSequence, fmt.Errorf("line %d of %d does not continue the pending group", h.Number, h.Total))
		d.abandon(key, ReasonSequence)
		return Message{}, false
	}

	g.lines = append(g.lines, line)
	if len(g.lines) < g.expected {
		return Message{}, false
	}
	delete(d.pending, key)
	return Message{
		Talker:     key.talker,
		Identifier: key.id,
		Text:       strings.Join(g.lines, "\n"),
		Lines:      len(g.lines),
	}, true
}

// abandon forgets the pending group for key after one of its lines turned
// out unusable. cause is the reason the line itself was rejected.
func (d *Dispatcher) abandon(key groupKey, cause string) {
	g, ok := d.pending[key]
	if !ok {
		return
	}
	d.log.Warn("nmea pending group dropped",
		"talker", key.talker, "identifier", key.id, "cause", cause, "have", len(g.lines), "want", g.expected)
	delete(d.pending, key)
	d.countDrop(ReasonAbandoned)
	d.syncPending()
}

func (d *Dispatcher) reject(line, reason string, err error) {
	d.log.Warn("nmea line rejected", "reason", reason, "error", err, "line", line)
	d.countDrop(reason)
	r := Rejected{Time: time.Now().UTC(), Line: line, Reason: reason}
	if err != nil {
		r.Error = err.Error()
	}
	d.history.add(r)
}

func (d *Dispatcher) countDrop(reason string) {
	if c, ok := d.dropped[reason]; ok {
		c.Add(1)
	}
	d.metrics.drop(reason)
}

func (d *Dispatcher) syncPending() {
	d.npend.Store(int64(len(d.pending)))
	d.metrics.setPending(len(d.pending))
}

// Run calls fn for every message until the source ends or fn returns an
// error. An incomplete group at the end of the stream is logged, not
// returned.
func (d *Dispatcher) Run(ctx context.Context, fn func(Message) error) error {
	for {
		msg, err := d.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, nmea.ErrIncompleteGroup) {
				d.log.Warn("nmea stream ended", "error", err)
				continue
			}
			return err
		}
		if err := fn(msg); err != nil {
			return err
		}
	}
}

// Records is Run with every message decoded. Messages that fail to decode
// are logged, counted and skipped.
func (d *Dispatcher) Records(ctx context.Context, fn func(nmea.Sentence, Message) error) error {
	return d.Run(ctx, func(msg Message) error {
		s, err := nmea.Decode(msg.Text)
		d.metrics.decode(msg, err)
		if err != nil {
			d.log.Warn("nmea decode failed", "identifier", msg.Identifier, "error", err)
			d.countDrop(ReasonDecode)
			r := Rejected{Time: time.Now().UTC(), Line: msg.Text, Reason: ReasonDecode, Error: err.Error()}
			d.history.add(r)
			return nil
		}
		return fn(s, msg)
	})
}

// Stats is a point in time view of dispatcher counters.
type Stats struct {
	Lines   uint64            `json:"lines"`
	Emitted uint64            `json:"emitted"`
	Skipped uint64            `json:"skipped"`
	Retries uint64            `json:"retries"`
	Pending int               `json:"pending_groups"`
	Dropped map[string]uint64 `json:"dropped"`
	Recent  []Rejected        `json:"recent_rejected"`
}

func (d *Dispatcher) Stats() Stats {
	st := Stats{
		Lines:   d.lines.Load(),
		Emitted: d.emitted.Load(),
		Skipped: d.skipped.Load(),
		Retries: d.retries.Load(),
		Pending: int(d.npend.Load()),
		Dropped: make(map[string]uint64, len(d.dropped)),
		Recent:  d.history.snapshot(),
	}
	for r, c := range d.dropped {
		if v := c.Load(); v > 0 {
			st.Dropped[r] = v
		}
	}
	return st
}
