package web

import (
	"sync/atomic"
	"time"

	"nmea-ng/internal/dispatch"
)

// Status collects the live counters shown by /api/status. The record
// counters are updated from the decode loop; everything else is pulled when
// a snapshot is taken.
type Status struct {
	startUnixNano  int64
	records        uint64
	lastRecordNano int64
	source         atomic.Value // string
	sourceState    atomic.Value // stateFunc
	dispatch       atomic.Value // statsFunc
	forward        atomic.Value // stateFunc
}

type stateFunc func() any

type statsFunc func() dispatch.Stats

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.source.Store("")
	s.sourceState.Store(stateFunc(nil))
	s.dispatch.Store(statsFunc(nil))
	s.forward.Store(stateFunc(nil))
	return s
}

// SetSource names the active line source. state, when non-nil, is called on
// every snapshot for connection details (e.g. a TCP client's state).
func (s *Status) SetSource(desc string, state func() any) {
	s.source.Store(desc)
	s.sourceState.Store(stateFunc(state))
}

// SetDispatchStats registers the dispatcher whose counters are reported.
// Dispatcher.Stats is safe to call from the HTTP goroutines.
func (s *Status) SetDispatchStats(fn func() dispatch.Stats) {
	s.dispatch.Store(statsFunc(fn))
}

// SetForward registers the sentence forwarder's counters.
func (s *Status) SetForward(state func() any) {
	s.forward.Store(stateFunc(state))
}

func (s *Status) MarkRecord(nowUTC time.Time) {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	atomic.AddUint64(&s.records, 1)
	atomic.StoreInt64(&s.lastRecordNano, nowUTC.UnixNano())
}

type StatusSnapshot struct {
	Service       string          `json:"service"`
	NowUTC        string          `json:"now_utc"`
	UptimeSec     int64           `json:"uptime_sec"`
	Source        string          `json:"source"`
	SourceState   any             `json:"source_state,omitempty"`
	RecordsTotal  uint64          `json:"records_total"`
	LastRecordUTC string          `json:"last_record_utc,omitempty"`
	Dispatch      *dispatch.Stats `json:"dispatch,omitempty"`
	Forward       any             `json:"forward,omitempty"`
}

func (s *Status) Snapshot(nowUTC time.Time) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()
	last := atomic.LoadInt64(&s.lastRecordNano)

	snap := StatusSnapshot{
		Service:      "nmea-ng",
		NowUTC:       nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec:    int64(nowUTC.Sub(start).Seconds()),
		Source:       s.source.Load().(string),
		RecordsTotal: atomic.LoadUint64(&s.records),
	}
	if last != 0 {
		snap.LastRecordUTC = time.Unix(0, last).UTC().Format(time.RFC3339Nano)
	}
	if fn := s.sourceState.Load().(stateFunc); fn != nil {
		snap.SourceState = fn()
	}
	if fn := s.dispatch.Load().(statsFunc); fn != nil {
		st := fn()
		snap.Dispatch = &st
	}
	if fn := s.forward.Load().(stateFunc); fn != nil {
		snap.Forward = fn()
	}
	return snap
}
