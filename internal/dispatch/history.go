package dispatch

import (
	"sync"
	"time"
)

// Rejected is one line the dispatcher dropped.
type Rejected struct {
	Time   time.Time `json:"time"`
	Line   string    `json:"line"`
	Reason string    `json:"reason"`
	Error  string    `json:"error,omitempty"`
}

// history keeps the most recent rejected lines for diagnostics.
type history struct {
	mu           sync.Mutex
	maxEntries   int
	maxLineBytes int
	entries      []Rejected
}

func newHistory(maxEntries int, maxLineBytes int) *history {
	if maxEntries < 0 {
		maxEntries = 0
	}
	if maxLineBytes <= 0 {
		maxLineBytes = 1024
	}
	return &history{maxEntries: maxEntries, maxLineBytes: maxLineBytes, entries: make([]Rejected, 0, maxEntries)}
}

func (h *history) add(r Rejected) {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxEntries == 0 {
		return
	}
	if len(r.Line) > h.maxLineBytes {
		r.Line = r.Line[:h.maxLineBytes]
	}
	if len(h.entries) < h.maxEntries {
		h.entries = append(h.entries, r)
		return
	}
	copy(h.entries, h.entries[1:])
	h.entries[len(h.entries)-1] = r
}

func (h *history) snapshot() []Rejected {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Rejected, 0, len(h.entries))
	out = append(out, h.entries...)
	return out
}
