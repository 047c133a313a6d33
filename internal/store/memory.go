package store

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"nmea-ng/internal/nmea"
)

// Memory is the in-process variant of Store, used when no database file is
// configured. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Put(received time.Time, text string, sentence nmea.Sentence) error {
	e, err := NewEntry(received, text, sentence)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.entries[string(key(e.Talker, e.Identifier))] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(t nmea.Talker, id nmea.Identifier) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[string(key(t, id))]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) List() ([]Entry, error) {
	m.mu.RLock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.entries[k])
	}
	m.mu.RUnlock()
	return out, nil
}

// NewEntry builds the stored form of a decoded sentence.
func NewEntry(received time.Time, text string, sentence nmea.Sentence) (Entry, error) {
	h := sentence.SentenceHeader()
	rec, err := json.Marshal(sentence)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Talker:     h.Talker,
		Identifier: h.Identifier,
		Received:   received.UTC(),
		Text:       text,
		Record:     rec,
	}, nil
}
