// Package store keeps the most recent decoded record of every
// (talker, identifier) pair in a bbolt file, so the last known fix survives
// restarts and can be inspected offline.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"nmea-ng/internal/nmea"
)

var latestBucket = []byte("latest")

// ErrNotFound is returned by Get when nothing was stored for a key.
var ErrNotFound = errors.New("store: not found")

// Entry is one stored record.
type Entry struct {
	Talker     nmea.Talker     `json:"talker"`
	Identifier nmea.Identifier `json:"identifier"`
	Received   time.Time       `json:"received"`
	// Text is the raw sentence, all lines of a group separated by "\n".
	Text   string          `json:"text"`
	Record json.RawMessage `json:"record"`
}

// Sentence decodes Text again into a typed record.
func (e Entry) Sentence() (nmea.Sentence, error) {
	return nmea.Decode(e.Text)
}

// DefaultFlushInterval is how often buffered Puts are committed when Open is
// given no interval.
const DefaultFlushInterval = time.Second

// Store buffers the latest entry per key in memory and commits the buffer in
// one transaction per flush interval, so a 10 Hz receiver costs one fsync a
// second instead of one per sentence. Reads see buffered entries.
type Store struct {
	db  *bolt.DB
	log *slog.Logger

	mu    sync.Mutex
	dirty map[string][]byte

	stop      chan struct{} // nil for read-only stores
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open opens or creates the store at path. flushEvery <= 0 means
// DefaultFlushInterval.
func Open(path string, flushEvery time.Duration) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(latestBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if flushEvery <= 0 {
		flushEvery = DefaultFlushInterval
	}
	s := &Store{
		db:    db,
		log:   slog.Default().With("component", "store"),
		dirty: make(map[string][]byte),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go s.flushLoop(flushEvery)
	return s, nil
}

// OpenReadOnly opens an existing store without taking the write lock, so it
// can be read while a service holds it. Put fails on a read-only store.
func OpenReadOnly(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	return &Store{db: db, dirty: make(map[string][]byte)}, nil
}

// Close commits buffered entries and closes the file.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.stop != nil {
			close(s.stop)
			<-s.done
		}
		ferr := s.Flush()
		s.closeErr = s.db.Close()
		if s.closeErr == nil {
			s.closeErr = ferr
		}
	})
	return s.closeErr
}

func (s *Store) flushLoop(every time.Duration) {
	defer close(s.done)
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			if err := s.Flush(); err != nil {
				s.log.Warn("store flush failed", "error", err)
			}
		}
	}
}

// Flush commits buffered entries in one transaction. On failure the entries
// stay buffered for the next attempt.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.dirty) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(latestBucket)
		for k, v := range s.dirty {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	clear(s.dirty)
	return nil
}

func key(t nmea.Talker, id nmea.Identifier) []byte {
	return []byte(t.String() + "/" + id.String())
}

// Put replaces the record for the sentence's talker and identifier. The
// write reaches the file on the next flush.
func (s *Store) Put(received time.Time, text string, sentence nmea.Sentence) error {
	if s.stop == nil {
		return bolt.ErrDatabaseReadOnly
	}
	e, err := NewEntry(received, text, sentence)
	if err != nil {
		return err
	}
	js, err := json.Marshal(&e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dirty[string(key(e.Talker, e.Identifier))] = js
	s.mu.Unlock()
	return nil
}

func (s *Store) Get(t nmea.Talker, id nmea.Identifier) (Entry, error) {
	k := key(t, id)
	var e Entry

	s.mu.Lock()
	bs, ok := s.dirty[string(k)]
	s.mu.Unlock()
	if ok {
		if err := json.Unmarshal(bs, &e); err != nil {
			return Entry{}, err
		}
		return e, nil
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(latestBucket)
		if b == nil {
			return ErrNotFound
		}
		bs := b.Get(k)
		if bs == nil {
			return ErrNotFound
		}
		return json.Unmarshal(bs, &e)
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// List returns every stored entry ordered by talker then identifier.
func (s *Store) List() ([]Entry, error) {
	raw := make(map[string][]byte)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(latestBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			raw[string(k)] = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	for k, v := range s.dirty {
		raw[k] = v
	}
	s.mu.Unlock()

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		var e Entry
		if err := json.Unmarshal(raw[k], &e); err != nil {
			return nil, fmt.Errorf("entry %s: %w", k, err)
		}
		out = append(out, e)
	}
	return out, nil
}
