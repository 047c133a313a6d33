package web

import (
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nmea-ng/internal/nmea"
	"nmea-ng/internal/store"
)

// Broadcaster fans decoded records out to stream subscribers. It keeps the
// latest entry per talker and identifier so a new subscriber starts with the
// current picture instead of waiting for the next fix.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan store.Entry
	nextID int
	last   map[string]store.Entry
	logger *slog.Logger
}

func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default().With("component", "web.stream")
	}
	return &Broadcaster{
		subs:   make(map[int]chan store.Entry),
		last:   make(map[string]store.Entry),
		logger: logger,
	}
}

func entryKey(e store.Entry) string {
	return e.Talker.String() + "/" + e.Identifier.String()
}

// Subscribe registers a listener. The channel is pre-filled with the latest
// entry of every known sentence type, in key order.
func (b *Broadcaster) Subscribe(buffer int) (int, <-chan store.Entry) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 32
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]string, 0, len(b.last))
	for k := range b.last {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if buffer < len(keys) {
		buffer = len(keys)
	}
	ch := make(chan store.Entry, buffer)
	for _, k := range keys {
		ch <- b.last[k]
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	return id, ch
}

func (b *Broadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish never blocks: subscribers that fall behind miss entries.
func (b *Broadcaster) Publish(e store.Entry) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last[entryKey(e)] = e
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Debug("stream subscriber behind", "id", id, "key", entryKey(e))
		}
	}
}

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Read-only feed of receiver data; any page may watch it.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// streamFilter restricts a stream to one talker and/or identifier, taken from
// the talker and identifier query parameters.
type streamFilter struct {
	talker     nmea.Talker
	identifier nmea.Identifier
}

func parseStreamFilter(r *http.Request) (streamFilter, error) {
	var f streamFilter
	q := r.URL.Query()
	if s := q.Get("talker"); s != "" {
		if err := f.talker.UnmarshalText([]byte(s)); err != nil {
			return f, err
		}
	}
	if s := q.Get("identifier"); s != "" {
		if err := f.identifier.UnmarshalText([]byte(s)); err != nil {
			return f, err
		}
	}
	return f, nil
}

func (f streamFilter) match(e store.Entry) bool {
	if f.talker != nmea.TalkerUnknown && e.Talker != f.talker {
		return false
	}
	if f.identifier != nmea.IdentifierUnknown && e.Identifier != f.identifier {
		return false
	}
	return true
}

// Handler upgrades to a websocket and writes one JSON text message per
// store.Entry until the client goes away.
func (b *Broadcaster) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		filter, err := parseStreamFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied to the client.
			b.logger.Warn("stream upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}
		defer conn.Close()

		id, ch := b.Subscribe(0)
		defer b.Unsubscribe(id)
		b.logger.Info("stream client connected", "id", id, "remote", r.RemoteAddr)

		// Reader: only control frames are expected; it ends on close or error.
		gone := make(chan struct{})
		go func() {
			defer close(gone)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(streamPongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(streamPingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-r.Context().Done():
				return
			case <-gone:
				b.logger.Info("stream client disconnected", "id", id)
				return
			case e, ok := <-ch:
				if !ok {
					return
				}
				if !filter.match(e) {
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteJSON(e); err != nil {
					b.logger.Debug("stream write failed", "id", id, "error", err)
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}
