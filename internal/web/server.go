package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nmea-ng/internal/nmea"
	"nmea-ng/internal/store"
)

// Latest is the read side of the record store.
type Latest interface {
	List() ([]store.Entry, error)
}

// Deps are the pieces the HTTP API reports on. Any of them may be nil, in
// which case the matching endpoint answers 404.
type Deps struct {
	Status   *Status
	Logs     *LogBuffer
	Latest   Latest
	Stream   *Broadcaster
	Gatherer prometheus.Gatherer
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>nmea-ng</title></head>
<body>
<h1>nmea-ng</h1>
<ul>
<li><a href="/api/status">/api/status</a></li>
<li><a href="/api/sentences">/api/sentences</a></li>
<li><a href="/api/logs?format=text">/api/logs</a></li>
<li><a href="/api/about">/api/about</a></li>
<li><a href="/metrics">/metrics</a></li>
<li>/api/stream (websocket)</li>
</ul>
</body>
</html>
`

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func unavailable(what string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, what+" unavailable", http.StatusNotFound)
	})
}

type SentencesResponse struct {
	NowUTC    string        `json:"now_utc"`
	Sentences []store.Entry `json:"sentences"`
}

func sentencesHandler(latest Latest) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		filter, err := parseStreamFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		entries, err := latest.List()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out := make([]store.Entry, 0, len(entries))
		for _, e := range entries {
			if filter.match(e) {
				out = append(out, e)
			}
		}
		writeJSON(w, SentencesResponse{
			NowUTC:    time.Now().UTC().Format(time.RFC3339Nano),
			Sentences: out,
		})
	})
}

// decodeHandler decodes the sentence posted as the request body, one
// physical line per line of text, and answers with the typed record.
func decodeHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 8<<10))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		sentence, err := nmea.Decode(string(body))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		writeJSON(w, sentence)
	})
}

func Handler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	if deps.Status != nil {
		mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
			if !allowGet(w, r) {
				return
			}
			writeJSON(w, deps.Status.Snapshot(time.Now().UTC()))
		})
	} else {
		mux.Handle("/api/status", unavailable("status"))
	}

	if deps.Logs != nil {
		mux.Handle("/api/logs", deps.Logs.Handler())
	} else {
		mux.Handle("/api/logs", unavailable("logs"))
	}

	if deps.Latest != nil {
		mux.Handle("/api/sentences", sentencesHandler(deps.Latest))
	} else {
		mux.Handle("/api/sentences", unavailable("store"))
	}

	if deps.Stream != nil {
		mux.Handle("/api/stream", deps.Stream.Handler())
	} else {
		mux.Handle("/api/stream", unavailable("stream"))
	}

	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", unavailable("metrics"))
	}

	mux.Handle("/api/decode", decodeHandler())
	mux.Handle("/api/about", AboutHandler())

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if !allowGet(w, r) {
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})

	return mux
}

// Serve runs the HTTP API on listenAddr until ctx is cancelled.
func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
