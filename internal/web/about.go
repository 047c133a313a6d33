package web

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"

	"nmea-ng/internal/nmea"
)

type AboutResponse struct {
	Service    string   `json:"service"`
	NowUTC     string   `json:"now_utc"`
	GoVersion  string   `json:"go_version"`
	ModulePath string   `json:"module_path,omitempty"`
	Version    string   `json:"version,omitempty"`
	Commit     string   `json:"commit,omitempty"`
	Dirty      bool     `json:"dirty,omitempty"`
	BuildTime  string   `json:"build_time,omitempty"`
	Sentences  []string `json:"sentences"`
	MultiLine  []string `json:"multi_line"`
}

func about(nowUTC time.Time) AboutResponse {
	resp := AboutResponse{
		Service:   "nmea-ng",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		GoVersion: runtime.Version(),
	}
	for id := nmea.DHV; id <= nmea.ZDA; id++ {
		resp.Sentences = append(resp.Sentences, id.String())
		if id.MultiLine() {
			resp.MultiLine = append(resp.MultiLine, id.String())
		}
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		resp.ModulePath = bi.Main.Path
		resp.Version = bi.Main.Version
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				resp.Commit = s.Value
			case "vcs.modified":
				resp.Dirty = s.Value == "true"
			case "vcs.time":
				resp.BuildTime = s.Value
			}
		}
	}
	return resp
}

func AboutHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, about(time.Now()))
	})
}
