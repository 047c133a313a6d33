package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nmea-ng/internal/config"
	"nmea-ng/internal/source"
)

func TestOpenSourceFile(t *testing.T) {
	path := writeTemp(t, "in.nmea", testGGA)
	s, err := openSource(config.SourceConfig{Type: config.SourceFile, Path: path})
	if err != nil {
		t.Fatalf("openSource: %v", err)
	}
	defer s.close()
	if s.desc != "file "+path || s.state != nil {
		t.Fatalf("desc=%q", s.desc)
	}
	line, err := s.src.ReadLine(context.Background())
	if err != nil || line != testGGA {
		t.Fatalf("line=%q err=%v", line, err)
	}
}

func TestOpenSourceNetwork(t *testing.T) {
	tcp, err := openSource(config.SourceConfig{Type: config.SourceTCP, Addr: "127.0.0.1:10110"})
	if err != nil {
		t.Fatalf("tcp: %v", err)
	}
	defer tcp.close()
	if tcp.state == nil {
		t.Fatalf("tcp source has no state")
	}
	if snap, ok := tcp.state().(source.TCPSnapshot); !ok || snap.Addr != "127.0.0.1:10110" {
		t.Fatalf("tcp state=%+v", tcp.state())
	}

	gpsd, err := openSource(config.SourceConfig{Type: config.SourceGPSD, Addr: "127.0.0.1:2947"})
	if err != nil {
		t.Fatalf("gpsd: %v", err)
	}
	defer gpsd.close()
	if gpsd.desc != "gpsd 127.0.0.1:2947" {
		t.Fatalf("gpsd desc=%q", gpsd.desc)
	}

	udp, err := openSource(config.SourceConfig{Type: config.SourceUDP, Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("udp: %v", err)
	}
	defer udp.close()
	if !strings.HasPrefix(udp.desc, "udp 127.0.0.1:") {
		t.Fatalf("udp desc=%q", udp.desc)
	}
}

func TestOpenSourceReplayAndErrors(t *testing.T) {
	capPath := filepath.Join(t.TempDir(), "cap.log")
	if err := os.WriteFile(capPath, []byte("START\n0,"+testZDA+"\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, err := openSource(config.SourceConfig{Type: config.SourceReplay, Path: capPath, Speed: 1})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	line, err := p.src.ReadLine(context.Background())
	if err != nil || line != testZDA {
		t.Fatalf("line=%q err=%v", line, err)
	}
	if err := p.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := openSource(config.SourceConfig{Type: "carrier-pigeon"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if _, err := openSource(config.SourceConfig{Type: config.SourceFile, Path: filepath.Join(t.TempDir(), "none")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWithRecording(t *testing.T) {
	path := writeTemp(t, "in.nmea", testGGA, testZDA)
	s, err := openSource(config.SourceConfig{Type: config.SourceFile, Path: path})
	if err != nil {
		t.Fatalf("openSource: %v", err)
	}

	unchanged, err := withRecording(s, config.RecordConfig{}, discardLogger())
	if err != nil || unchanged.desc != s.desc {
		t.Fatalf("disabled recording changed source: %q %v", unchanged.desc, err)
	}

	capPath := filepath.Join(t.TempDir(), "cap.log")
	rec, err := withRecording(s, config.RecordConfig{Enable: true, Path: capPath}, discardLogger())
	if err != nil {
		t.Fatalf("withRecording: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := rec.src.ReadLine(context.Background()); err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
	}
	if err := rec.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(capPath)
	if err != nil {
		t.Fatalf("open capture: %v", err)
	}
	defer f.Close()
	recs, err := source.NewCaptureReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 3 || recs[1].Line != testGGA || recs[2].Line != testZDA {
		t.Fatalf("records=%+v", recs)
	}
}
