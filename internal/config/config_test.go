package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "{}\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Type != SourceSerial || cfg.Source.Baud != 9600 {
		t.Fatalf("source=%+v want serial at 9600", cfg.Source)
	}
	if cfg.Dispatch.RetryDelay != 250*time.Millisecond || cfg.Dispatch.MaxRetryDelay != 10*time.Second {
		t.Fatalf("dispatch=%+v", cfg.Dispatch)
	}
	if cfg.Dispatch.History != 64 {
		t.Fatalf("history=%d want 64", cfg.Dispatch.History)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" || cfg.Log.BufferLines != 500 {
		t.Fatalf("log=%+v", cfg.Log)
	}
	if cfg.Web.Listen != "" || cfg.Store.Path != "" {
		t.Fatalf("disabled sections should stay empty: web=%+v store=%+v", cfg.Web, cfg.Store)
	}
}

func TestDefaultMatchesEmptyFile(t *testing.T) {
	cfg, err := Parse([]byte("{}\n"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if Default() != cfg {
		t.Fatalf("Default()=%+v want %+v", Default(), cfg)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
source:
  type: gpsd
record:
  enable: true
  path: /tmp/capture.nmea
forward:
  enable: true
  dest: 192.168.10.20:10110
dispatch:
  retry_delay: 100ms
  max_retry_delay: 2s
web:
  enable: true
store:
  enable: true
  path: /var/lib/nmea-ng/latest.db
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Addr != "127.0.0.1:2947" {
		t.Fatalf("addr=%q want gpsd default", cfg.Source.Addr)
	}
	if cfg.Dispatch.RetryDelay != 100*time.Millisecond || cfg.Dispatch.MaxRetryDelay != 2*time.Second {
		t.Fatalf("dispatch=%+v", cfg.Dispatch)
	}
	if !cfg.Forward.Enable || cfg.Forward.Dest != "192.168.10.20:10110" {
		t.Fatalf("forward=%+v", cfg.Forward)
	}
	if cfg.Web.Listen != ":8080" {
		t.Fatalf("listen=%q want :8080", cfg.Web.Listen)
	}
	if cfg.Store.Path != "/var/lib/nmea-ng/latest.db" || cfg.Store.FlushInterval != time.Second {
		t.Fatalf("store=%+v", cfg.Store)
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Fatalf("level=%v want debug", cfg.Log.SlogLevel())
	}
}

func TestLoad_ReplayDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "source:\n  type: replay\n  path: cap.nmea\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Speed != 1 {
		t.Fatalf("speed=%v want 1", cfg.Source.Speed)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"UnknownType", "source:\n  type: can\n", `source.type "can" is not one of serial, gpsd, tcp, udp, file, replay`},
		{"TCPRequiresAddr", "source:\n  type: tcp\n", "source.addr is required when source.type is 'tcp'"},
		{"UDPRequiresAddr", "source:\n  type: udp\n", "source.addr is required when source.type is 'udp'"},
		{"FileRequiresPath", "source:\n  type: file\n", "source.path is required when source.type is 'file'"},
		{"ReplayRequiresPath", "source:\n  type: replay\n", "source.path is required when source.type is 'replay'"},
		{"ReplaySpeed", "source:\n  type: replay\n  path: x\n  speed: -1\n", "source.speed must be > 0"},
		{"NegativeBaud", "source:\n  baud: -9600\n", "source.baud must be > 0"},
		{"RecordRequiresPath", "record:\n  enable: true\n", "record.path is required when record.enable is true"},
		{"RecordWithReplay", "source:\n  type: replay\n  path: x\nrecord:\n  enable: true\n  path: y\n", "record cannot be used with source.type=replay"},
		{"ForwardRequiresDest", "forward:\n  enable: true\n", "forward.dest is required when forward.enable is true"},
		{"StoreFlushInterval", "store:\n  enable: true\n  flush_interval: -1s\n", "store.flush_interval must be > 0"},
		{"RetryOrder", "dispatch:\n  retry_delay: 5s\n  max_retry_delay: 1s\n", "dispatch.max_retry_delay must be >= dispatch.retry_delay"},
		{"History", "dispatch:\n  history: -1\n", "dispatch.history must be >= 0"},
		{"LogLevel", "log:\n  level: loud\n", `log.level "loud" is not one of debug, info, warn, error`},
		{"LogFormat", "log:\n  format: xml\n", "log.format must be 'text' or 'json'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeTempConfig(t, "source: [\n")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "nmea-ng.example.yaml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Type != SourceSerial || !cfg.Web.Enable || !cfg.Store.Enable {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Forward.Enable {
		t.Fatalf("forward enabled in example")
	}
}
