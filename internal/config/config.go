package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Record   RecordConfig   `yaml:"record"`
	Forward  ForwardConfig  `yaml:"forward"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Web      WebConfig      `yaml:"web"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// Source types.
const (
	SourceSerial = "serial"
	SourceGPSD   = "gpsd"
	SourceTCP    = "tcp"
	SourceUDP    = "udp"
	SourceFile   = "file"
	SourceReplay = "replay"
)

type SourceConfig struct {
	Type string `yaml:"type"`

	// Serial. An empty device is auto-detected.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// gpsd, tcp (host:port to dial) and udp (listen address).
	Addr string `yaml:"addr"`

	// file and replay.
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
	Append bool   `yaml:"append"`
}

// ForwardConfig re-sends every validated sentence as UDP datagrams
// (NMEA over UDP, port 10110 by convention).
type ForwardConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type DispatchConfig struct {
	RetryDelay    time.Duration `yaml:"retry_delay"`
	MaxRetryDelay time.Duration `yaml:"max_retry_delay"`
	History       int           `yaml:"history"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
}

type StoreConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
	// FlushInterval is how often buffered records are committed to Path.
	FlushInterval time.Duration `yaml:"flush_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// BufferLines is how many log lines the web log view keeps.
	BufferLines int `yaml:"buffer_lines"`
}

// SlogLevel maps Level to a slog level. Load has already validated it.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration used when no file is given: auto-detected
// serial receiver, no web UI, no store.
func Default() Config {
	var cfg Config
	// Defaults for an empty config never fail validation.
	_ = cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() error {
	src := &cfg.Source
	if src.Type == "" {
		src.Type = SourceSerial
	}
	switch src.Type {
	case SourceSerial:
		if src.Baud == 0 {
			src.Baud = 9600
		}
		if src.Baud < 0 {
			return fmt.Errorf("source.baud must be > 0")
		}
	case SourceGPSD:
		if src.Addr == "" {
			src.Addr = "127.0.0.1:2947"
		}
	case SourceTCP, SourceUDP:
		if src.Addr == "" {
			return fmt.Errorf("source.addr is required when source.type is '%s'", src.Type)
		}
	case SourceFile:
		if src.Path == "" {
			return fmt.Errorf("source.path is required when source.type is 'file'")
		}
	case SourceReplay:
		if src.Path == "" {
			return fmt.Errorf("source.path is required when source.type is 'replay'")
		}
		if src.Speed == 0 {
			src.Speed = 1
		}
		if src.Speed < 0 {
			return fmt.Errorf("source.speed must be > 0")
		}
	default:
		return fmt.Errorf("source.type %q is not one of serial, gpsd, tcp, udp, file, replay", src.Type)
	}

	if cfg.Record.Enable {
		if src.Type == SourceReplay {
			return fmt.Errorf("record cannot be used with source.type=replay")
		}
		if cfg.Record.Path == "" {
			return fmt.Errorf("record.path is required when record.enable is true")
		}
	}

	if cfg.Forward.Enable && cfg.Forward.Dest == "" {
		return fmt.Errorf("forward.dest is required when forward.enable is true")
	}

	d := &cfg.Dispatch
	if d.RetryDelay <= 0 {
		d.RetryDelay = 250 * time.Millisecond
	}
	if d.MaxRetryDelay <= 0 {
		d.MaxRetryDelay = 10 * time.Second
	}
	if d.MaxRetryDelay < d.RetryDelay {
		return fmt.Errorf("dispatch.max_retry_delay must be >= dispatch.retry_delay")
	}
	if d.History == 0 {
		d.History = 64
	}
	if d.History < 0 {
		return fmt.Errorf("dispatch.history must be >= 0")
	}

	if cfg.Web.Enable && cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.Store.Enable {
		if cfg.Store.Path == "" {
			cfg.Store.Path = "nmea-ng.db"
		}
		if cfg.Store.FlushInterval == 0 {
			cfg.Store.FlushInterval = time.Second
		}
		if cfg.Store.FlushInterval < 0 {
			return fmt.Errorf("store.flush_interval must be > 0")
		}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("log.format must be 'text' or 'json'")
	}
	if cfg.Log.BufferLines <= 0 {
		cfg.Log.BufferLines = 500
	}
	return nil
}
