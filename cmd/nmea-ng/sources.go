package main

import (
	"fmt"
	"log/slog"

	"nmea-ng/internal/config"
	"nmea-ng/internal/dispatch"
	"nmea-ng/internal/source"
)

// openedSource is a configured line source plus what the status page shows
// about it.
type openedSource struct {
	src   dispatch.LineSource
	desc  string
	state func() any
	close func() error
}

func noClose() error { return nil }

func openSource(sc config.SourceConfig) (openedSource, error) {
	switch sc.Type {
	case config.SourceSerial:
		s, err := source.OpenSerial(sc.Device, sc.Baud)
		if err != nil {
			return openedSource{}, err
		}
		return openedSource{
			src:   s,
			desc:  fmt.Sprintf("serial %s @%d", s.Device(), sc.Baud),
			close: s.Close,
		}, nil
	case config.SourceGPSD, config.SourceTCP:
		var (
			c   *source.TCPClient
			err error
		)
		if sc.Type == config.SourceGPSD {
			c, err = source.NewGPSD(sc.Addr)
		} else {
			c, err = source.NewTCPClient(source.TCPConfig{Name: "tcp", Addr: sc.Addr})
		}
		if err != nil {
			return openedSource{}, err
		}
		return openedSource{
			src:   c,
			desc:  fmt.Sprintf("%s %s", sc.Type, sc.Addr),
			state: func() any { return c.Snapshot() },
			close: c.Close,
		}, nil
	case config.SourceUDP:
		l, err := source.ListenUDP(sc.Addr)
		if err != nil {
			return openedSource{}, err
		}
		return openedSource{
			src:   l,
			desc:  fmt.Sprintf("udp %s", l.Addr()),
			close: l.Close,
		}, nil
	case config.SourceFile:
		r, err := source.OpenFile(sc.Path)
		if err != nil {
			return openedSource{}, err
		}
		return openedSource{src: r, desc: "file " + sc.Path, close: r.Close}, nil
	case config.SourceReplay:
		p, err := source.OpenReplay(sc.Path, sc.Speed, sc.Loop)
		if err != nil {
			return openedSource{}, err
		}
		return openedSource{
			src:   p,
			desc:  fmt.Sprintf("replay %s speed=%g loop=%t", sc.Path, sc.Speed, sc.Loop),
			close: noClose,
		}, nil
	default:
		return openedSource{}, fmt.Errorf("unsupported source type %q", sc.Type)
	}
}

// withRecording tees the source into a capture file when recording is on.
func withRecording(s openedSource, rc config.RecordConfig, logger *slog.Logger) (openedSource, error) {
	if !rc.Enable {
		return s, nil
	}
	w, err := source.CreateCapture(rc.Path, rc.Append)
	if err != nil {
		return s, fmt.Errorf("record open failed path=%s: %w", rc.Path, err)
	}
	inner := s.close
	s.src = source.Tee(s.src, w, logger)
	s.desc += " (recording " + rc.Path + ")"
	s.close = func() error {
		werr := w.Close()
		if err := inner(); err != nil {
			return err
		}
		return werr
	}
	return s, nil
}
