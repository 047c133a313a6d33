package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"nmea-ng/internal/config"
	"nmea-ng/internal/dispatch"
	"nmea-ng/internal/forward"
	"nmea-ng/internal/nmea"
	"nmea-ng/internal/store"
	"nmea-ng/internal/web"
)

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Decode the configured source continuously",
		Long: `Run reads the source named in the config, decodes every sentence and keeps
the latest record of each type. With web.enable it serves the status API,
Prometheus metrics and a websocket record stream.

Examples:
  nmea-ng run --config ./nmea-ng.yaml
  nmea-ng run --config ./replay.yaml --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd.Context(), opts.cfg, opts.logger, opts.logs)
		},
	}
}

// recordStore is the write and read side of the latest-record store; bbolt
// when store.enable is set, in memory otherwise.
type recordStore interface {
	Put(received time.Time, text string, sentence nmea.Sentence) error
	List() ([]store.Entry, error)
}

// service wires one source through the dispatcher into the store, the status
// counters and the stream.
type service struct {
	cfg    config.Config
	logger *slog.Logger

	source  openedSource
	disp    *dispatch.Dispatcher
	records recordStore
	closeDB func() error
	status  *web.Status
	stream  *web.Broadcaster
	forward *forward.UDP
	reg     *prometheus.Registry
}

func newService(cfg config.Config, logger *slog.Logger) (*service, error) {
	s := &service{
		cfg:     cfg,
		logger:  logger,
		status:  web.NewStatus(),
		stream:  web.NewBroadcaster(logger.With("component", "web.stream")),
		reg:     prometheus.NewRegistry(),
		closeDB: noClose,
	}
	s.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := dispatch.NewMetrics(s.reg)
	if err != nil {
		return nil, fmt.Errorf("metrics init failed: %w", err)
	}

	if cfg.Store.Enable {
		db, err := store.Open(cfg.Store.Path, cfg.Store.FlushInterval)
		if err != nil {
			return nil, err
		}
		s.records = db
		s.closeDB = db.Close
	} else {
		s.records = store.NewMemory()
	}

	if cfg.Forward.Enable {
		s.forward, err = forward.NewUDP(cfg.Forward.Dest)
		if err != nil {
			_ = s.closeDB()
			return nil, fmt.Errorf("forward init failed: %w", err)
		}
		s.status.SetForward(func() any { return s.forward.Snapshot() })
	}

	opened, err := openSource(cfg.Source)
	if err != nil {
		s.closeOutputs()
		return nil, err
	}
	src, err := withRecording(opened, cfg.Record, logger.With("component", "record"))
	if err != nil {
		_ = opened.close()
		s.closeOutputs()
		return nil, err
	}
	s.source = src

	s.disp = dispatch.New(src.src, dispatch.Options{
		Logger:        logger.With("component", "dispatch"),
		Metrics:       metrics,
		RetryDelay:    cfg.Dispatch.RetryDelay,
		MaxRetryDelay: cfg.Dispatch.MaxRetryDelay,
		HistorySize:   cfg.Dispatch.History,
	})
	s.status.SetSource(src.desc, src.state)
	s.status.SetDispatchStats(s.disp.Stats)
	return s, nil
}

func (s *service) Close() {
	if err := s.source.close(); err != nil {
		s.logger.Warn("source close failed", "error", err)
	}
	s.closeOutputs()
}

func (s *service) closeOutputs() {
	if s.forward != nil {
		if err := s.forward.Close(); err != nil {
			s.logger.Warn("forward close failed", "error", err)
		}
	}
	if err := s.closeDB(); err != nil {
		s.logger.Warn("store close failed", "error", err)
	}
}

func (s *service) deps(logs *web.LogBuffer) web.Deps {
	return web.Deps{
		Status:   s.status,
		Logs:     logs,
		Latest:   s.records,
		Stream:   s.stream,
		Gatherer: s.reg,
	}
}

// record is the per-record step of the decode loop. Store and forward
// failures are logged; a full disk or an unreachable peer must not stop
// decoding.
func (s *service) record(sentence nmea.Sentence, msg dispatch.Message) error {
	now := time.Now().UTC()
	s.status.MarkRecord(now)
	if err := s.records.Put(now, msg.Text, sentence); err != nil {
		s.logger.Warn("store put failed", "talker", msg.Talker, "identifier", msg.Identifier, "error", err)
	}
	if s.forward != nil {
		if err := s.forward.Send(msg.Text); err != nil {
			s.logger.Warn("forward failed", "error", err)
		}
	}
	e, err := store.NewEntry(now, msg.Text, sentence)
	if err != nil {
		return err
	}
	s.stream.Publish(e)
	s.logger.Debug("nmea record", "talker", msg.Talker, "identifier", msg.Identifier, "lines", msg.Lines)
	return nil
}

func runService(ctx context.Context, cfg config.Config, logger *slog.Logger, logs *web.LogBuffer) error {
	svc, err := newService(cfg, logger)
	if err != nil {
		return &exitError{code: exitCommandError, err: err}
	}
	defer svc.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	webErr := make(chan error, 1)
	if cfg.Web.Enable {
		logger.Info("web listening", "addr", cfg.Web.Listen)
		go func() {
			err := web.Serve(ctx, cfg.Web.Listen, web.Handler(svc.deps(logs)))
			if err != nil && !errors.Is(err, context.Canceled) {
				webErr <- err
				cancel()
			}
		}()
	}

	logger.Info("nmea-ng starting", "source", svc.source.desc, "store", cfg.Store.Enable, "forward", cfg.Forward.Dest)
	err = svc.disp.Records(ctx, svc.record)

	select {
	case werr := <-webErr:
		return fmt.Errorf("web server stopped: %w", werr)
	default:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err == nil && cfg.Web.Enable && ctx.Err() == nil {
		// The source is exhausted; keep serving what was decoded.
		logger.Info("source ended; web still serving", "records", svc.status.Snapshot(time.Time{}).RecordsTotal)
		<-ctx.Done()
		select {
		case werr := <-webErr:
			return fmt.Errorf("web server stopped: %w", werr)
		default:
		}
	}
	st := svc.disp.Stats()
	logger.Info("nmea-ng stopping", "lines", st.Lines, "emitted", st.Emitted, "skipped", st.Skipped)
	return nil
}
