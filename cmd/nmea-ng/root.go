package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"nmea-ng/internal/config"
	"nmea-ng/internal/web"
)

// rootOptions holds global flags and the state PersistentPreRunE derives
// from them for the subcommands.
type rootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string

	cfg    config.Config
	logs   *web.LogBuffer
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "nmea-ng",
		Short: "NMEA 0183 GNSS sentence decoder",
		Long: `nmea-ng reads NMEA 0183 sentences from a GNSS receiver, validates their
checksums, reassembles multi-line GSV groups and decodes them into typed records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (defaults apply when empty)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override log.level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "override log.format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newDecodeCommand(opts))
	cmd.AddCommand(newLatestCommand(opts))
	cmd.AddCommand(newSummaryCommand(opts))

	return cmd
}

// setup loads the config, applies flag overrides and installs the logger.
// Log output goes to stderr and to the buffer served at /api/logs.
func (o *rootOptions) setup(stderr io.Writer) error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		cfg, err = config.Load(o.ConfigPath)
		if err != nil {
			return &exitError{code: exitCommandError, err: fmt.Errorf("config load failed: %w", err)}
		}
	}
	if o.LogLevel != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(o.LogLevel)); err != nil {
			return &exitError{code: exitCommandError, err: fmt.Errorf("invalid --log-level %q", o.LogLevel)}
		}
		cfg.Log.Level = strings.ToLower(lvl.String())
	}
	if o.LogFormat != "" {
		if o.LogFormat != "text" && o.LogFormat != "json" {
			return &exitError{code: exitCommandError, err: fmt.Errorf("invalid --log-format %q: must be text or json", o.LogFormat)}
		}
		cfg.Log.Format = o.LogFormat
	}

	o.cfg = cfg
	o.logs = web.NewLogBuffer(cfg.Log.BufferLines)
	o.logger = newLogger(io.MultiWriter(stderr, o.logs), cfg.Log)
	slog.SetDefault(o.logger)
	return nil
}

func newLogger(w io.Writer, lc config.LogConfig) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: lc.SlogLevel()}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// openOutput returns stdout unless path names a file.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
