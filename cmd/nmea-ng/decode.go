package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"nmea-ng/internal/dispatch"
	"nmea-ng/internal/nmea"
	"nmea-ng/internal/source"
)

type decodeOptions struct {
	*rootOptions
	Format string
	Output string
	Strict bool
	Stats  bool
}

// decodedRecord is one line of decode --format json output.
type decodedRecord struct {
	Talker     nmea.Talker     `json:"talker"`
	Identifier nmea.Identifier `json:"identifier"`
	Lines      int             `json:"lines"`
	Record     nmea.Sentence   `json:"record"`
}

func newDecodeCommand(root *rootOptions) *cobra.Command {
	opts := &decodeOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode NMEA sentences from a file or stdin",
		Long: `Decode reads raw NMEA 0183 lines from a file (or stdin when the file is
omitted or "-") and writes one decoded record per sentence. GSV groups are
reassembled first. Lines that fail checksum or classification are reported on
stderr through the logger.

Exit codes:
  0 - All input decoded (or --strict not set)
  1 - --strict and at least one line was rejected
  2 - Command error

Examples:
  nmea-ng decode capture.nmea
  cat /dev/ttyACM0 | nmea-ng decode --format text
  nmea-ng decode --strict --stats capture.nmea`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runDecode(cmd, opts, path)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "json", "output format (json|text)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write records to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any line was rejected")
	cmd.Flags().BoolVar(&opts.Stats, "stats", false, "print dispatcher counters to stderr when done")
	return cmd
}

func runDecode(cmd *cobra.Command, opts *decodeOptions, path string) error {
	if opts.Format != "json" && opts.Format != "text" {
		return &exitError{code: exitCommandError, err: fmt.Errorf("invalid format %q: must be json or text", opts.Format)}
	}

	var r *source.Reader
	if path == "-" {
		r = source.NewReader(cmd.InOrStdin(), source.DefaultMaxLineBytes)
	} else {
		var err error
		r, err = source.OpenFile(path)
		if err != nil {
			return &exitError{code: exitCommandError, err: err}
		}
	}
	defer r.Close()

	out, closeOut, err := openOutput(cmd.OutOrStdout(), opts.Output)
	if err != nil {
		return &exitError{code: exitCommandError, err: err}
	}

	d := dispatch.New(r, dispatch.Options{Logger: opts.logger.With("component", "decode")})
	enc := json.NewEncoder(out)
	err = d.Records(cmd.Context(), func(s nmea.Sentence, msg dispatch.Message) error {
		if opts.Format == "text" {
			return writeTextRecord(out, s, msg)
		}
		return enc.Encode(decodedRecord{
			Talker:     msg.Talker,
			Identifier: msg.Identifier,
			Lines:      msg.Lines,
			Record:     s,
		})
	})
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return &exitError{code: exitCommandError, err: err}
	}

	st := d.Stats()
	if opts.Stats {
		writeStats(cmd.ErrOrStderr(), st)
	}
	if opts.Strict && len(st.Dropped) > 0 {
		var total uint64
		for _, n := range st.Dropped {
			total += n
		}
		return &exitError{code: exitFailure, err: fmt.Errorf("%d line(s) or group(s) rejected", total)}
	}
	return nil
}

// writeTextRecord prints "GPGGA {...}" with the record as compact JSON.
func writeTextRecord(w io.Writer, s nmea.Sentence, msg dispatch.Message) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s%s %s\n", msg.Talker, msg.Identifier, b)
	return err
}

func writeStats(w io.Writer, st dispatch.Stats) {
	fmt.Fprintf(w, "lines: %d\n", st.Lines)
	fmt.Fprintf(w, "emitted: %d\n", st.Emitted)
	fmt.Fprintf(w, "skipped: %d\n", st.Skipped)
	reasons := make([]string, 0, len(st.Dropped))
	for r := range st.Dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	fmt.Fprintf(w, "dropped:\n")
	for _, r := range reasons {
		fmt.Fprintf(w, "  %s: %d\n", r, st.Dropped[r])
	}
	for _, rj := range st.Recent {
		fmt.Fprintf(w, "rejected %s: %s (%s)\n", rj.Reason, strings.TrimSpace(rj.Line), rj.Error)
	}
}
