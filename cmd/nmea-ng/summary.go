package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nmea-ng/internal/nmea"
	"nmea-ng/internal/source"
)

type captureSummary struct {
	Segments    int
	Lines       int
	Invalid     int
	MaxDuration time.Duration
	Counts      map[string]int
}

// summarizeCapture counts sentences per talker and identifier. Lines with a
// bad checksum or an unknown talker count as invalid; valid sentences this
// decoder does not handle are grouped under their raw type.
func summarizeCapture(records []source.Record) captureSummary {
	s := captureSummary{Counts: map[string]int{}}
	if len(records) == 0 {
		return s
	}

	origin := time.Duration(0)
	hasLines := false
	segments := 0

	for _, r := range records {
		if r.Line == "" {
			segments++
			origin = r.At
			continue
		}
		hasLines = true

		s.Lines++
		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		key, ok := sentenceType(r.Line)
		if !ok {
			s.Invalid++
			continue
		}
		s.Counts[key]++
	}
	if segments == 0 && hasLines {
		segments = 1
	}
	s.Segments = segments

	return s
}

// sentenceType returns "GPGGA" style keys. It validates the checksum but does
// not decode fields.
func sentenceType(line string) (string, bool) {
	if err := nmea.ValidateChecksum(line); err != nil {
		return "", false
	}
	t, id, err := nmea.Classify(line)
	if err != nil {
		return "", false
	}
	if id == nmea.IdentifierUnknown {
		// "$GPXYZ,..." -> "GP?XYZ"
		if len(line) >= 6 {
			return t.String() + "?" + line[3:6], true
		}
		return t.String() + "?", true
	}
	return t.String() + id.String(), true
}

func printCaptureSummary(w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := source.NewCaptureReader(f).ReadAll()
	if err != nil {
		return err
	}

	s := summarizeCapture(recs)

	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "segments: %d\n", s.Segments)
	fmt.Fprintf(w, "lines: %d\n", s.Lines)
	fmt.Fprintf(w, "invalid_lines: %d\n", s.Invalid)
	fmt.Fprintf(w, "max_duration: %s\n", s.MaxDuration)

	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(w, "sentence_counts:\n")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %d\n", k, s.Counts[k])
	}
	return nil
}

func newSummaryCommand(_ *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <capture>",
		Short: "Summarize a recorded capture file",
		Long: `Summary reads a capture written with record.enable (lines of
"<t_ns>,<sentence>" with START markers) and reports segments, duration and
sentence counts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printCaptureSummary(cmd.OutOrStdout(), args[0])
		},
	}
}
