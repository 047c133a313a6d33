package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"nmea-ng/internal/store"
)

type latestOptions struct {
	*rootOptions
	DB     string
	Format string
}

func newLatestCommand(root *rootOptions) *cobra.Command {
	opts := &latestOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Print the latest stored record of every sentence type",
		Long: `Latest opens the store file read-only and prints the most recent record of
each talker and identifier. It can run while "nmea-ng run" holds the store.

Examples:
  nmea-ng latest --db ./nmea-ng.db
  nmea-ng latest --config ./nmea-ng.yaml --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLatest(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "store file (default: store.path from config)")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	return cmd
}

func runLatest(cmd *cobra.Command, opts *latestOptions) error {
	if opts.Format != "json" && opts.Format != "text" {
		return &exitError{code: exitCommandError, err: fmt.Errorf("invalid format %q: must be json or text", opts.Format)}
	}
	path := opts.DB
	if path == "" {
		path = opts.cfg.Store.Path
	}
	if path == "" {
		path = "nmea-ng.db"
	}

	st, err := store.OpenReadOnly(path)
	if err != nil {
		return &exitError{code: exitCommandError, err: err}
	}
	defer st.Close()

	entries, err := st.List()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		_, err := fmt.Fprintf(w, "no records in %s\n", path)
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s  %s\n", e.Talker, e.Identifier, e.Received.Format(time.RFC3339))
		fmt.Fprintf(w, "  text:   %s\n", e.Text)
		fmt.Fprintf(w, "  record: %s\n", e.Record)
	}
	return nil
}
