package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sheetlookup/internal/app"
	"github.com/JonMunkholm/sheetlookup/internal/config"
	"github.com/JonMunkholm/sheetlookup/internal/core"
	"github.com/JonMunkholm/sheetlookup/internal/logging"
	"github.com/JonMunkholm/sheetlookup/internal/searchlog"
	"github.com/JonMunkholm/sheetlookup/internal/sheet"
	"github.com/JonMunkholm/sheetlookup/internal/source"
)

// errNoMatch makes the command exit 1 after the outcome is already printed.
var errNoMatch = errors.New("no match")

// dotenvErr is the result of loading .env in main, reported once logging
// is configured.
var dotenvErr error

type lookupOptions struct {
	jsonOut bool
	file    string
	session string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &lookupOptions{}

	cmd := &cobra.Command{
		Use:           "lookup <id>",
		Short:         "Look up an ITS ID in the roster sheet",
		Long:          "Fetches the published roster sheet, finds the row whose ITS ID matches and prints the name and status.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print the outcome as JSON")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read CSV from a local file instead of SHEET_URL")
	cmd.Flags().StringVar(&opts.session, "session", "", "session id to record the search under")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at the configured level instead of warn")
	return cmd
}

func runLookup(ctx context.Context, out, errOut io.Writer, opts *lookupOptions, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		cfg     *config.Config
		fetcher core.Fetcher
		err     error
	)
	if opts.file != "" {
		cfg, err = config.LoadLocal()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return fmt.Errorf("read sheet file: %w", err)
		}
		fetcher = source.Static(source.Clean(data))
	} else {
		cfg, err = config.Load()
		if err != nil {
			return err
		}
	}

	level := "warn"
	if opts.verbose {
		level = cfg.Logging.Level
	}
	slog.SetDefault(logging.New(errOut, level, cfg.Logging.Format))
	if dotenvErr != nil {
		slog.Debug("no .env file found, using environment variables", "error", dotenvErr)
	}

	session := searchlog.NewSession()
	if opts.session != "" {
		s, ok := searchlog.ParseSession(opts.session)
		if !ok {
			return fmt.Errorf("invalid --session %q: want a UUID", opts.session)
		}
		session = s
	}

	a, err := app.New(ctx, cfg, fetcher)
	if err != nil {
		return err
	}
	defer a.Close()

	outcome := a.Service.Lookup(ctx, session, id)
	if err := printOutcome(out, outcome, opts.jsonOut); err != nil {
		return err
	}
	if !outcome.Found() {
		return errNoMatch
	}
	return nil
}

func printOutcome(w io.Writer, o sheet.Outcome, asJSON bool) error {
	if asJSON {
		if err := o.Err(); err != nil {
			o.Reason = core.FormatUserError(err)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}

	var err error
	switch o.Type {
	case sheet.OutcomeFound:
		_, err = fmt.Fprintf(w, "%s - Status: %s\n", o.DisplayName, o.DisplayValue)
	case sheet.OutcomeNotFound:
		_, err = fmt.Fprintln(w, "NOT A VALID PASS ENTRY")
	default:
		_, err = fmt.Fprintf(w, "Error fetching data: %s\n", core.FormatUserError(o.Err()))
	}
	return err
}
