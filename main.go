// Command terapias converts the therapies dictionary spreadsheet into the JSON
// document consumed by the client, and can serve that document over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/giygas/terapias-dictionary/config"
	"github.com/giygas/terapias-dictionary/data"
	"github.com/giygas/terapias-dictionary/handlers"
	"github.com/giygas/terapias-dictionary/health"
	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/scheduler"
	"github.com/giygas/terapias-dictionary/server"
	"github.com/giygas/terapias-dictionary/therapyparser"
	"github.com/giygas/terapias-dictionary/validation"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// cliFlags holds the flags shared by every command. Flags only override the
// environment when they are set explicitly.
type cliFlags struct {
	envFile  string
	input    string
	inputURL string
	output   string
	layout   string
	mode     string
	sheet    string
	source   string
	strict   bool
	verbose  bool

	dryRun bool

	port         string
	address      string
	refreshEvery time.Duration
}

// app carries the configuration resolved by the root pre-run hook
type app struct {
	flags  cliFlags
	cfg    *config.Config
	stdout io.Writer
}

func main() {
	err := newRootCmd(&app{stdout: os.Stdout}).Execute()
	if closeErr := logging.Close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, "Failed to close log file:", closeErr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, therapyparser.ErrInsufficientRows) {
			fmt.Fprintf(os.Stderr, "The input needs %d header rows followed by at least one data row. No output was written.\n", therapyparser.HeaderRows)
		}
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "terapias",
		Short: "Convert the therapies dictionary spreadsheet to JSON",
		Long: `terapias reads the therapies dictionary exported from the spreadsheet
(.csv or .xlsx), skips the two header rows and writes one JSON record per
therapy. Without a subcommand it runs a single conversion.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.runConvert,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.envFile, "env-file", ".env", "Environment file to load when present")
	pf.StringVarP(&a.flags.input, "input", "i", "", "Input .csv or .xlsx file (env INPUT_PATH)")
	pf.StringVar(&a.flags.inputURL, "input-url", "", "Download the input from this URL before converting (env INPUT_URL)")
	pf.StringVarP(&a.flags.output, "output", "o", "", "Output JSON file (env OUTPUT_PATH)")
	pf.StringVar(&a.flags.layout, "layout", "", "Column layout: detailed, glossary (env LAYOUT)")
	pf.StringVar(&a.flags.mode, "mode", "", "Output shape: wrapped, array (env OUTPUT_MODE, default from layout)")
	pf.BoolVar(&a.flags.strict, "strict", false, "Fail when there is no data row after the headers (env STRICT_ROWS, default from layout)")
	pf.StringVar(&a.flags.sheet, "sheet", "", "Sheet to read from .xlsx input, first sheet when empty (env SHEET)")
	pf.StringVar(&a.flags.source, "source", "", "Source name written in the metadata (env SOURCE_NAME)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "Keep info logs on the console under ENV=test")

	rootCmd.Flags().BoolVar(&a.flags.dryRun, "dry-run", false, "Convert and print the JSON without writing the output file")

	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Run one conversion and write the output file",
		Args:  cobra.NoArgs,
		RunE:  a.runConvert,
	}
	convertCmd.Flags().BoolVar(&a.flags.dryRun, "dry-run", false, "Convert and print the JSON without writing the output file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dictionary over HTTP and refresh it periodically",
		Args:  cobra.NoArgs,
		RunE:  a.runServe,
	}
	serveCmd.Flags().StringVar(&a.flags.port, "port", "", "Listen port (env PORT)")
	serveCmd.Flags().StringVar(&a.flags.address, "address", "", "Listen address (env ADDRESS)")
	serveCmd.Flags().DurationVar(&a.flags.refreshEvery, "refresh-every", 0, "Interval between conversions (env REFRESH_EVERY)")

	rootCmd.AddCommand(convertCmd, serveCmd)
	return rootCmd
}

// loadConfig reads .env and the environment, applies explicit flags and starts logging
func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(a.flags.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.InitLogger(cfg, a.flags.verbose)
	a.cfg = cfg
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("input") {
		cfg.InputPath = a.flags.input
	}
	if changed("input-url") {
		cfg.InputURL = a.flags.inputURL
	}
	if changed("output") {
		cfg.OutputPath = a.flags.output
	}
	if changed("layout") {
		cfg.Layout = strings.ToLower(a.flags.layout)
	}
	if changed("mode") {
		cfg.OutputMode = strings.ToLower(a.flags.mode)
	}
	if changed("strict") {
		strict := a.flags.strict
		cfg.StrictRows = &strict
	}
	if changed("sheet") {
		cfg.Sheet = a.flags.sheet
	}
	if changed("source") {
		cfg.SourceName = a.flags.source
	}
	if changed("port") {
		cfg.Port = a.flags.port
	}
	if changed("address") {
		cfg.Address = a.flags.address
	}
	if changed("refresh-every") {
		cfg.RefreshEvery = a.flags.refreshEvery
	}
}

func (a *app) runConvert(cmd *cobra.Command, args []string) error {
	opts, err := therapyparser.OptionsFromConfig(a.cfg)
	if err != nil {
		return err
	}
	opts.DryRun = a.flags.dryRun
	opts.Progress = a.stdout
	if opts.DryRun {
		// stdout carries only the JSON document
		opts.Progress = cmd.ErrOrStderr()
	}

	result, err := therapyparser.Convert(opts)
	if err != nil {
		return err
	}

	if opts.DryRun {
		fmt.Fprintf(a.stdout, "%s\n", result.Output)
		fmt.Fprintf(opts.Progress, "Dry run completed: %d therapies, nothing written\n", len(result.Records))
		return nil
	}

	fmt.Fprintf(a.stdout, "Conversion completed: %d therapies written to %s\n", len(result.Records), result.OutputPath)
	if skipped := result.Stats.Skipped(); skipped > 0 {
		fmt.Fprintf(a.stdout, "Skipped %d rows (%d blank, %d without a name)\n", skipped, result.Stats.BlankRows, result.Stats.MissingName)
	}
	return nil
}

func (a *app) runServe(cmd *cobra.Command, args []string) error {
	cfg := a.cfg
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	opts, err := therapyparser.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	container := data.NewDataContainer()
	sched := scheduler.NewScheduler(container, therapyparser.NewConverter(opts), cfg.RefreshEvery)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	healthChecker := health.NewHealthChecker(container, cfg.RefreshEvery)
	handler := handlers.NewHTTPHandler(container, validation.NewDataValidator(), healthChecker)
	srv := server.NewServer(cfg, handler)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
