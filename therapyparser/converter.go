package therapyparser

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/giygas/terapias-dictionary/config"
	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/metrics"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
	"github.com/google/uuid"
)

// Compile-time check to ensure Converter implements the Converter interface
var _ interfaces.Converter = (*Converter)(nil)

// Options describe one conversion run
type Options struct {
	InputPath  string
	InputURL   string // When set, downloaded to InputPath before reading
	OutputPath string
	Sheet      string
	Source     string // Name recorded in the metadata block
	Format     string
	Layout     Layout
	DryRun     bool      // Encode but do not write the output file
	Progress   io.Writer // Per-record progress lines, nil discards them
}

// OptionsFromConfig resolves the layout and its explicit overrides from the configuration
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	layout, err := LayoutByName(cfg.Layout)
	if err != nil {
		return Options{}, err
	}

	if cfg.OutputMode != "" {
		mode, err := ParseOutputMode(cfg.OutputMode)
		if err != nil {
			return Options{}, err
		}
		layout.Mode = mode
	}

	if cfg.StrictRows != nil {
		layout.StrictRows = *cfg.StrictRows
	}

	return Options{
		InputPath:  cfg.InputPath,
		InputURL:   cfg.InputURL,
		OutputPath: cfg.OutputPath,
		Sheet:      cfg.Sheet,
		Source:     cfg.EffectiveSourceName(),
		Format:     cfg.Format,
		Layout:     layout,
	}, nil
}

// Result is the outcome of a successful conversion
type Result struct {
	RunID      string
	Records    []entities.Therapy
	Stats      Stats
	Output     []byte
	OutputPath string // Empty on dry runs
	Duration   time.Duration
}

// Converter runs read -> extract -> encode -> write for fixed options
type Converter struct {
	opts Options
}

// NewConverter creates a converter for the given options
func NewConverter(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Convert implements the Converter interface: it writes the output file and
// returns the records with the metadata block describing them
func (c *Converter) Convert() ([]entities.Therapy, entities.Metadata, error) {
	result, err := Convert(c.opts)
	if err != nil {
		return nil, entities.Metadata{}, err
	}
	return result.Records, NewDocument(result.Records, c.opts.Source, c.opts.Format).Metadata, nil
}

// Convert reads the whole input, extracts the records and writes the JSON document
// in one step. On any error, including too few rows, the output file is not touched.
func Convert(opts Options) (*Result, error) {
	result, err := convert(opts)
	if err != nil {
		metrics.ObserveConversionFailure()
		return nil, err
	}
	metrics.ObserveConversion(len(result.Records), result.Stats.BlankRows, result.Stats.MissingName, result.Duration)
	return result, nil
}

func convert(opts Options) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := logging.Logger().With("run_id", runID)

	logger.Info("Starting therapies conversion",
		"input", opts.InputPath,
		"layout", opts.Layout.Name,
		"mode", string(opts.Layout.Mode),
		"strict_rows", opts.Layout.StrictRows)

	if opts.InputURL != "" {
		if _, err := DownloadSource(opts.InputURL, opts.InputPath); err != nil {
			return nil, err
		}
	}

	rows, err := ReadRows(opts.InputPath, opts.Sheet)
	if err != nil {
		return nil, err
	}

	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	records, stats, err := Extract(rows, opts.Layout, func(t entities.Therapy) {
		fmt.Fprintf(progress, "Processed therapy %s: %s\n", formatID(t), t.Name)
	})
	if err != nil {
		logger.Error("Therapies conversion aborted", "error", err, "rows", stats.TotalRows)
		return nil, err
	}

	output, err := Encode(records, opts.Layout.Mode, opts.Source, opts.Format)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:   runID,
		Records: records,
		Stats:   stats,
		Output:  output,
	}

	if !opts.DryRun {
		if err := WriteFileAtomic(opts.OutputPath, output, 0644); err != nil {
			return nil, err
		}
		result.OutputPath = opts.OutputPath
	}

	result.Duration = time.Since(start)
	logger.Info("Therapies conversion completed",
		"records", stats.Parsed,
		"blank_rows", stats.BlankRows,
		"missing_name", stats.MissingName,
		"missing_id", stats.MissingID,
		"output", result.OutputPath,
		"dry_run", opts.DryRun,
		"duration", result.Duration.String())

	return result, nil
}

func formatID(t entities.Therapy) string {
	if id, ok := t.IDValue(); ok {
		return strconv.Itoa(id)
	}
	return "-"
}
