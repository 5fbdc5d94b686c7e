// Command processor runs one report batch from the command line: it
// reads an exam-result workbook, extracts every student's missed
// questions, and writes one advice document per student. With -dry-run
// it stops after extraction and prints the class error index as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"studycoach/internal/advice"
	"studycoach/internal/config"
	"studycoach/internal/dataprocessing"
	"studycoach/internal/infrastructure"
	"studycoach/internal/services"
	"studycoach/internal/validation"
)

func main() {
	inFile := flag.String("in", "", "input .xlsx workbook (required)")
	outDir := flag.String("out", "", "output directory for .docx reports (defaults to data/reports relative to executable)")
	model := flag.String("model", "", "advice model name (defaults to the configured model)")
	dryRun := flag.Bool("dry-run", false, "extract and print the class error index without generating reports")
	useMock := flag.Bool("mock", false, "use the mock advice backend instead of the Gemini API")
	flag.Parse()

	if *inFile == "" {
		fmt.Fprintln(os.Stderr, "usage: processor -in <workbook.xlsx> [-out <dir>] [-model <name>] [-dry-run] [-mock]")
		os.Exit(2)
	}

	paths, err := config.GetPaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}

	if *outDir == "" {
		*outDir = paths.ReportsDir
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
		cfg.Logging.FilePath = paths.GetLogPath("processor.log")
	}
	if *model != "" {
		cfg.Advice.Model = *model
	}
	if *useMock {
		cfg.Advice.UseMock = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateWorkbookFile(*inFile, cfg.Upload.MaxBytes); err != nil {
		logger.Error("Workbook validation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Starting class report processing",
		slog.String("input", *inFile),
		slog.String("output_dir", *outDir),
		slog.Bool("dry_run", *dryRun))

	if *dryRun {
		if err := runDryRun(*inFile, logger); err != nil {
			logger.Error("Extraction failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	ctx := context.Background()

	client, err := advice.NewClient(ctx, cfg.Advice)
	if err != nil {
		logger.Error("Failed to create advice client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	svc, err := services.NewReportServiceWithLogger(cfg, client, nil, logger)
	if err != nil {
		logger.Error("Failed to create report service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	summary, err := svc.GenerateClassReports(ctx, *inFile, *outDir, func(done, total int) {
		fmt.Printf("Processed %d/%d students\n", done, total)
	})
	if err != nil {
		logger.Error("Batch failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Printf("Batch complete: %d succeeded, %d failed, output in %s\n",
		summary.Succeeded, summary.Failed, summary.OutputDir)

	for _, report := range summary.Reports {
		if !report.Succeeded() {
			fmt.Printf("  FAILED %s: %s\n", report.Student, report.Error)
		}
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

// runDryRun extracts the class error index and prints it as JSON.
func runDryRun(path string, logger *slog.Logger) error {
	wb, err := dataprocessing.LoadWorkbookFile(path)
	if err != nil {
		return err
	}

	result := dataprocessing.BuildClassErrorIndex(wb, logger)

	out := struct {
		Roster      []string    `json:"roster"`
		Index       interface{} `json:"index"`
		Diagnostics interface{} `json:"diagnostics,omitempty"`
	}{
		Roster:      result.Roster,
		Index:       result.Index,
		Diagnostics: result.Diagnostics,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
