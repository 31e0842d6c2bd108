// Package main provides an offline CLI that runs the ingestion pipeline on a local workbook.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"finhub/internal/analytics"
	"finhub/internal/config"
	"finhub/internal/exporter"
	"finhub/internal/importer"
	"finhub/internal/model"
	"finhub/internal/validation"
)

var (
	outputPath   string
	pretty       bool
	year         int
	allowedYears string
	exportPath   string
	period       string
	quiet        bool
	skipCross    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finhub-check [input.xlsx]",
		Short: "Validate and unpivot a financial workbook",
		Long: `finhub-check runs the validation and transformation pipeline on a local
workbook and prints the result (validation report, month columns, unpivoted data) as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: run,
	}

	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	rootCmd.Flags().IntVar(&year, "year", 0, "Expected year of the month columns (default: current year)")
	rootCmd.Flags().StringVar(&allowedYears, "allowed-years", "", "Additional accepted years, comma separated")
	rootCmd.Flags().StringVar(&exportPath, "export", "", "Also write the unpivoted data to this .xlsx file")
	rootCmd.Flags().StringVar(&period, "period", "", "Print period totals instead of the full result: month, quarter, semester, year")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print progress to stderr")
	rootCmd.Flags().BoolVar(&skipCross, "skip-cross", false, "Skip the cross-sheet consistency check")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	cmd.SilenceUsage = true

	if !validation.ValidateFileType(inputPath) {
		return fmt.Errorf("invalid file type: only %s files are accepted", validation.AcceptedExtension)
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	extra, err := config.ParseYears(allowedYears)
	if err != nil {
		return fmt.Errorf("invalid --allowed-years: %w", err)
	}
	expected := year
	if expected == 0 {
		expected = time.Now().Year()
	}
	dateCfg := model.NewDateConfig(expected, extra...)

	var summaryPeriod analytics.Period
	if period != "" {
		if summaryPeriod, err = analytics.ParsePeriod(period); err != nil {
			return err
		}
	}

	var sink importer.ProgressSink
	if !quiet {
		sink = importer.SinkFunc(func(_ string, p model.ProcessingProgress) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %-20s %s\n", p.Progress, p.Stage, p.Message)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	coordinator := importer.NewCoordinator(sink, importer.Options{
		DateConfig:          dateCfg,
		BusinessConfig:      model.DefaultBusinessConfig(),
		SkipCrossValidation: skipCross,
	})
	result := coordinator.Process(ctx, "cli", data)

	if exportPath != "" && result.Success {
		if err := writeExport(result, dateCfg, summaryPeriod); err != nil {
			return err
		}
	}

	var payload any = result
	if summaryPeriod != "" && result.Success {
		payload = map[string]any{
			"validation": result.Validation,
			"periods":    analytics.GroupMonthsByPeriod(result.MonthColumns, summaryPeriod, dateCfg),
			"totals":     analytics.SummarizeByPeriod(result.UnpivotedData, summaryPeriod, dateCfg),
		}
	}

	var out []byte
	if pretty {
		out, err = json.MarshalIndent(payload, "", "  ")
	} else {
		out, err = json.Marshal(payload)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else {
		fmt.Println(string(out))
	}

	if !result.Success {
		return fmt.Errorf("processing failed: %s", result.Error)
	}
	if !result.Validation.IsValid {
		return fmt.Errorf("validation failed with %d errors", len(result.Validation.Errors))
	}
	return nil
}

func writeExport(result *model.ProcessingResult, cfg model.DateConfig, p analytics.Period) error {
	f, err := exporter.NewExporter(cfg).Export(result, exporter.ExportOptions{SummaryPeriod: p})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	defer f.Close()
	if err := f.SaveAs(exportPath); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}
