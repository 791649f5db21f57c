package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/analytics"
	"github.com/sbirscope/transition-cli/internal/ingest"
	"github.com/sbirscope/transition-cli/internal/model"
	"github.com/sbirscope/transition-cli/internal/resolve"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Aggregate transition rates, timing, and effectiveness",
	Long: `Builds the full analytics summary from awards, contracts, and detection
records: overall and per-company transition rates, phase effectiveness,
agency breakdown, time-to-transition distributions, and technology-area
effectiveness.

Output formats: table (default), csv, xlsx, json.`,
	RunE: runAnalytics,
}

func init() {
	f := analyticsCmd.Flags()
	f.String("awards", "", "awards CSV path (required)")
	f.String("contracts", "", "contracts CSV path (required)")
	f.String("patents", "", "optional award-to-patent CSV path")
	f.String("detections", "", "detections JSON path (from detect --output)")
	f.Bool("from-store", false, "load detections from the configured store")
	f.String("format", "table", "output format: table, csv, xlsx, json")
	f.String("output", "", "output file path (required for xlsx, default stdout otherwise)")
	_ = analyticsCmd.MarkFlagRequired("awards")
	_ = analyticsCmd.MarkFlagRequired("contracts")

	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	log := zap.L().With(zap.String("command", "analytics"))

	awardsPath, _ := cmd.Flags().GetString("awards")
	awards, _, err := ingest.ReadAwardsFile(awardsPath)
	if err != nil {
		return err
	}
	contractsPath, _ := cmd.Flags().GetString("contracts")
	contracts, _, err := ingest.ReadContractsFile(contractsPath)
	if err != nil {
		return err
	}
	var patents map[string][]model.Patent
	if path, _ := cmd.Flags().GetString("patents"); path != "" {
		patents, _, err = ingest.ReadPatentsFile(path)
		if err != nil {
			return err
		}
	}

	detections, err := loadDetections(cmd, cfg.Scoring.ScoreThreshold)
	if err != nil {
		return err
	}

	resolver := resolve.New(cfg.Resolver)
	summary := analytics.BuildSummary(analytics.Inputs{
		Awards:         awards,
		Contracts:      contracts,
		Detections:     detections,
		PatentsByAward: patents,
		ScoreThreshold: cfg.Scoring.ScoreThreshold,
		Normalize:      resolver.Normalizer().NormalizeName,
	})

	log.Info("analytics summary built",
		zap.Int("awards", len(awards)),
		zap.Int("contracts", len(contracts)),
		zap.Int("detections", len(detections)),
		zap.Int("tables", len(summary.Tables)),
	)

	format, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("output")

	switch format {
	case "xlsx":
		if outPath == "" {
			return eris.New("analytics: --output is required for xlsx")
		}
		return summary.ExportXLSX(outPath)
	case "csv":
		out, closeFn, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer closeFn()
		return summary.ExportCSV(out)
	case "json":
		out, closeFn, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer closeFn()
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	case "table":
		out, closeFn, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer closeFn()
		printTables(out, summary)
		return nil
	default:
		return eris.Errorf("analytics: unknown format %q", format)
	}
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}

func printTables(out *os.File, s *analytics.Summary) {
	for _, t := range s.Tables {
		fmt.Fprintf(out, "== %s ==\n", t.Name)
		widths := make([]int, len(t.Headers))
		for i, h := range t.Headers {
			widths[i] = len(h)
		}
		for _, row := range t.Rows {
			for i, cell := range row {
				if i < len(widths) && len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}
		printRow := func(cells []string) {
			for i, cell := range cells {
				if i > 0 {
					fmt.Fprint(out, "  ")
				}
				fmt.Fprintf(out, "%-*s", widths[i], cell)
			}
			fmt.Fprintln(out)
		}
		printRow(t.Headers)
		for _, row := range t.Rows {
			printRow(row)
		}
		fmt.Fprintln(out)
	}
}
