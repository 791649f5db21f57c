package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/batch"
	"github.com/sbirscope/transition-cli/internal/ingest"
	"github.com/sbirscope/transition-cli/internal/model"
	"github.com/sbirscope/transition-cli/internal/monitoring"
	"github.com/sbirscope/transition-cli/internal/resolve"
	"github.com/sbirscope/transition-cli/internal/scorer"
	"github.com/sbirscope/transition-cli/internal/store"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run transition detection over award and contract snapshots",
	Long: `Matches each award to candidate follow-on contracts, scores surviving
pairs, and emits detection records.

Examples:
  # Detect with default config, print JSON to stdout
  detect --awards awards.csv --contracts contracts.csv

  # With patent evidence, persisted to the configured store
  detect --awards awards.csv --contracts contracts.csv --patents patents.csv --save

  # Parallel fan-out with a custom threshold
  detect --awards awards.csv --contracts contracts.csv --workers 8 --threshold 0.7`,
	RunE: runDetect,
}

func init() {
	f := detectCmd.Flags()
	f.String("awards", "", "awards CSV path (required)")
	f.String("contracts", "", "contracts CSV path (required)")
	f.String("patents", "", "optional award-to-patent CSV path")
	f.Float64("threshold", 0, "score threshold (overrides config)")
	f.Int("workers", 0, "parallel workers (overrides config; 1 = sequential)")
	f.Bool("save", false, "persist detections to the configured store")
	f.String("output", "", "output file path (default: stdout)")
	_ = detectCmd.MarkFlagRequired("awards")
	_ = detectCmd.MarkFlagRequired("contracts")

	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := zap.L().With(zap.String("command", "detect"))
	tracker := monitoring.NewTracker()

	scoring := cfg.Scoring
	if v, _ := cmd.Flags().GetFloat64("threshold"); v > 0 {
		scoring.ScoreThreshold = v
	}
	workers := cfg.Perf.MaxWorkers
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		workers = v
	}

	// All inputs resident in memory before scoring begins; no I/O on the
	// hot path.
	loadSpan := tracker.Track("load")

	awardsPath, _ := cmd.Flags().GetString("awards")
	awards, awardsRes, err := ingest.ReadAwardsFile(awardsPath)
	if err != nil {
		return err
	}
	contractsPath, _ := cmd.Flags().GetString("contracts")
	contracts, contractsRes, err := ingest.ReadContractsFile(contractsPath)
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
	loadSpan.End(awardsRes.Loaded + contractsRes.Loaded)

	resolver := resolve.New(cfg.Resolver)
	detector := scorer.NewDetector(scoring, resolver, patents)

	start := time.Now()
	detectSpan := tracker.Track("detect")

	detections, stats, err := batch.RunParallel(ctx, awards, cfg.Perf.BatchSize, workers,
		func(_ context.Context, chunk []model.Award) ([]model.Detection, error) {
			var out []model.Detection
			for _, a := range chunk {
				out = append(out, detector.DetectForAward(a, contracts)...)
			}
			return out, nil
		})
	if err != nil {
		return eris.Wrap(err, "detect: batch run")
	}
	detectSpan.End(len(detections))

	profile := monitoring.ProfileDetectionPerformance(
		len(awards), len(contracts), len(detections),
		time.Since(start), cfg.Perf.TargetDetectionsPerMinute,
	)

	log.Info("detection run complete",
		zap.Int("awards", len(awards)),
		zap.Int("contracts", len(contracts)),
		zap.Int("detections", len(detections)),
		zap.Int64("warnings", detector.Warnings()),
		zap.Int("chunks", stats.Chunks),
		zap.Bool("meets_target", profile.MeetsTarget),
	)

	if save, _ := cmd.Flags().GetBool("save"); save {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		n, err := st.SaveDetections(ctx, detections)
		if err != nil {
			return err
		}
		run := store.RunRecord{
			ID:         uuid.New().String(),
			StartedAt:  start,
			FinishedAt: time.Now().UTC(),
			Awards:     len(awards),
			Contracts:  len(contracts),
			Detections: len(detections),
			Warnings:   detector.Warnings(),
			Metrics:    profile.Metrics(),
		}
		if err := st.SaveRun(ctx, run); err != nil {
			return err
		}
		log.Info("detections persisted", zap.Int64("rows", n), zap.String("run_id", run.ID))
	}

	out := os.Stdout
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return eris.Wrapf(err, "detect: create %s", path)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(detections); err != nil {
		return eris.Wrap(err, "detect: encode detections")
	}

	fmt.Fprintln(os.Stderr, profile.Report())
	return nil
}
