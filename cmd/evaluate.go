package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/evaluate"
	"github.com/sbirscope/transition-cli/internal/ingest"
	"github.com/sbirscope/transition-cli/internal/model"
	"github.com/sbirscope/transition-cli/internal/store"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score detection output against labeled ground truth",
	Long: `Compares detection records to a labeled ground-truth set and reports
precision, recall, F1, the confusion matrix, and per-band accuracy.

Detections come from a JSON file produced by detect, or from the
configured store when --from-store is set.`,
	RunE: runEvaluate,
}

func init() {
	f := evaluateCmd.Flags()
	f.String("truth", "", "ground-truth CSV path (required)")
	f.String("detections", "", "detections JSON path (from detect --output)")
	f.Bool("from-store", false, "load detections from the configured store")
	f.Float64("threshold", 0, "score threshold (overrides config)")
	f.Bool("json", false, "emit the evaluation result as JSON instead of a report")
	_ = evaluateCmd.MarkFlagRequired("truth")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	log := zap.L().With(zap.String("command", "evaluate"))

	truthPath, _ := cmd.Flags().GetString("truth")
	truth, truthRes, err := ingest.ReadGroundTruthFile(truthPath)
	if err != nil {
		return err
	}

	threshold := cfg.Scoring.ScoreThreshold
	if v, _ := cmd.Flags().GetFloat64("threshold"); v > 0 {
		threshold = v
	}

	detections, err := loadDetections(cmd, threshold)
	if err != nil {
		return err
	}

	result := evaluate.Evaluate(detections, truth, evaluate.Options{ScoreThreshold: threshold})

	log.Info("evaluation complete",
		zap.Int("truth_rows", truthRes.Loaded),
		zap.Int("detections", len(detections)),
		zap.Float64("precision", result.Precision),
		zap.Float64("recall", result.Recall),
		zap.String("status", string(result.Status)),
	)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Println(result.Report())
	return nil
}

// loadDetections reads detection records for evaluation and analytics,
// either from a detect --output JSON file or from the configured store.
func loadDetections(cmd *cobra.Command, minScore float64) ([]model.Detection, error) {
	if fromStore, _ := cmd.Flags().GetBool("from-store"); fromStore {
		st, err := store.Open(cmd.Context(), cfg.Store)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.ListDetections(cmd.Context(), minScore)
	}

	path, _ := cmd.Flags().GetString("detections")
	if path == "" {
		return nil, eris.New("either --detections or --from-store is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var detections []model.Detection
	if err := json.Unmarshal(data, &detections); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return detections, nil
}
