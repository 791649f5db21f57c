package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sbirscope/transition-cli/internal/model"
	"github.com/sbirscope/transition-cli/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a detections file into the detection store",
	Long: `Imports detection records produced by detect --output into the
configured store. Re-importing the same file is a no-op for unchanged
pairs; changed scores overwrite the stored row.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().String("detections", "", "detections JSON path (required)")
	_ = importCmd.MarkFlagRequired("detections")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("detections")
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "import: read %s", path)
	}
	var detections []model.Detection
	if err := json.Unmarshal(data, &detections); err != nil {
		return eris.Wrapf(err, "import: parse %s", path)
	}

	st, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(cmd.Context()); err != nil {
		return err
	}

	n, err := st.SaveDetections(cmd.Context(), detections)
	if err != nil {
		return err
	}
	zap.L().Info("detections imported",
		zap.String("path", path),
		zap.Int("records", len(detections)),
		zap.Int64("rows", n),
	)
	return nil
}
