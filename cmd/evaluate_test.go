package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetectionsCmd() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("detections", "", "")
	cmd.Flags().Bool("from-store", false, "")
	return cmd
}

func TestLoadDetections_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	data := `[
		{"award_id":"A1","contract_id":"C1","score":0.75,"confidence":"likely"},
		{"award_id":"A2","contract_id":"C2","score":0.9,"confidence":"high"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cmd := newDetectionsCmd()
	require.NoError(t, cmd.Flags().Set("detections", path))

	detections, err := loadDetections(cmd, 0)
	require.NoError(t, err)
	require.Len(t, detections, 2)
	assert.Equal(t, "A1", detections[0].AwardID)
	assert.InDelta(t, 0.9, detections[1].Score, 1e-9)
}

func TestLoadDetections_MissingSource(t *testing.T) {
	_, err := loadDetections(newDetectionsCmd(), 0)
	assert.Error(t, err)
}

func TestLoadDetections_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "detections.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	cmd := newDetectionsCmd()
	require.NoError(t, cmd.Flags().Set("detections", path))

	_, err := loadDetections(cmd, 0)
	assert.Error(t, err)
}
