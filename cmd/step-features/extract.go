// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/step-features/internal/catalog"
	"github.com/pdiddy/step-features/internal/metrics"
	"github.com/pdiddy/step-features/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract <input.step>",
	Short: "Extract per-face features from a STEP file into JSON",
	Long: `Extract loads a STEP file, classifies the surface of every face, computes
its area and centroid plus radius, axis, or semi-angle where the surface
type has them, and writes the part document as JSON.

Nothing is written when loading fails or when a face fails with
--on-face-error=abort. With --on-face-error=skip failing faces are logged
and left out; feature ids stay contiguous.

Gzip and zstd compressed STEP files are read transparently.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), map[string]string{
		"output":        "extraction.output_path",
		"part-id":       "extraction.part.id",
		"part-name":     "extraction.part.name",
		"material":      "extraction.part.material",
		"on-face-error": "extraction.on_face_error",
		"catalog":       "catalog.path",
		"metrics-file":  "metrics.textfile_path",
	})
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Extraction.OnFaceError.Valid() {
		return fmt.Errorf("invalid on_face_error %q: use abort or skip", cfg.Extraction.OnFaceError)
	}
	cfg.Extraction.InputPath = args[0]

	rec := metrics.New()
	res, runErr := pipeline.Run(cmd.Context(), cfg.Extraction, logger, rec)
	if cfg.Metrics.TextfilePath != "" {
		if err := rec.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			logger.Warn("writing metrics textfile", zap.String("path", cfg.Metrics.TextfilePath), zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if cfg.Catalog.Path != "" {
		store, err := catalog.Open(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.Add(cmd.Context(), res.Document, cfg.Extraction.InputPath)
		if err != nil {
			return fmt.Errorf("adding to catalog: %w", err)
		}
		logger.Info("stored in catalog", zap.String("run_id", run.ID), zap.String("catalog", cfg.Catalog.Path))
	}

	if res.Summary.HasSkipped() {
		logger.Warn("faces skipped", zap.Int("skipped", res.Summary.Skipped))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Feature extraction complete. JSON saved as '%s'.\n", cfg.Extraction.OutputPath)
	return nil
}

func init() {
	extractCmd.Flags().StringP("output", "o", "part_features.json", "output JSON file")
	extractCmd.Flags().String("part-id", "P001", "part identifier written to the document")
	extractCmd.Flags().String("part-name", "SamplePart", "part name written to the document")
	extractCmd.Flags().String("material", "Steel", "part material written to the document")
	extractCmd.Flags().String("on-face-error", "abort", "what to do when a face fails: abort or skip")
	extractCmd.Flags().String("catalog", "", "SQLite catalog to store the document in (empty = none)")
	extractCmd.Flags().String("metrics-file", "", "write Prometheus textfile metrics to this path")

	rootCmd.AddCommand(extractCmd)
}
