// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one extraction: load the STEP file, extract face
// features, and write the part document.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/step-features/internal/extract"
	"github.com/pdiddy/step-features/internal/loader"
	"github.com/pdiddy/step-features/internal/metrics"
	"github.com/pdiddy/step-features/internal/serialize"
	"github.com/pdiddy/step-features/pkg/types"
)

// Result is the outcome of a successful run.
type Result struct {
	Document types.PartDocument
	Summary  extract.Summary
}

// Run executes the pipeline for cfg. The document is written to
// cfg.OutputPath only after every face has been extracted; an empty
// OutputPath skips the write. Errors from loading are *loader.LoadError,
// errors from a face are *extract.GeometryError.
func Run(ctx context.Context, cfg types.ExtractionConfig, log *zap.Logger, rec *metrics.Recorder) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if rec == nil {
		rec = metrics.New()
	}

	res, err := run(ctx, cfg, log, rec)
	if err != nil {
		rec.RecordRun("failure")
		return nil, err
	}
	rec.RecordRun("success")
	return res, nil
}

func run(ctx context.Context, cfg types.ExtractionConfig, log *zap.Logger, rec *metrics.Recorder) (*Result, error) {
	timer := metrics.NewTimer()
	shape, err := loader.Load(ctx, cfg.InputPath)
	if err != nil {
		return nil, err
	}
	rec.RecordStage("load", timer.Duration())
	log.Info("loaded STEP file",
		zap.String("path", cfg.InputPath),
		zap.Int("bodies", len(shape.Bodies)),
		zap.Float64("length_unit_mm", shape.Units.Length),
	)

	timer = metrics.NewTimer()
	features, summary, err := extract.Features(ctx, shape, cfg, log)
	rec.RecordFaceErrors(summary.Skipped)
	if err != nil {
		var gerr *extract.GeometryError
		if errors.As(err, &gerr) {
			rec.RecordFaceErrors(1)
		}
		return nil, err
	}
	rec.RecordStage("extract", timer.Duration())
	for _, f := range features {
		rec.RecordFace(f.Type.Code(), f.Area)
	}
	log.Info("extracted features",
		zap.Int("faces", summary.Faces),
		zap.Int("features", summary.Extracted),
		zap.Int("skipped", summary.Skipped),
	)

	doc := serialize.Build(cfg.Part, features)
	if cfg.OutputPath != "" {
		timer = metrics.NewTimer()
		if err := serialize.Write(cfg.OutputPath, doc); err != nil {
			return nil, fmt.Errorf("writing feature document: %w", err)
		}
		rec.RecordStage("write", timer.Duration())
	}
	return &Result{Document: doc, Summary: summary}, nil
}
