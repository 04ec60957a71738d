// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package loader opens STEP files and resolves their B-rep shape.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/p21"
)

// LoadError reports a STEP file that could not be read or resolved into a
// shape. No output is produced after a LoadError.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to read STEP file %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Load reads the STEP file at path and builds its shape. Gzip and zstd
// compressed files are decompressed transparently.
func Load(ctx context.Context, path string) (*brep.Shape, error) {
	f, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}
	shape, err := brep.Build(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return shape, nil
}

// Read parses the STEP file at path into its entity table without
// resolving topology.
func Read(ctx context.Context, path string) (*p21.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer fh.Close()

	r, err := decompress(bufio.NewReader(fh))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer r.Close()

	f, err := p21.Read(r)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return f, nil
}

// decompress sniffs the leading bytes of br and wraps it in the matching
// decoder. Uncompressed input is returned as is.
func decompress(br *bufio.Reader) (io.ReadCloser, error) {
	head, _ := br.Peek(len(zstdMagic))
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return zr, nil
	case bytes.HasPrefix(head, zstdMagic):
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	}
	return io.NopCloser(br), nil
}
