// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FaceErrorPolicy selects what the extractor does when a face's geometric
// queries fail.
type FaceErrorPolicy string

const (
	// FaceErrorAbort stops the run on the first failing face. No output is written.
	FaceErrorAbort FaceErrorPolicy = "abort"

	// FaceErrorSkip logs the failure, drops the face, and continues.
	FaceErrorSkip FaceErrorPolicy = "skip"
)

// Valid reports whether p is a known policy. The empty policy is valid and
// means FaceErrorAbort.
func (p FaceErrorPolicy) Valid() bool {
	switch p {
	case "", FaceErrorAbort, FaceErrorSkip:
		return true
	}
	return false
}

// PartInfo holds the caller-supplied part metadata written to the document.
type PartInfo struct {
	// ID is the part identifier (e.g. "P001").
	ID string `json:"id" yaml:"id" mapstructure:"id"`

	// Name is the human-readable part name.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Material is the part material (e.g. "Steel").
	Material string `json:"material" yaml:"material" mapstructure:"material"`
}

// DefaultPartInfo returns the metadata used when none is configured.
func DefaultPartInfo() PartInfo {
	return PartInfo{ID: "P001", Name: "SamplePart", Material: "Steel"}
}

// ExtractionConfig holds settings for one extraction run.
type ExtractionConfig struct {
	// InputPath is the STEP file to read. Gzip and zstd compressed files are accepted.
	InputPath string `json:"input_path" yaml:"input_path" mapstructure:"input_path"`

	// OutputPath is the JSON document to write.
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`

	// Part is the metadata copied into the document.
	Part PartInfo `json:"part" yaml:"part" mapstructure:"part"`

	// OnFaceError selects abort (default) or skip for failing faces.
	OnFaceError FaceErrorPolicy `json:"on_face_error" yaml:"on_face_error" mapstructure:"on_face_error"`
}

// CatalogConfig holds settings for the SQLite feature catalog.
type CatalogConfig struct {
	// Path is the SQLite database file. Empty disables the catalog.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// MaxResults is the default maximum number of query results (default 50).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// MetricsConfig holds settings for run metrics.
type MetricsConfig struct {
	// TextfilePath is where Prometheus text-format metrics are written after
	// a run (node-exporter textfile collector). Empty disables the file.
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" mapstructure:"textfile_path"`
}

// Config groups all settings read from flags, environment, and config file.
type Config struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}
