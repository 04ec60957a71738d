// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/step-features/internal/brep"
	"github.com/pdiddy/step-features/internal/loader"
	"github.com/pdiddy/step-features/internal/p21"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input.step>",
	Short: "Print the header, units, and entity counts of a STEP file",
	Long: `Inspect parses a STEP file without extracting features and prints its
header, resolved units, body summary, and the number of instances of
each entity type as YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// inspectReport is the YAML document printed by inspect.
type inspectReport struct {
	Path     string        `yaml:"path"`
	Header   p21.Header    `yaml:"header"`
	Units    brep.Units    `yaml:"units"`
	Bodies   []bodySummary `yaml:"bodies"`
	Entities int           `yaml:"entities"`
	Types    []typeCount   `yaml:"types"`
}

type bodySummary struct {
	ID     int    `yaml:"id"`
	Type   string `yaml:"type"`
	Name   string `yaml:"name,omitempty"`
	Shells int    `yaml:"shells"`
	Faces  int    `yaml:"faces"`
}

type typeCount struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := loader.Read(cmd.Context(), path)
	if err != nil {
		return err
	}

	report := inspectReport{
		Path:     path,
		Header:   f.Header,
		Entities: len(f.Entities),
		Bodies:   []bodySummary{},
	}

	shape, err := brep.Build(f)
	if err != nil {
		return &loader.LoadError{Path: path, Err: err}
	}
	report.Units = shape.Units
	for _, b := range shape.Bodies {
		bs := bodySummary{ID: b.ID, Type: b.Type, Name: b.Name, Shells: len(b.Shells)}
		for _, sh := range b.Shells {
			bs.Faces += len(sh.Faces)
		}
		report.Bodies = append(report.Bodies, bs)
	}

	for typ, n := range f.TypeCounts() {
		report.Types = append(report.Types, typeCount{Type: typ, Count: n})
	}
	sort.Slice(report.Types, func(i, j int) bool {
		if report.Types[i].Count != report.Types[j].Count {
			return report.Types[i].Count > report.Types[j].Count
		}
		return report.Types[i].Type < report.Types[j].Type
	})

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
