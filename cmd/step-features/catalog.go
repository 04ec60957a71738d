// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/step-features/internal/catalog"
	"github.com/pdiddy/step-features/internal/serialize"
	"github.com/pdiddy/step-features/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the feature catalog (store, runs, query, show, export)",
	Long: `Catalog manages a local SQLite database of extracted part documents.
Use subcommands to add documents, list stored runs, query features by
surface type, part, or area, and export them.`,
}

// --- store subcommand ---

var catalogStoreCmd = &cobra.Command{
	Use:   "store <features.json>...",
	Short: "Add extracted feature documents to the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogStore,
}

func runCatalogStore(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	for _, path := range args {
		doc, err := serialize.ReadFile(path)
		if err != nil {
			return err
		}
		run, err := store.Add(cmd.Context(), doc, path)
		if err != nil {
			return fmt.Errorf("adding %s: %w", path, err)
		}
		fmt.Fprintf(out, "stored  %s  %s  %d features\n", run.ID, path, run.Features)
	}
	return nil
}

// --- runs subcommand ---

var catalogRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List the documents stored in the catalog",
	Args:  cobra.NoArgs,
	RunE:  runCatalogRuns,
}

func runCatalogRuns(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-10s  %-20s  %-10s  %8s  %s\n",
		"Run", "Part", "Name", "Material", "Features", "Created")
	fmt.Fprintln(out, strings.Repeat("-", 110))
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-10s  %-20s  %-10s  %8d  %s\n",
			r.ID, truncate(r.Part.ID, 10), truncate(r.Part.Name, 20), truncate(r.Part.Material, 10),
			r.Features, r.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// --- query subcommand ---

var catalogQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query stored features by surface type, part, run, or area",
	Long: `Query lists stored features matching all given filters. --type may be
repeated or comma separated and takes surface codes such as CYL or PLN.`,
	Args: cobra.NoArgs,
	RunE: runCatalogQuery,
}

func runCatalogQuery(cmd *cobra.Command, args []string) error {
	opts, err := catalogQueryOpts(cmd)
	if err != nil {
		return err
	}

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Query(cmd.Context(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatQueryOutput(cmd.OutOrStdout(), results, jsonOutput)
}

func formatQueryOutput(w io.Writer, results []catalog.QueryResult, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-8s  %4s  %-4s  %12s  %-30s  %s\n",
		"Part", "Run", "Face", "Type", "Area", "Centroid", "Radius")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, r := range results {
		radius := ""
		if v, ok := r.Radius(); ok {
			radius = fmt.Sprintf("%g", v)
		}
		centroid := fmt.Sprintf("(%g, %g, %g)", r.CenterOfMass[0], r.CenterOfMass[1], r.CenterOfMass[2])
		fmt.Fprintf(w, "%-10s  %-8s  %4d  %-4s  %12g  %-30s  %s\n",
			truncate(r.PartID, 10), r.RunID[:8], r.ID, r.Type.Code(), r.Area, centroid, radius)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

// --- show subcommand ---

var catalogShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored document in the extraction JSON format",
	Args:  cobra.ExactArgs(1),
	RunE:  runCatalogShow,
}

func runCatalogShow(cmd *cobra.Command, args []string) error {
	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Document(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := serialize.Encode(out, doc); err != nil {
		return err
	}
	_, err = fmt.Fprintln(out)
	return err
}

// --- export subcommand ---

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored features to YAML or JSON",
	Long: `Export writes stored features (or a filtered subset) as a YAML or JSON
list. Supports the same filter flags as query. Output goes to stdout
unless --output is given.`,
	Args: cobra.NoArgs,
	RunE: runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	opts, err := catalogQueryOpts(cmd)
	if err != nil {
		return err
	}

	store, err := openCatalog(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "yaml", "":
		err = store.ExportYAML(cmd.Context(), w, opts)
	case "json":
		err = store.ExportJSON(cmd.Context(), w, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", output)
	}
	return nil
}

// --- shared helpers ---

func openCatalog(cmd *cobra.Command) (*catalog.Store, error) {
	bindFlags(cmd.Flags(), map[string]string{
		"db":          "catalog.path",
		"max-results": "catalog.max_results",
	})
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Path == "" {
		return nil, fmt.Errorf("catalog path required: use --db or set catalog.path")
	}
	return catalog.Open(cfg.Catalog)
}

func catalogQueryOpts(cmd *cobra.Command) (catalog.QueryOptions, error) {
	codes, _ := cmd.Flags().GetStringSlice("type")
	partID, _ := cmd.Flags().GetString("part")
	runID, _ := cmd.Flags().GetString("run")
	minArea, _ := cmd.Flags().GetFloat64("min-area")
	maxArea, _ := cmd.Flags().GetFloat64("max-area")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := catalog.QueryOptions{
		PartID:     partID,
		RunID:      runID,
		MinArea:    minArea,
		MaxArea:    maxArea,
		MaxResults: limit,
	}
	for _, code := range codes {
		st, ok := types.ParseSurfaceType(code)
		if !ok {
			return catalog.QueryOptions{}, fmt.Errorf("unknown surface type %q", code)
		}
		opts.Types = append(opts.Types, st)
	}
	return opts, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("type", nil, "filter by surface type code (CYL, PLN, ...)")
	cmd.Flags().String("part", "", "filter by part id")
	cmd.Flags().String("run", "", "filter by run id")
	cmd.Flags().Float64("min-area", 0, "minimum face area in mm²")
	cmd.Flags().Float64("max-area", 0, "maximum face area in mm²")
	cmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	catalogCmd.PersistentFlags().String("db", "", "SQLite catalog file")
	catalogCmd.PersistentFlags().Int("max-results", 50, "default maximum number of query results")

	addFilterFlags(catalogQueryCmd)
	catalogQueryCmd.Flags().Bool("json", false, "output results as JSON")

	addFilterFlags(catalogExportCmd)
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	catalogExportCmd.Flags().StringP("output", "o", "", "write the export to this file instead of stdout")

	catalogCmd.AddCommand(catalogStoreCmd)
	catalogCmd.AddCommand(catalogRunsCmd)
	catalogCmd.AddCommand(catalogQueryCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	catalogCmd.AddCommand(catalogExportCmd)

	rootCmd.AddCommand(catalogCmd)
}
