// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the step-features CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/step-features/internal/logging"
	"github.com/pdiddy/step-features/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is replaced in PersistentPreRunE once the log settings are known.
var logger = logging.NewDefault()

// rootCmd is the base command for the step-features CLI.
var rootCmd = &cobra.Command{
	Use:   "step-features",
	Short: "Extract per-face surface features from STEP CAD files",
	Long: `step-features reads a STEP (ISO 10303-21) file, walks the faces of its
boundary representation, and writes one JSON record per face with the
surface type, area, centroid, and type-specific parameters.

Extracted documents can be kept in a SQLite catalog and queried across
parts with the catalog subcommands.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		logger = log
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./step-features.yaml or ~/.config/step-features/step-features.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"log-level":  "log.level",
		"log-format": "log.format",
	})

	defaults := types.DefaultPartInfo()
	viper.SetDefault("extraction.output_path", "part_features.json")
	viper.SetDefault("extraction.part.id", defaults.ID)
	viper.SetDefault("extraction.part.name", defaults.Name)
	viper.SetDefault("extraction.part.material", defaults.Material)
	viper.SetDefault("extraction.on_face_error", string(types.FaceErrorAbort))
	viper.SetDefault("catalog.path", "")
	viper.SetDefault("catalog.max_results", 50)
	viper.SetDefault("metrics.textfile_path", "")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("step-features")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "step-features"))
		}
	}

	viper.SetEnvPrefix("STEP_FEATURES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Ignoring config file:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("step-features failed", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
	_ = logger.Sync()
}
