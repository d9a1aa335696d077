// Package main provides the fwexpert binary entry point.
// Fwexpert analyzes proprietary test-automation frameworks into a
// structured knowledge base and generates framework-conformant test
// scripts from natural-language descriptions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/fwexpert/llm/providers"

	"github.com/c360studio/fwexpert/config"
	"github.com/c360studio/fwexpert/expert"
	"github.com/c360studio/fwexpert/framework"
)

const (
	Version = "0.1.0"
	appName = "fwexpert"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Framework knowledge extraction and test script generation",
		Long: `Fwexpert runs a two-phase pipeline over proprietary test-automation
frameworks: a one-time analysis that distills the framework source into a
structured knowledge base, and a per-request retrieval step that feeds a
minimal relevant slice of that knowledge into script generation.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML), overrides discovery")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	load := func() (*config.Config, *slog.Logger, error) {
		logger := newLogger(logLevel)
		slog.SetDefault(logger)

		if configPath != "" {
			os.Setenv(config.EnvConfigPath, configPath)
		}
		cfg, err := config.NewLoader(logger).Load()
		if err != nil {
			return nil, nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, logger, nil
	}

	cmd.AddCommand(serveCmd(load))
	cmd.AddCommand(analyzeCmd(load))
	cmd.AddCommand(statsCmd(load))
	cmd.AddCommand(generateCmd(load))
	cmd.AddCommand(versionCmd())

	return cmd
}

type loadFunc func() (*config.Config, *slog.Logger, error)

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func serveCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the expert HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Serve(ctx)
		},
	}
}

func analyzeCmd(load loadFunc) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "analyze <framework-type>",
		Short: "Run the one-time framework knowledge extraction",
		Long: `Analyze scans the configured framework source tree and distills it
into the knowledge base. This is the expensive Phase 1 operation; with an
already-analyzed framework it is a no-op unless --force is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := framework.ParseType(args[0])
			if err != nil {
				return err
			}

			cfg, logger, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			stats, err := app.service.Analyze(ctx, ft, force)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-analyze even when knowledge already exists")
	return cmd
}

func statsCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [framework-type]",
		Short: "Show knowledge base statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			types := framework.Types()
			if len(args) == 1 {
				ft, err := framework.ParseType(args[0])
				if err != nil {
					return err
				}
				types = []framework.Type{ft}
			}

			cfg, logger, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			all := make([]*framework.Stats, 0, len(types))
			for _, ft := range types {
				stats, err := app.service.KnowledgeStats(ctx, ft)
				if err != nil {
					return err
				}
				all = append(all, stats)
			}
			return printJSON(cmd.OutOrStdout(), all)
		},
	}
}

func generateCmd(load loadFunc) *cobra.Command {
	var (
		frameworkType string
		description   string
		testName      string
		outPath       string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a test script from a description",
		RunE: func(cmd *cobra.Command, args []string) error {
			ft, err := framework.ParseType(frameworkType)
			if err != nil {
				return err
			}

			cfg, logger, err := load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			app, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			result, err := app.service.GenerateScript(ctx, expert.GenerateRequest{
				Description:   description,
				TestName:      testName,
				FrameworkType: ft,
			})
			if err != nil {
				return err
			}

			for _, w := range result.Warnings {
				logger.Warn(w)
			}
			logger.Info("Script generated",
				"context_source", result.ContextSource,
				"context_chars", result.ContextChars)

			if outPath != "" {
				return os.WriteFile(outPath, []byte(result.Script), 0644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Script)
			return nil
		},
	}

	cmd.Flags().StringVarP(&frameworkType, "framework", "f", "", "Framework type (pstaff or client)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Natural-language test case description")
	cmd.Flags().StringVarP(&testName, "test-name", "t", "", "Name of the test method to generate")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the script to this file instead of stdout")
	_ = cmd.MarkFlagRequired("framework")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("test-name")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
