// Package main provides the CLI entrypoint for passdown.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/passdown/internal/config"
	"github.com/verte-zerg/passdown/internal/layout"
	"github.com/verte-zerg/passdown/internal/logging"
)

const (
	defaultInput       = "sort_files/*.txt"
	defaultWorkers     = 1
	defaultLogLevel    = "warn"
	defaultFolder      = "Oasis"
	defaultCurveWindow = 20
)

var logLevel string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "passdown",
		Short:         "Sorter passdown report extraction",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newBuildCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newLayoutCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// settings is the file config with environment overrides applied.
type settings struct {
	file   config.FileConfig
	env    config.Env
	logger *slog.Logger
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	env, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}
	env.Apply(&fileCfg)

	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	logger, err := logging.New(os.Stderr, logLevel)
	if err != nil {
		return settings{}, err
	}
	slog.SetDefault(logger)
	return settings{file: fileCfg, env: env, logger: logger}, nil
}

func (s settings) layout() (layout.Layout, error) {
	l, err := config.BuildLayout(s.file.Layout)
	if err != nil {
		return layout.Layout{}, fmt.Errorf("failed to load layout: %w", err)
	}
	return l, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	def := layout.Default()
	return fmt.Sprintf(`# passdown configuration
# Uncomment a value to enable it. CLI flags override config values,
# PASSDOWN_INPUT, PASSDOWN_WORKERS and PASSDOWN_LOG_LEVEL override the file.

[build]
# input = %q        # Glob over the report files
# workers = %d                       # Parallel decoders
# csv = "passdown.csv"              # Write the dataset as CSV
# xlsx = "passdown.xlsx"            # Write the dataset as XLSX
# metrics-file = "passdown.prom"    # Prometheus textfile with build metrics

[layout]
# layout-file = "layout.yaml"       # Field table (see: passdown layout --dump)
# not-on-file-combine = %q   # "ss1-twice" or "sum"
# sort-id-basis = %q             # "path" or "name"
# sort-id-offset = %d
# sort-id-width = %d

[mail]
# root = %q
# folder = %q

[log]
# level = %q                    # debug, info, warn or error
`,
		defaultInput,
		defaultWorkers,
		layout.CombineSS1Twice,
		def.SortID.Basis,
		def.SortID.Offset,
		def.SortID.Width,
		config.DefaultMailRoot(),
		defaultFolder,
		defaultLogLevel,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
