package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/passdown/internal/dataset"
	"github.com/verte-zerg/passdown/internal/export"
	"github.com/verte-zerg/passdown/internal/logging"
	"github.com/verte-zerg/passdown/internal/metrics"
	"github.com/verte-zerg/passdown/internal/model"
	"github.com/verte-zerg/passdown/internal/passdown"
	"github.com/verte-zerg/passdown/internal/store"
)

var (
	buildInput       string
	buildWorkers     int
	buildCSV         string
	buildXLSX        string
	buildCSVBOM      bool
	buildNoStore     bool
	buildMetricsFile string
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Assemble the dataset from report files",
		Args:  cobra.NoArgs,
		RunE:  runBuildCmd,
	}
	cmd.Flags().StringVar(&buildInput, "input", defaultInput, "glob over the report files")
	cmd.Flags().IntVar(&buildWorkers, "workers", defaultWorkers, "parallel decoders")
	cmd.Flags().StringVar(&buildCSV, "csv", "", "write the dataset as CSV")
	cmd.Flags().StringVar(&buildXLSX, "xlsx", "", "write the dataset as XLSX")
	cmd.Flags().BoolVar(&buildCSVBOM, "bom", false, "prefix the CSV with a UTF-8 BOM")
	cmd.Flags().BoolVar(&buildNoStore, "no-store", false, "do not save observations to the database")
	cmd.Flags().StringVar(&buildMetricsFile, "metrics-file", "", "write build metrics in Prometheus textfile format")
	return cmd
}

func runBuildCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "input", &buildInput, s.file.Build.Input)
	applyIntConfig(cmd, "workers", &buildWorkers, s.file.Build.Workers)
	applyStringConfig(cmd, "csv", &buildCSV, s.file.Build.CSV)
	applyStringConfig(cmd, "xlsx", &buildXLSX, s.file.Build.XLSX)
	applyStringConfig(cmd, "metrics-file", &buildMetricsFile, s.file.Build.MetricsFile)
	if buildWorkers <= 0 {
		return fmt.Errorf("--workers must be > 0")
	}
	if buildInput == "" {
		return fmt.Errorf("--input must not be empty")
	}

	l, err := s.layout()
	if err != nil {
		return err
	}
	dec, err := passdown.NewDecoder(l, s.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	run := model.Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Pattern:   buildInput,
	}
	ctx = logging.WithRunID(ctx, run.ID)

	ds, err := dataset.NewAssembler(dec, buildWorkers, s.logger).Build(ctx, buildInput)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	run.FinishedAt = time.Now().UTC()
	run.Decoded = ds.Len()
	run.Skipped = len(ds.Skipped)

	if !buildNoStore {
		if err := saveBuild(ctx, s.env.DBPath(), ds, run); err != nil {
			return err
		}
	}

	w := export.New(s.logger)
	if buildCSV != "" {
		if err := w.CSV(ctx, buildCSV, ds, export.CSVOptions{BOM: buildCSVBOM}); err != nil {
			return err
		}
		logErrf("Wrote %s\n", buildCSV)
	}
	if buildXLSX != "" {
		if err := w.XLSX(ctx, buildXLSX, ds); err != nil {
			return err
		}
		logErrf("Wrote %s\n", buildXLSX)
	}
	if buildMetricsFile != "" {
		if err := writeBuildMetrics(buildMetricsFile, ds, run); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Decoded %d observations, skipped %d pairs (run %s)\n",
		run.Decoded, run.Skipped, run.ID); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, skip := range ds.Skipped {
		logErrf("skipped %s: %s\n", skip.Pair.Status, skip.Reason)
	}
	return nil
}

func saveBuild(ctx context.Context, dbPath string, ds dataset.Dataset, run model.Run) error {
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.SaveObservations(ctx, ds.Layout(), ds.Observations); err != nil {
		return fmt.Errorf("failed to save observations: %w", err)
	}
	if err := st.InsertRun(ctx, run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

func writeBuildMetrics(path string, ds dataset.Dataset, run model.Run) error {
	m := metrics.NewBuild()
	m.Observe(run.Decoded, run.Skipped, run.FinishedAt.Sub(run.StartedAt), run.FinishedAt)
	totals := map[model.Category]int{}
	for _, o := range ds.Observations {
		for _, cat := range model.Categories {
			totals[cat] += o.Reject(cat)
		}
	}
	for _, cat := range model.Categories {
		m.SetRejects(string(cat), totals[cat])
	}
	return m.WriteTextfile(path)
}
