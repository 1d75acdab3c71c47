package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/passdown/internal/model"
	"github.com/verte-zerg/passdown/internal/stats"
	"github.com/verte-zerg/passdown/internal/statsui"
	"github.com/verte-zerg/passdown/internal/store"
)

const defaultRunsLimit = 10

var (
	statsShift       string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsCounters    string
	statsColor       bool

	runsLimit int
)

// addStatsFlags registers the filters shared by report and stats.
func addStatsFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&statsShift, "shift", "", "shift filter (twi, pre, day)")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sorts")
	cmd.Flags().IntVar(&statsCurveWindow, "window", defaultCurveWindow, "moving average window")
	cmd.Flags().StringVar(&statsCounters, "counter", "", "comma separated counters for per-counter curves")
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a text report from the database",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	addStatsFlags(cmd)
	cmd.Flags().BoolVar(&statsColor, "color", false, "force coloured plots")
	return cmd
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Browse stats interactively",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	addStatsFlags(cmd)
	return cmd
}

func statsConfig() (model.StatsConfig, error) {
	var shift model.Shift
	if statsShift != "" {
		parsed, ok := model.ParseShift(statsShift)
		if !ok {
			return model.StatsConfig{}, fmt.Errorf("invalid --shift value %q (use twi, pre or day)", statsShift)
		}
		shift = parsed
	}
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.Parse("2006-01-02", statsSince)
		if err != nil {
			return model.StatsConfig{}, fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return model.StatsConfig{}, fmt.Errorf("--last must be >= 0")
	}
	if statsCurveWindow < 1 {
		return model.StatsConfig{}, fmt.Errorf("--window must be >= 1")
	}
	return model.StatsConfig{
		Shift:       shift,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		Counters:    statsCounters,
	}, nil
}

func openStore(s settings) (*store.Store, error) {
	st, err := store.Open(s.env.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	st, err := openStore(s)
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load stats: %w", err)
	}
	if len(report.Observations) == 0 {
		logErrln("No sorts stored yet. Run: passdown build")
	}
	return report.Render(cmd.OutOrStdout(), cfg.CurveWindow, stats.PlotOptions{Color: statsColor})
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	st, err := openStore(s)
	if err != nil {
		return err
	}
	defer closeStore(st)

	model := statsui.NewModel(st, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent builds",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().IntVar(&runsLimit, "limit", defaultRunsLimit, "number of runs to show")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(s)
	if err != nil {
		return err
	}
	defer closeStore(st)

	runs, err := st.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		logErrln("No builds recorded yet.")
		return nil
	}
	for _, r := range runs {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %6s  decoded=%d skipped=%d  %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.ID,
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			r.Decoded, r.Skipped, r.Pattern)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
