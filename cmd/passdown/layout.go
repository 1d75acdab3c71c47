package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/passdown/internal/layout"
)

var layoutDump string

func newLayoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Validate and print the active field layout",
		Args:  cobra.NoArgs,
		RunE:  runLayoutCmd,
	}
	cmd.Flags().StringVar(&layoutDump, "dump", "", "write the layout as YAML (- for stdout)")
	return cmd
}

func runLayoutCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	l, err := s.layout()
	if err != nil {
		return err
	}

	switch layoutDump {
	case "":
		return printLayout(cmd.OutOrStdout(), l)
	case "-":
		return layout.Dump(cmd.OutOrStdout(), l)
	}
	if err := writeLayout(layoutDump, l); err != nil {
		return err
	}
	logErrf("Wrote %s\n", layoutDump)
	return nil
}

func printLayout(w io.Writer, l layout.Layout) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "status report\t%d bytes\n", l.StatusSize)
	fmt.Fprintf(tw, "gauge report\t%d bytes\n", l.GaugeSize)
	fmt.Fprintf(tw, "date\t%s\n", l.Date)
	fmt.Fprintf(tw, "time\t%s\n", l.Time)
	fmt.Fprintf(tw, "volume\t%s\n", l.Volume)
	fmt.Fprintf(tw, "sort id\t%s offset %d width %d\n", l.SortID.Basis, l.SortID.Offset, l.SortID.Width)
	fmt.Fprintf(tw, "columns\t%d\n\n", len(l.Columns()))
	fmt.Fprintln(tw, "COUNTER\tCATEGORY\tSS1\tSS2\tCOMBINE\tCOLUMN")
	for _, c := range l.Counters {
		combine := c.Combine
		if combine == "" {
			combine = layout.CombineSum
		}
		column := c.Columns.Total
		if column == "" {
			column = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", c.Name, c.Category, c.SS1, c.SS2, combine, column)
	}
	return tw.Flush()
}

func writeLayout(path string, l layout.Layout) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create layout directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create layout file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close layout file: %w", cerr)
		}
	}()
	return layout.Dump(f, l)
}
