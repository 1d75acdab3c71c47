package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/passdown/internal/config"
	"github.com/verte-zerg/passdown/internal/mailbox"
)

var (
	fetchMailRoot string
	fetchFolder   string
	fetchInput    string
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Save report attachments from the mail folder",
		Args:  cobra.NoArgs,
		RunE:  runFetchCmd,
	}
	cmd.Flags().StringVar(&fetchMailRoot, "mail-root", config.DefaultMailRoot(), "directory of exported mail folders")
	cmd.Flags().StringVar(&fetchFolder, "folder", defaultFolder, "mail folder holding the reports")
	cmd.Flags().StringVar(&fetchInput, "input", defaultInput, "glob over the report files; attachments are saved to its directory")
	return cmd
}

func runFetchCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "mail-root", &fetchMailRoot, s.file.Mail.Root)
	applyStringConfig(cmd, "folder", &fetchFolder, s.file.Mail.Folder)
	applyStringConfig(cmd, "input", &fetchInput, s.file.Build.Input)

	f := &mailbox.Fetcher{
		Mailbox: mailbox.Dir{Root: fetchMailRoot},
		Folder:  fetchFolder,
		Dir:     filepath.Dir(fetchInput),
		Logger:  s.logger,
	}
	counts, err := f.Fetch(cmd.Context())
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d messages, saved %d new files, %d already present\n",
		counts.Scanned, counts.Saved, counts.Present); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
