package commands

import (
	"fmt"

	"docqa/internal/app"

	"github.com/spf13/cobra"
)

func newIngestCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Index documents without starting the chat",
		Long: `Parse, chunk, embed and upsert each file into the configured index.

Examples:
  docqa ingest handbook.pdf
  docqa ingest notes/*.md prices.csv`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.NewSession()
			defer s.Close()

			summary := app.Ingest(cmd.Context(), s, args, cmd.OutOrStdout())
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Files)
			}
			return nil
		},
	}
}
