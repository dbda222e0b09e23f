package commands

import (
	"fmt"
	"strings"

	"docqa/internal/app"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *globalOptions) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a single question",
		Long: `Answer one question against the index and exit.

Examples:
  docqa ask "What is the refund window?"
  docqa ask --file policy.pdf "What is the refund window?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			s := a.NewSession()
			defer s.Close()

			if len(files) > 0 {
				summary := app.Ingest(cmd.Context(), s, files, cmd.ErrOrStderr())
				if summary.Failed > 0 {
					return fmt.Errorf("%d of %d files failed", summary.Failed, summary.Files)
				}
			}

			return app.Ask(cmd.Context(), s, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Upload these files before asking")

	return cmd
}
