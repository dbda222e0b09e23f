package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the vector index",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "ensure",
			Short: "Create the configured index if it does not exist",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				// Init уже создаёт индекс
				a, err := openApp(cmd, opts)
				if err != nil {
					return err
				}
				defer a.Close()

				spec := a.IndexSpec()
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Index %s is ready (dimension %d, metric %s, %s/%s)\n",
					spec.Name, spec.Dimension, spec.Metric, spec.Cloud, spec.Region)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List the indexes known to the backend",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp(cmd, opts)
				if err != nil {
					return err
				}
				defer a.Close()

				names, err := a.ListIndexes(cmd.Context())
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			},
		},
	)

	return cmd
}
