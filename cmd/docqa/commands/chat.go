package commands

import (
	"docqa/internal/app"

	"github.com/spf13/cobra"
)

func newChatCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat",
		Long: `Read lines from standard input. A line naming an existing file uploads it,
anything else is a question about the uploaded documents. Type /help for the
list of commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *globalOptions) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.NewSession()
	defer s.Close()

	return app.Run(cmd.Context(), s, cmd.InOrStdin(), cmd.OutOrStdout())
}
