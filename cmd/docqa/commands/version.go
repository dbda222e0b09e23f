package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionInfo = "dev"

// SetVersion sets the version string (called from main)
func SetVersion(version string) {
	versionInfo = version
}

func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "docqa %s\n", versionInfo)
		},
	}
}
