package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display build information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s driver)\ncommit: %s\nbuilt: %s\n", a.Name, a.Build.Version, a.Driver, a.Build.Commit, a.Build.Date)
			return nil
		},
	}
}
