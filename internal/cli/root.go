package cli

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
)

type rootFlags struct {
	configPath string
	verbose    bool
	dryRun     bool
	jsonLogs   bool
}

// Command builds the cobra tree. Running the root with no arguments
// converges the host.
func (a *App) Command() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           a.Name,
		Short:         "Install Jenkins LTS on Ubuntu, listening on port 8000 with the setup wizard disabled",
		Long:          "Converges the host idempotently using the " + a.Driver + " driver and waits until Jenkins answers.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.dryRun {
				return a.runVerify(cmd, flags, true)
			}
			return a.runConverge(cmd, flags)
		},
	}
	cmd.SetOut(a.Out)
	cmd.SetErr(a.Err)

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML file overriding the default target")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Show pending changes without making them")
	cmd.PersistentFlags().BoolVar(&flags.jsonLogs, "json-logs", false, "Write logs as JSON")

	cmd.AddCommand(a.newVerifyCmd(flags))
	cmd.AddCommand(a.newVersionCmd())

	return cmd
}

func (a *App) loadTarget(flags *rootFlags) (*config.Target, error) {
	return config.Load(a.Driver, flags.configPath)
}

func (a *App) newLogger(flags *rootFlags, quiet bool) (*logger.Logger, error) {
	level := "info"
	switch {
	case flags.verbose:
		level = "debug"
	case quiet:
		level = "warn"
	}
	return logger.New(logger.Options{Level: level, HumanReadable: !flags.jsonLogs, Writer: a.Err})
}
