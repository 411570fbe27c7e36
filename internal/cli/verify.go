package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/driver"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/engine"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/tui"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

const verifyStepTimeout = 30 * time.Second

func (a *App) newVerifyCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the host against the target without changing it",
		Long: `Verify evaluates every step read-only. It exits 0 when the host is
converged and 1 when any step would change it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, flags, flags.verbose)
		},
	}
}

// runVerify evaluates the pipeline. In dry-run mode drift is reported with
// diffs and is not an error.
func (a *App) runVerify(cmd *cobra.Command, flags *rootFlags, withDiff bool) error {
	ctx := cmd.Context()

	t, err := a.loadTarget(flags)
	if err != nil {
		return err
	}
	if err := a.Precheck(); err != nil {
		return err
	}

	log, err := a.newLogger(flags, false)
	if err != nil {
		return err
	}

	deps, release, err := a.Deps(ctx, t, log)
	if err != nil {
		return err
	}
	defer release()

	steps, err := driver.Steps(t, deps)
	if err != nil {
		return err
	}

	summary, err := engine.NewExecutor(log).VerifySteps(ctx, steps, verifyStepTimeout)
	if summary != nil {
		for _, r := range summary.Results {
			fmt.Fprintln(a.Out, tui.Verification(r, withDiff))
		}
	}
	if err != nil {
		return err
	}

	pending := summary.TotalSteps - summary.Satisfied
	fmt.Fprintf(a.Out, "%d/%d steps converged\n", summary.Satisfied, summary.TotalSteps)
	if flags.dryRun || pending == 0 {
		return nil
	}
	return pkgerrors.NewExecutionError("verify", fmt.Errorf("%d step(s) not converged", pending))
}
