// Package cli is the command-line surface shared by both installers.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/driver"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/precheck"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// BuildInfo is stamped at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// App holds one installer binary's wiring. Precheck and Deps are swapped in
// tests.
type App struct {
	Driver string
	Name   string
	Build  BuildInfo

	Out io.Writer
	Err io.Writer

	Precheck func() error
	Deps     func(ctx context.Context, t *config.Target, log *logger.Logger) (driver.Deps, func(), error)
}

// NewApp returns an App wired to the real host.
func NewApp(driverName, name string, build BuildInfo) *App {
	return &App{
		Driver:   driverName,
		Name:     name,
		Build:    build,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Precheck: precheck.Checker{}.Run,
		Deps:     driver.HostDeps,
	}
}

// Main runs the installer with args and returns the process exit status.
func Main(app *App, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := app.Command()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(app.Err, "Error: %v\n", err)
	}
	return pkgerrors.ExitCode(err)
}
