package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/driver"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/engine"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/metrics"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/tui"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

const targetOS = "Ubuntu 22.04"

func (a *App) runConverge(cmd *cobra.Command, flags *rootFlags) error {
	ctx := cmd.Context()

	t, err := a.loadTarget(flags)
	if err != nil {
		return err
	}
	if err := a.Precheck(); err != nil {
		return err
	}

	interactive := !flags.jsonLogs && tui.Interactive(a.Out)
	log, err := a.newLogger(flags, interactive)
	if err != nil {
		return err
	}
	log = log.WithFields(map[string]any{"driver": a.Driver})

	deps, release, err := a.Deps(ctx, t, log)
	if err != nil {
		return err
	}
	defer release()

	pipeline, err := driver.NewPipeline(t, deps)
	if err != nil {
		return err
	}

	fmt.Fprintln(a.Out, tui.Header(tui.HeaderData{
		Title:  a.Name,
		Driver: a.Driver,
		Target: targetOS,
		Port:   t.Settings.Port,
	}))

	reporter := tui.NewReporter(a.Out, a.Name, metadata(pipeline.Steps), interactive)
	report, runErr := engine.Run(&engine.ExecutionContext{
		Context:  ctx,
		Logger:   log,
		Observer: reporter,
	}, pipeline)
	if err := reporter.Finish(report, runErr); err != nil {
		log.Warn("progress view: " + err.Error())
	}

	writeMetrics(t, a.Driver, report, runErr, log)

	if runErr != nil {
		var readinessErr *pkgerrors.ReadinessError
		if errors.As(runErr, &readinessErr) && readinessErr.Hint != "" {
			log.Error(runErr, "check the service logs: "+readinessErr.Hint)
		}
		return runErr
	}

	fmt.Fprintln(a.Out, tui.Completion(tui.CompletionData{
		URL:        t.PortURL("localhost"),
		LogsHint:   t.Readiness.LogsHint,
		ConfigPath: configLocation(t),
		HomeDir:    t.Settings.HomeDir,
		Report:     report,
	}))
	return nil
}

func metadata(steps []plugin.Plugin) []plugin.Metadata {
	out := make([]plugin.Metadata, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Metadata())
	}
	return out
}

func configLocation(t *config.Target) string {
	if t.Settings.PortMechanism == config.MechanismSystemdOverride {
		return t.Service.DropIn
	}
	return t.Settings.ConfigFile
}

func writeMetrics(t *config.Target, driverName string, report *model.RunReport, runErr error, log *logger.Logger) {
	if t.Metrics.Textfile == "" {
		return
	}
	m := metrics.New(driverName)
	m.Record(report, runErr, time.Now())
	if err := m.WriteTextfile(t.Metrics.Textfile); err != nil {
		log.Warn("write metrics textfile: " + err.Error())
	}
}
