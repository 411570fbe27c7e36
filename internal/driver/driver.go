// Package driver turns a target into the ordered step pipeline of the native
// or the puppet installer.
package driver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/engine"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fetch"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	aptkeyplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/aptkey"
	aptsourceplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/aptsource"
	dropinplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/dropin"
	lineinfileplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/lineinfile"
	packageplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/package"
	puppetplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/puppet"
	templateplugin "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugins/template"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/readiness"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/systemd"
)

// Environment keys per mechanism.
const (
	defaultsPortKey   = "HTTP_PORT"
	defaultsJavaKey   = "JAVA_ARGS"
	dropInPortKey     = "JENKINS_PORT"
	dropInJavaOptsKey = "JAVA_OPTS"
)

// Fetcher retrieves remote artifacts.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	Download(ctx context.Context, url, dest string, perm os.FileMode) error
}

// Deps are the host collaborators every step talks to.
type Deps struct {
	Runner  hostexec.Runner
	Manager systemd.Manager
	Fetcher Fetcher
	Log     *logger.Logger
}

// HostDeps wires Deps to the real host: commands run non-interactively with
// their output relayed to log, and the service manager follows the target's
// backend. The returned func releases the service-manager connection.
func HostDeps(ctx context.Context, t *config.Target, log *logger.Logger) (Deps, func(), error) {
	runner := hostexec.NewRunner(hostexec.NonInteractive(log.Writer()))
	deps := Deps{
		Runner:  runner,
		Fetcher: fetch.New(fetch.Options{}),
		Log:     log,
	}

	if t.Service.Backend == "dbus" {
		conn, err := systemd.NewDBus(ctx)
		if err != nil {
			return Deps{}, nil, fmt.Errorf("connect to systemd: %w", err)
		}
		deps.Manager = conn
		return deps, conn.Close, nil
	}

	deps.Manager = systemd.NewSystemctl(runner)
	return deps, func() {}, nil
}

// Steps returns the ordered steps for t.Driver.
func Steps(t *config.Target, d Deps) ([]plugin.Plugin, error) {
	var steps []plugin.Plugin
	var err error
	switch t.Driver {
	case config.DriverNative:
		steps, err = nativeSteps(t, d)
	case config.DriverPuppet:
		steps, err = puppetSteps(t, d)
	default:
		return nil, fmt.Errorf("unknown driver %q", t.Driver)
	}
	if err != nil {
		return nil, err
	}

	for _, s := range steps {
		if err := s.Metadata().Validate(); err != nil {
			return nil, plugin.NewValidationError(s.Metadata().Name, err)
		}
	}
	return steps, nil
}

// NewPipeline assembles the full converge run for t: steps, service stage,
// readiness and post-install validations.
func NewPipeline(t *config.Target, d Deps) (engine.Pipeline, error) {
	steps, err := Steps(t, d)
	if err != nil {
		return engine.Pipeline{}, err
	}

	return engine.Pipeline{
		Steps: steps,
		Service: &engine.ServiceStage{
			Manager: d.Manager,
			Service: t.Service.Name,
			Log:     d.Log,
		},
		Readiness: readiness.New(readiness.Options{
			URL:            t.Readiness.URL,
			Interval:       t.Readiness.Interval,
			Timeout:        t.Readiness.Timeout,
			RequestTimeout: t.Readiness.RequestTimeout,
			Hint:           t.Readiness.LogsHint,
		}, d.Log),
		Validations:    t.Validations,
		ValidationDirs: []string{filepath.Dir(t.Puppet.Binary)},
	}, nil
}

func nativeSteps(t *config.Target, d Deps) ([]plugin.Plugin, error) {
	steps := []plugin.Plugin{
		packageplugin.New(packageplugin.Options{
			Step:         "java",
			Package:      t.Packages.Java,
			RefreshIndex: true,
			Runner:       d.Runner,
			Log:          d.Log,
		}),
		aptkeyplugin.New(aptkeyplugin.Options{
			Step:   "jenkins-key",
			URL:    t.Key.URL,
			Path:   t.Key.Path,
			Format: t.Key.Format,
			Getter: d.Fetcher,
			Runner: d.Runner,
			Log:    d.Log,
		}),
		aptsourceplugin.New(aptsourceplugin.Options{
			Step:   "jenkins-repo",
			Line:   t.Repository.Line,
			File:   t.Repository.File,
			Token:  t.Repository.Token,
			Runner: d.Runner,
			Log:    d.Log,
		}),
		packageplugin.New(packageplugin.Options{
			Step:    "jenkins",
			Package: t.Packages.Jenkins,
			Runner:  d.Runner,
			Log:     d.Log,
		}),
	}

	port, err := portStep(t, d)
	if err != nil {
		return nil, err
	}
	steps = append(steps, port)

	if t.Settings.DisableWizard {
		wizard, err := wizardStep(t, d)
		if err != nil {
			return nil, err
		}
		steps = append(steps, wizard)
	}
	return steps, nil
}

func portStep(t *config.Target, d Deps) (plugin.Plugin, error) {
	port := strconv.Itoa(t.Settings.Port)
	switch t.Settings.PortMechanism {
	case config.MechanismDefaultsFile:
		defaultPort := ""
		if t.Settings.DefaultPort > 0 {
			defaultPort = strconv.Itoa(t.Settings.DefaultPort)
		}
		return lineinfileplugin.New(lineinfileplugin.Options{
			Step:         "port",
			File:         t.Settings.ConfigFile,
			Key:          defaultsPortKey,
			Value:        port,
			DefaultValue: defaultPort,
			Log:          d.Log,
		}), nil
	case config.MechanismSystemdOverride:
		return dropinplugin.New(dropinplugin.Options{
			Step:    "port",
			Path:    t.Service.DropIn,
			Service: t.Service.Name,
			Key:     dropInPortKey,
			Value:   port,
			Manager: d.Manager,
			Log:     d.Log,
		}), nil
	}
	return nil, plugin.NewValidationError("port", fmt.Errorf("unknown mechanism %q", t.Settings.PortMechanism))
}

func wizardStep(t *config.Target, d Deps) (plugin.Plugin, error) {
	switch t.Settings.WizardMechanism {
	case config.MechanismDefaultsFile:
		return lineinfileplugin.New(lineinfileplugin.Options{
			Step:  "wizard",
			File:  t.Settings.ConfigFile,
			Key:   defaultsJavaKey,
			Value: t.Settings.WizardFlag,
			Flag:  true,
			Log:   d.Log,
		}), nil
	case config.MechanismSystemdOverride:
		return dropinplugin.New(dropinplugin.Options{
			Step:    "wizard",
			Path:    t.Service.DropIn,
			Service: t.Service.Name,
			Key:     dropInJavaOptsKey,
			Value:   t.Settings.WizardFlag,
			Flag:    true,
			Manager: d.Manager,
			Log:     d.Log,
		}), nil
	}
	return nil, plugin.NewValidationError("wizard", fmt.Errorf("unknown mechanism %q", t.Settings.WizardMechanism))
}

func puppetSteps(t *config.Target, d Deps) ([]plugin.Plugin, error) {
	source, err := templateplugin.SourceFor(t, d.Fetcher)
	if err != nil {
		return nil, plugin.NewValidationError("manifest", err)
	}

	p := t.Puppet
	return []plugin.Plugin{
		puppetplugin.NewAgent(puppetplugin.AgentOptions{
			Step:         "puppet-agent",
			Binary:       p.Binary,
			ReleaseURL:   p.ReleaseURL,
			ReleaseDeb:   p.ReleaseDeb,
			AgentPackage: p.AgentPackage,
			Downloader:   d.Fetcher,
			Runner:       d.Runner,
			Log:          d.Log,
		}),
		puppetplugin.NewModule(puppetplugin.ModuleOptions{
			Step:      "puppet-module",
			Binary:    p.Binary,
			Module:    p.Module,
			ModuleDir: p.ModuleDir,
			Runner:    d.Runner,
			Log:       d.Log,
		}),
		templateplugin.New(templateplugin.Options{
			Step:        "manifest",
			Source:      source,
			Destination: p.Manifest.Dest,
			Log:         d.Log,
		}),
		puppetplugin.NewApply(puppetplugin.ApplyOptions{
			Step:      "puppet-apply",
			Binary:    p.Binary,
			Manifest:  p.Manifest.Dest,
			ModuleDir: p.ModuleDir,
			Runner:    d.Runner,
			Log:       d.Log,
		}),
	}, nil
}
