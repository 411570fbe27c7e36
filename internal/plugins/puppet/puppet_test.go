package puppetplugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec/hostexectest"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

type recordingDownloader struct {
	err   error
	dests []string
}

func (d *recordingDownloader) Download(_ context.Context, _ string, dest string, perm os.FileMode) error {
	if d.err != nil {
		return d.err
	}
	d.dests = append(d.dests, dest)
	return os.WriteFile(dest, []byte("deb"), perm)
}

func agentStep(t *testing.T, runner *hostexectest.Runner, dl Downloader) (*agentPlugin, string) {
	t.Helper()
	dir := t.TempDir()
	binary := filepath.Join(dir, "bin", "puppet")
	p := NewAgent(AgentOptions{
		Step:         "puppet-agent",
		Binary:       binary,
		ReleaseURL:   "https://apt.puppet.com/puppet-release-jammy.deb",
		ReleaseDeb:   filepath.Join(dir, "puppet-release.deb"),
		AgentPackage: "puppet-agent",
		Downloader:   dl,
		Runner:       runner,
	})
	return p.(*agentPlugin), binary
}

func TestAgentSkippedWhenBinaryExists(t *testing.T) {
	t.Parallel()

	p, binary := agentStep(t, hostexectest.New(), &recordingDownloader{})
	require.NoError(t, os.MkdirAll(filepath.Dir(binary), 0o755))
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0o755))

	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSatisfied, eval.CurrentState)
}

func TestAgentInstallSequence(t *testing.T) {
	t.Parallel()

	runner := hostexectest.New()
	dl := &recordingDownloader{}
	p, _ := agentStep(t, runner, dl)

	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)

	res, err := p.Apply(context.Background(), eval)
	require.NoError(t, err)
	assert.True(t, res.Mutated())
	require.Len(t, dl.dests, 1)

	calls := runner.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "dpkg -i "+dl.dests[0], calls[0])
	assert.True(t, strings.HasSuffix(calls[1], " update"))
	assert.True(t, strings.HasSuffix(calls[2], " install puppet-agent"))
}

func TestAgentDownloadFailure(t *testing.T) {
	t.Parallel()

	runner := hostexectest.New()
	p, _ := agentStep(t, runner, &recordingDownloader{err: errors.New("dns failure")})

	_, err := p.Apply(context.Background(), nil)
	var execErr *pkgerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "puppet-agent", execErr.StepID)
	assert.Empty(t, runner.Calls())
}

func moduleStep(runner *hostexectest.Runner) *modulePlugin {
	return NewModule(ModuleOptions{
		Step:      "puppet-module",
		Binary:    "/opt/puppetlabs/bin/puppet",
		Module:    "puppetlabs-apt",
		ModuleDir: "/etc/puppetlabs/code/modules",
		Runner:    runner,
	}).(*modulePlugin)
}

func TestModuleListedIsSatisfied(t *testing.T) {
	t.Parallel()

	runner := hostexectest.New().Reply("/opt/puppetlabs/bin/puppet module list", "/etc/puppetlabs/code/modules\n├── puppetlabs-apt (v9.4.0)\n└── puppetlabs-stdlib (v9.6.0)", 0)
	eval, err := moduleStep(runner).Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSatisfied, eval.CurrentState)
}

func TestModuleInstall(t *testing.T) {
	t.Parallel()

	runner := hostexectest.New().Reply("/opt/puppetlabs/bin/puppet module list", "/etc/puppetlabs/code/modules (no modules installed)", 0)
	p := moduleStep(runner)

	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)

	_, err = p.Apply(context.Background(), eval)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/puppetlabs/bin/puppet module install puppetlabs-apt --target-dir /etc/puppetlabs/code/modules"},
		runner.CallsWithPrefix("/opt/puppetlabs/bin/puppet module install"))
}

func applyStep(runner *hostexectest.Runner) *applyPlugin {
	return NewApply(ApplyOptions{
		Step:      "puppet-apply",
		Binary:    "/opt/puppetlabs/bin/puppet",
		Manifest:  "/tmp/jenkins.pp",
		ModuleDir: "/etc/puppetlabs/code/modules",
		Runner:    runner,
	}).(*applyPlugin)
}

const applyPrefix = "/opt/puppetlabs/bin/puppet apply /tmp/jenkins.pp --modulepath /etc/puppetlabs/code/modules --detailed-exitcodes"

func TestApplyDoesNotAffectService(t *testing.T) {
	t.Parallel()

	assert.False(t, applyStep(hostexectest.New()).Metadata().AffectsService)
}

func TestEvaluateUsesNoop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   int
		state  model.VerificationStatus
		action bool
	}{
		{ExitNoChanges, model.StatusSatisfied, false},
		{ExitChanged, model.StatusDrifted, true},
		{ExitFailures, model.StatusUnknown, true},
	}
	for _, tt := range tests {
		tt := tt
		runner := hostexectest.New().Reply(applyPrefix+" --noop", "", tt.code)
		eval, err := applyStep(runner).Evaluate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.state, eval.CurrentState)
		assert.Equal(t, tt.action, eval.RequiresAction)
		assert.Equal(t, []string{applyPrefix + " --noop"}, runner.Calls())
	}
}

func TestApplyExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		code    int
		mutated bool
		wantErr bool
	}{
		{"no changes", ExitNoChanges, false, false},
		{"changes applied", ExitChanged, true, false},
		{"failures", ExitFailures, false, true},
		{"changes and failures", ExitChangedAndFailure, false, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := hostexectest.New().Reply(applyPrefix, "Notice: Applied catalog", tt.code)
			res, err := applyStep(runner).Apply(context.Background(), nil)
			assert.Equal(t, tt.mutated, res.Mutated())
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, pkgerrors.ExitCode(err))
			assert.Equal(t, model.StatusFailed, res.Status)
		})
	}
}
