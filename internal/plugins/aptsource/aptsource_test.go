package aptsourceplugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec/hostexectest"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
)

const repoLine = "deb [signed-by=/usr/share/keyrings/jenkins-keyring.asc] https://pkg.jenkins.io/debian-stable binary/"

func newStep(t *testing.T) (*aptSourcePlugin, string, *hostexectest.Runner) {
	t.Helper()
	file := filepath.Join(t.TempDir(), "sources.list.d", "jenkins.list")
	runner := hostexectest.New()
	p := New(Options{Step: "jenkins-repo", Line: repoLine, File: file, Token: "jenkins", Runner: runner})
	return p.(*aptSourcePlugin), file, runner
}

func TestEvaluateMissingFile(t *testing.T) {
	t.Parallel()

	p, _, _ := newStep(t)
	res, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StatusMissing, res.CurrentState)
	require.Contains(t, res.Diff, "+"+repoLine)
}

func TestEvaluateTokenPresentIsSatisfied(t *testing.T) {
	t.Parallel()

	p, file, _ := newStep(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("deb https://mirror.example/jenkins binary/\n"), 0o644))

	res, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StatusSatisfied, res.CurrentState)
	require.False(t, res.RequiresAction)
}

func TestEvaluateFileWithoutToken(t *testing.T) {
	t.Parallel()

	p, file, _ := newStep(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("# placeholder\n"), 0o644))

	res, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StatusDrifted, res.CurrentState)
	require.True(t, res.RequiresAction)
}

func TestApplyWritesLineAndRefreshes(t *testing.T) {
	t.Parallel()

	p, file, runner := newStep(t)
	res, err := p.Apply(context.Background(), &model.EvaluationResult{RequiresAction: true})
	require.NoError(t, err)
	require.True(t, res.Mutated())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, repoLine+"\n", string(data))

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0], "update")

	again, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.False(t, again.RequiresAction)
}
