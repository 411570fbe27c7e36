package lineinfileplugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

const (
	wizardFlag      = "-Djenkins.install.runSetupWizard=false"
	packagedDefault = "# defaults for Jenkins\nNAME=jenkins\nJAVA_ARGS=\"-Djava.awt.headless=true\"\nHTTP_PORT=8080\n"
)

func writeDefaults(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jenkins")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))
	return path
}

func portStep(path string) *lineInFilePlugin {
	return New(Options{Step: "port", File: path, Key: "HTTP_PORT", Value: "8000", DefaultValue: "8080"}).(*lineInFilePlugin)
}

func wizardStep(path string) *lineInFilePlugin {
	return New(Options{Step: "wizard", File: path, Key: "JAVA_ARGS", Value: wizardFlag, Flag: true}).(*lineInFilePlugin)
}

func converge(t *testing.T, p *lineInFilePlugin) *model.StepResult {
	t.Helper()
	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	res, err := p.Apply(context.Background(), eval)
	require.NoError(t, err)
	return res
}

func TestMetadataAffectsService(t *testing.T) {
	t.Parallel()

	meta := portStep("/etc/default/jenkins").Metadata()
	assert.Equal(t, "port", meta.Name)
	assert.True(t, meta.AffectsService)
	require.NoError(t, meta.Validate())
}

func TestPortReplacesPackagedDefault(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, packagedDefault)
	p := portStep(path)

	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusDrifted, eval.CurrentState)
	assert.Contains(t, eval.Diff, "-HTTP_PORT=8080")
	assert.Contains(t, eval.Diff, "+HTTP_PORT=8000")

	res, err := p.Apply(context.Background(), eval)
	require.NoError(t, err)
	assert.True(t, res.Mutated())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# defaults for Jenkins\nNAME=jenkins\nJAVA_ARGS=\"-Djava.awt.headless=true\"\nHTTP_PORT=8000\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestPortReplacesOtherValue(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, "HTTP_PORT=9090\n")
	converge(t, portStep(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "HTTP_PORT=8000\n", string(data))
}

func TestPortAppendsWhenAbsent(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, "NAME=jenkins\n")
	p := portStep(path)

	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusMissing, eval.CurrentState)

	_, err = p.Apply(context.Background(), eval)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NAME=jenkins\nHTTP_PORT=8000\n", string(data))
}

func TestPortAlreadySetIsSatisfied(t *testing.T) {
	t.Parallel()

	content := "NAME=jenkins\nHTTP_PORT=8000\n"
	path := writeDefaults(t, content)

	eval, err := portStep(path).Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSatisfied, eval.CurrentState)
	assert.False(t, eval.RequiresAction)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data), "evaluation must not write")
}

func TestWizardAppendsInsideJavaArgs(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, packagedDefault)
	converge(t, wizardStep(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "JAVA_ARGS=\"-Djava.awt.headless=true "+wizardFlag+"\"\n")

	eval, err := wizardStep(path).Evaluate(context.Background())
	require.NoError(t, err)
	assert.False(t, eval.RequiresAction, "second run is a no-op")
}

func TestWizardAddsJavaArgsLine(t *testing.T) {
	t.Parallel()

	path := writeDefaults(t, "HTTP_PORT=8000\n")
	converge(t, wizardStep(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "HTTP_PORT=8000\nJAVA_ARGS=\""+wizardFlag+"\"\n", string(data))
}

func TestMissingConfigFileFailsApply(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing")
	p := portStep(path)

	eval, err := p.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusMissing, eval.CurrentState)

	res, err := p.Apply(context.Background(), eval)
	require.Error(t, err)
	assert.Equal(t, model.StatusFailed, res.Status)

	var execErr *pkgerrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "port", execErr.StepID)
	assert.NoFileExists(t, path)
}

func TestApplyFollowsSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	real := filepath.Join(dir, "jenkins.real")
	link := filepath.Join(dir, "jenkins")
	require.NoError(t, os.WriteFile(real, []byte(packagedDefault), 0o644))
	require.NoError(t, os.Symlink(real, link))

	converge(t, portStep(link))

	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, real, target)

	data, err := os.ReadFile(real)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HTTP_PORT=8000")
}
