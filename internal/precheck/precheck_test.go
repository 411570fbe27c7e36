package precheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

const jammy = `PRETTY_NAME="Ubuntu 22.04.4 LTS"
NAME="Ubuntu"
VERSION_ID="22.04"
ID=ubuntu
ID_LIKE=debian
`

func writeRelease(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "os-release")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func asRoot() int { return 0 }

func TestRunOnUbuntuAsRoot(t *testing.T) {
	t.Parallel()

	c := Checker{OSRelease: writeRelease(t, jammy), EUID: asRoot}
	require.NoError(t, c.Run())
}

func TestRootRequired(t *testing.T) {
	t.Parallel()

	c := Checker{OSRelease: writeRelease(t, jammy), EUID: func() int { return 1000 }}
	err := c.Run()

	var pre *pkgerrors.PreconditionError
	require.ErrorAs(t, err, &pre)
	require.Equal(t, "root", pre.Check)
	require.Equal(t, pkgerrors.ExitGeneric, pkgerrors.ExitCode(err))
}

func TestOtherDistributionRejected(t *testing.T) {
	t.Parallel()

	c := Checker{OSRelease: writeRelease(t, "PRETTY_NAME=\"Fedora Linux 40\"\nID=fedora\n"), EUID: asRoot}
	err := c.Run()

	var pre *pkgerrors.PreconditionError
	require.ErrorAs(t, err, &pre)
	require.Equal(t, "os", pre.Check)
	require.Contains(t, err.Error(), "Fedora Linux 40")
}

func TestUbuntuDerivativeAccepted(t *testing.T) {
	t.Parallel()

	c := Checker{OSRelease: writeRelease(t, "NAME=\"Linux Mint\"\nID=linuxmint\nID_LIKE=\"ubuntu debian\"\n"), EUID: asRoot}
	require.NoError(t, c.Run())
}

func TestMissingOSReleaseTolerated(t *testing.T) {
	t.Parallel()

	c := Checker{OSRelease: filepath.Join(t.TempDir(), "absent"), EUID: asRoot}
	require.NoError(t, c.Run())
}
