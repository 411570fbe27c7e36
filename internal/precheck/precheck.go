// Package precheck verifies the host may be converged at all.
package precheck

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// DefaultOSRelease is where the distribution identifies itself.
const DefaultOSRelease = "/etc/os-release"

// Checker holds the host facts the checks read. Zero values fall back to the
// running process and DefaultOSRelease.
type Checker struct {
	OSRelease string
	EUID      func() int
}

// Run fails with a PreconditionError when the process is not root or the
// host is not Ubuntu.
func (c Checker) Run() error {
	if err := c.Root(); err != nil {
		return err
	}
	return c.Ubuntu()
}

// Root requires an effective uid of 0.
func (c Checker) Root() error {
	euid := os.Geteuid
	if c.EUID != nil {
		euid = c.EUID
	}
	if euid() != 0 {
		return pkgerrors.NewPreconditionError("root", "this installer must be run as root (try sudo)")
	}
	return nil
}

// Ubuntu requires os-release to mention Ubuntu. A missing os-release file is
// tolerated.
func (c Checker) Ubuntu() error {
	path := c.OSRelease
	if path == "" {
		path = DefaultOSRelease
	}

	env, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return pkgerrors.NewPreconditionError("os", "cannot read "+path+": "+err.Error())
	}

	for _, key := range []string{"ID", "ID_LIKE", "NAME"} {
		if strings.Contains(strings.ToLower(env[key]), "ubuntu") {
			return nil
		}
	}
	return pkgerrors.NewPreconditionError("os", "this installer targets Ubuntu; found "+describe(env))
}

func describe(env map[string]string) string {
	if v := env["PRETTY_NAME"]; v != "" {
		return v
	}
	if v := env["ID"]; v != "" {
		return v
	}
	return "an unknown distribution"
}
