package hostexec

import "context"

var aptOptions = []string{
	"--option=Dpkg::Options::=--force-confold",
	"--assume-yes",
	"--quiet",
}

// AptUpdate refreshes the package index.
func AptUpdate(ctx context.Context, r Runner) error {
	_, err := r.Run(ctx, append([]string{"apt-get"}, append(aptOptions, "update")...)...)
	return err
}

// AptInstall installs packages non-interactively.
func AptInstall(ctx context.Context, r Runner, packages ...string) error {
	argv := append([]string{"apt-get"}, aptOptions...)
	argv = append(argv, "install")
	argv = append(argv, packages...)
	_, err := r.Run(ctx, argv...)
	return err
}

// DpkgInstall installs a local .deb file.
func DpkgInstall(ctx context.Context, r Runner, path string) error {
	_, err := r.Run(ctx, "dpkg", "-i", path)
	return err
}
