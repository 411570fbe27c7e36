// Package probe answers read-only questions about host state. Every probe
// recomputes its answer and resolves ambiguity toward "not satisfied".
package probe

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
)

// Result is the tri-state outcome of a probe.
type Result int

const (
	// Absent means the resource does not exist.
	Absent Result = iota
	// Present means the resource exists and matches the target.
	Present
	// Invalid means the resource exists but does not match the target.
	Invalid
)

func (r Result) String() string {
	switch r {
	case Present:
		return "present"
	case Invalid:
		return "invalid"
	default:
		return "absent"
	}
}

// Satisfied reports whether no mutation is needed.
func (r Result) Satisfied() bool {
	return r == Present
}

const installedStatus = "install ok installed"

// PackageInstalled queries dpkg for name. Only the exact installed status
// counts; partial matches and query failures are Absent.
func PackageInstalled(ctx context.Context, r hostexec.Runner, name string) Result {
	out := hostexec.Output(ctx, r, "dpkg-query", "-W", "-f=${Status}", name)
	if out == installedStatus {
		return Present
	}
	return Absent
}

// ServiceActive reports whether systemctl prints exactly "active".
func ServiceActive(ctx context.Context, r hostexec.Runner, service string) bool {
	return hostexec.Output(ctx, r, "systemctl", "is-active", service) == "active"
}

// ServiceEnabled reports whether systemctl prints exactly "enabled".
func ServiceEnabled(ctx context.Context, r hostexec.Runner, service string) bool {
	return hostexec.Output(ctx, r, "systemctl", "is-enabled", service) == "enabled"
}

// FileContains is Absent when path does not exist or cannot be read, Present
// when it contains token and Invalid otherwise.
func FileContains(path, token string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Absent
	}
	if strings.Contains(string(data), token) {
		return Present
	}
	return Invalid
}

// FileEquals is Present only when path holds exactly want.
func FileEquals(path string, want []byte) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Absent
	}
	if bytes.Equal(data, want) {
		return Present
	}
	return Invalid
}

// Key formats understood by KeyFile.
const (
	KeyBinary  = "binary"
	KeyArmored = "armored"
)

const (
	armorPrefix       = "-----"
	armoredKeyHeader  = "-----BEGIN PGP PUBLIC KEY BLOCK-----"
	keySniffByteCount = len(armoredKeyHeader)
)

// KeyFile sniffs the leading bytes of a keyring. It is a format check, not a
// cryptographic verification. For KeyBinary any text armor header makes the
// file Invalid; for KeyArmored anything but the public key block header does.
// Empty files are Invalid for both formats.
func KeyFile(path, format string) Result {
	f, err := os.Open(path)
	if err != nil {
		return Absent
	}
	defer f.Close()

	head := make([]byte, keySniffByteCount)
	n, err := io.ReadFull(f, head)
	if err != nil && n == 0 {
		return Invalid
	}
	head = head[:n]

	switch format {
	case KeyArmored:
		if bytes.HasPrefix(head, []byte(armoredKeyHeader)) {
			return Present
		}
		return Invalid
	default:
		if bytes.HasPrefix(head, []byte(armorPrefix)) {
			return Invalid
		}
		return Present
	}
}

// PuppetModuleListed reports whether `puppet module list` mentions module.
func PuppetModuleListed(ctx context.Context, r hostexec.Runner, puppet, modulePath, module string) bool {
	out := hostexec.Output(ctx, r, puppet, "module", "list", "--modulepath", modulePath)
	return out != "" && strings.Contains(out, module)
}
