package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec/hostexectest"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPackageInstalled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		output string
		code   int
		want   Result
	}{
		{"exact status", "install ok installed", 0, Present},
		{"half-installed", "install ok half-installed", 0, Absent},
		{"deinstalled with config", "deinstall ok config-files", 0, Absent},
		{"unknown package", "dpkg-query: no packages found matching jenkins", 1, Absent},
		{"empty output", "", 0, Absent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := hostexectest.New().Reply("dpkg-query", tt.output, tt.code)
			assert.Equal(t, tt.want, PackageInstalled(context.Background(), r, "jenkins"))
			assert.Equal(t, []string{"dpkg-query -W -f=${Status} jenkins"}, r.Calls())
		})
	}
}

func TestServiceStateRequiresExactMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	r := hostexectest.New().
		Reply("systemctl is-active", "active", 0).
		Reply("systemctl is-enabled", "enabled", 0)
	assert.True(t, ServiceActive(ctx, r, "jenkins"))
	assert.True(t, ServiceEnabled(ctx, r, "jenkins"))

	r = hostexectest.New().
		Reply("systemctl is-active", "activating", 3).
		Reply("systemctl is-enabled", "enabled-runtime", 0)
	assert.False(t, ServiceActive(ctx, r, "jenkins"))
	assert.False(t, ServiceEnabled(ctx, r, "jenkins"))

	r = hostexectest.New().Reply("systemctl", "", 1)
	assert.False(t, ServiceActive(ctx, r, "jenkins"))
	assert.False(t, ServiceEnabled(ctx, r, "jenkins"))
}

func TestFileContains(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "deb [signed-by=/usr/share/keyrings/jenkins-keyring.asc] https://pkg.jenkins.io/debian-stable binary/\n")
	assert.Equal(t, Present, FileContains(path, "jenkins"))
	assert.Equal(t, Invalid, FileContains(path, "puppet"))
	assert.Equal(t, Absent, FileContains(filepath.Join(t.TempDir(), "missing.list"), "jenkins"))
}

func TestFileEquals(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "node default {}\n")
	assert.Equal(t, Present, FileEquals(path, []byte("node default {}\n")))
	assert.Equal(t, Invalid, FileEquals(path, []byte("node default { }\n")))
	assert.Equal(t, Absent, FileEquals(filepath.Join(t.TempDir(), "x.pp"), nil))
}

func TestKeyFileFormatPolarity(t *testing.T) {
	t.Parallel()

	armored := writeFile(t, "-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nmQINBGP...\n")
	binary := writeFile(t, "\x99\x02\x0d\x04\x63\x9a\x1b\x2c")
	empty := writeFile(t, "")
	otherArmor := writeFile(t, "-----BEGIN PGP SIGNATURE-----\n")
	missing := filepath.Join(t.TempDir(), "jenkins-keyring.asc")

	assert.Equal(t, Invalid, KeyFile(armored, KeyBinary), "binary-expecting driver rejects armor")
	assert.Equal(t, Present, KeyFile(armored, KeyArmored), "armored-expecting driver accepts armor")

	assert.Equal(t, Present, KeyFile(binary, KeyBinary))
	assert.Equal(t, Invalid, KeyFile(binary, KeyArmored))

	assert.Equal(t, Invalid, KeyFile(otherArmor, KeyArmored))
	assert.Equal(t, Invalid, KeyFile(empty, KeyBinary))
	assert.Equal(t, Invalid, KeyFile(empty, KeyArmored))
	assert.Equal(t, Absent, KeyFile(missing, KeyBinary))
}

func TestParseEnvironment(t *testing.T) {
	t.Parallel()

	env := ParseEnvironment(`JENKINS_PORT=8000 "JAVA_OPTS=-Djava.awt.headless=true -Djenkins.install.runSetupWizard=false" EMPTY= =skip`)
	assert.Equal(t, map[string]string{
		"JENKINS_PORT": "8000",
		"JAVA_OPTS":    "-Djava.awt.headless=true -Djenkins.install.runSetupWizard=false",
		"EMPTY":        "",
	}, env)

	assert.Empty(t, ParseEnvironment(""))
}

func TestEffectiveEnvironmentAndReload(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := hostexectest.New().
		Reply("systemctl show jenkins --property=Environment", "JENKINS_PORT=8000", 0).
		Reply("systemctl show jenkins --property=NeedDaemonReload", "yes", 0)

	assert.Equal(t, map[string]string{"JENKINS_PORT": "8000"}, EffectiveEnvironment(ctx, r, "jenkins"))
	assert.True(t, NeedsDaemonReload(ctx, r, "jenkins"))

	failing := hostexectest.New().Reply("systemctl", "Failed to connect to bus", 1)
	assert.Empty(t, EffectiveEnvironment(ctx, failing, "jenkins"))
	assert.False(t, NeedsDaemonReload(ctx, failing, "jenkins"))
}

func TestPuppetModuleListed(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	listed := hostexectest.New().Reply("/opt/puppetlabs/bin/puppet module list", "/etc/puppetlabs/code/modules\n├── puppetlabs-apt (v9.4.0)\n└── puppetlabs-stdlib (v9.6.0)", 0)
	assert.True(t, PuppetModuleListed(ctx, listed, "/opt/puppetlabs/bin/puppet", "/etc/puppetlabs/code/modules", "puppetlabs-apt"))

	empty := hostexectest.New().Reply("/opt/puppetlabs/bin/puppet module list", "/etc/puppetlabs/code/modules (no modules installed)", 0)
	assert.False(t, PuppetModuleListed(ctx, empty, "/opt/puppetlabs/bin/puppet", "/etc/puppetlabs/code/modules", "puppetlabs-apt"))

	missing := hostexectest.New().Reply("/opt/puppetlabs/bin/puppet", "", 127)
	assert.False(t, PuppetModuleListed(ctx, missing, "/opt/puppetlabs/bin/puppet", "/etc/puppetlabs/code/modules", "puppetlabs-apt"))
}
