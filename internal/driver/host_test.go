package driver

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec/hostexectest"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/systemd/systemdtest"
)

const packagedDefaults = `# defaults for Jenkins automation server
NAME=jenkins
JAVA_ARGS="-Djava.awt.headless=true"
JENKINS_HOME=/var/lib/$NAME
HTTP_PORT=8080
`

// fakeHost simulates an Ubuntu host: dpkg state, puppet state and the
// packaged files that installs drop on disk.
type fakeHost struct {
	dir       string
	target    *config.Target
	runner    *hostexectest.Runner
	manager   *systemdtest.Manager
	key       []byte
	server    *httptest.Server
	mu        sync.Mutex
	installed map[string]bool
	modules   bool
	converged bool
}

func newFakeHost(t *testing.T, driverName string) *fakeHost {
	t.Helper()

	dir := t.TempDir()
	target, err := config.Defaults(driverName)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	target.Key.Path = filepath.Join(dir, "usr/share/keyrings/jenkins-keyring.asc")
	target.Repository.File = filepath.Join(dir, "etc/apt/sources.list.d/jenkins.list")
	target.Settings.ConfigFile = filepath.Join(dir, "etc/default/jenkins")
	target.Settings.HomeDir = filepath.Join(dir, "var/lib/jenkins")
	target.Service.DropIn = filepath.Join(dir, "etc/systemd/system/jenkins.service.d/override.conf")
	target.Readiness.URL = server.URL
	target.Readiness.Interval = 10 * time.Millisecond
	target.Readiness.Timeout = 2 * time.Second
	target.Readiness.RequestTimeout = time.Second
	target.Puppet.Binary = filepath.Join(dir, "opt/puppetlabs/bin/puppet")
	target.Puppet.ReleaseDeb = filepath.Join(dir, "tmp/puppet-release.deb")
	target.Puppet.ModuleDir = filepath.Join(dir, "etc/puppetlabs/code/modules")
	target.Puppet.Manifest.Dest = filepath.Join(dir, "tmp/jenkins.pp")
	target.Validations = []config.Validation{
		{Type: "file_exists", Path: target.Settings.HomeDir},
		{Type: "path_contains", Path: target.Repository.File, Text: "pkg.jenkins.io"},
	}

	h := &fakeHost{
		dir:       dir,
		target:    target,
		runner:    hostexectest.New(),
		manager:   systemdtest.New().Watch(target.Service.Name, target.Service.DropIn),
		key:       armoredTestKey(t),
		server:    server,
		installed: map[string]bool{},
	}
	h.script(t)
	return h
}

func (h *fakeHost) script(t *testing.T) {
	bin := h.target.Puppet.Binary

	h.runner.On("dpkg-query", func(argv []string) (string, int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.installed[argv[len(argv)-1]] {
			return "install ok installed", 0
		}
		return "", 1
	})
	h.runner.On("apt-get", func(argv []string) (string, int) {
		idx := slices.Index(argv, "install")
		if idx < 0 {
			return "Reading package lists...", 0
		}
		for _, pkg := range argv[idx+1:] {
			h.install(t, pkg)
		}
		return "", 0
	})
	h.runner.On(bin+" module list", func([]string) (string, int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.modules {
			return "/etc/puppetlabs/code/modules\n└── puppetlabs-apt (v9.4.0)", 0
		}
		return "/etc/puppetlabs/code/modules (no modules installed)", 0
	})
	h.runner.On(bin+" module install", func([]string) (string, int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.modules = true
		return "", 0
	})
	h.runner.On(bin+" apply", func(argv []string) (string, int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.converged {
			return "", 0
		}
		if !slices.Contains(argv, "--noop") {
			h.converged = true
		}
		return "", 2
	})
}

func (h *fakeHost) install(t *testing.T, pkg string) {
	h.mu.Lock()
	h.installed[pkg] = true
	h.mu.Unlock()

	switch pkg {
	case h.target.Packages.Jenkins:
		require.NoError(t, os.MkdirAll(filepath.Dir(h.target.Settings.ConfigFile), 0o755))
		require.NoError(t, os.WriteFile(h.target.Settings.ConfigFile, []byte(packagedDefaults), 0o644))
		require.NoError(t, os.MkdirAll(h.target.Settings.HomeDir, 0o755))
	case h.target.Puppet.AgentPackage:
		require.NoError(t, os.MkdirAll(filepath.Dir(h.target.Puppet.Binary), 0o755))
		require.NoError(t, os.WriteFile(h.target.Puppet.Binary, []byte("#!/bin/sh\n"), 0o755))
		// The manifest installs the service and its repository.
		require.NoError(t, os.MkdirAll(h.target.Settings.HomeDir, 0o755))
		require.NoError(t, os.MkdirAll(filepath.Dir(h.target.Repository.File), 0o755))
		require.NoError(t, os.WriteFile(h.target.Repository.File, []byte(h.target.Repository.Line+"\n"), 0o644))
	}
}

func (h *fakeHost) deps() Deps {
	return Deps{Runner: h.runner, Manager: h.manager, Fetcher: &fakeFetcher{key: h.key}}
}

type fakeFetcher struct {
	key []byte
}

func (f *fakeFetcher) Get(_ context.Context, url string) ([]byte, error) {
	return f.key, nil
}

func (f *fakeFetcher) Download(_ context.Context, url, dest string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(fmt.Sprintf("deb from %s", url)), perm)
}

func armoredTestKey(t *testing.T) []byte {
	t.Helper()

	entity, err := openpgp.NewEntity("Jenkins Test", "", "test@example.invalid", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	require.NoError(t, err)

	var bin bytes.Buffer
	require.NoError(t, entity.Serialize(&bin))

	var arm bytes.Buffer
	w, err := armor.Encode(&arm, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	_, err = w.Write(bin.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return arm.Bytes()
}
