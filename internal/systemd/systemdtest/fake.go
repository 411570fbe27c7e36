// Package systemdtest provides an in-memory systemd.Manager for tests.
package systemdtest

import (
	"bytes"
	"context"
	"os"
	"sync"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/systemd"
)

// Manager simulates one host's service manager. Drop-ins registered with
// Watch are re-read on DaemonReload; until then their on-disk content is
// reported as pending via NeedsDaemonReload.
type Manager struct {
	mu      sync.Mutex
	active  map[string]bool
	enabled map[string]bool
	env     map[string]map[string]string
	dropIns map[string]string
	loaded  map[string][]byte
	errs    map[string]error
	calls   []string
}

var _ systemd.Manager = (*Manager)(nil)

// New returns a manager with no known services.
func New() *Manager {
	return &Manager{
		active:  map[string]bool{},
		enabled: map[string]bool{},
		env:     map[string]map[string]string{},
		dropIns: map[string]string{},
		loaded:  map[string][]byte{},
		errs:    map[string]error{},
	}
}

// SetActive marks name as running or stopped.
func (m *Manager) SetActive(name string, active bool) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active[name] = active
	return m
}

// SetEnabled marks name as enabled or disabled.
func (m *Manager) SetEnabled(name string, enabled bool) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[name] = enabled
	return m
}

// SetEnvironment replaces the loaded environment of name.
func (m *Manager) SetEnvironment(name string, env map[string]string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env[name] = env
	return m
}

// Watch ties name to a drop-in file. The file's current content counts as
// already loaded.
func (m *Manager) Watch(name, dropIn string) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropIns[name] = dropIn
	data, _ := os.ReadFile(dropIn)
	m.loaded[name] = data
	return m
}

// FailOn makes the named operation ("enable", "start", "restart",
// "daemon-reload") return err.
func (m *Manager) FailOn(op string, err error) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op] = err
	return m
}

// Calls lists mutating operations in order, e.g. "restart jenkins".
func (m *Manager) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *Manager) record(op, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := op
	if name != "" {
		call += " " + name
	}
	m.calls = append(m.calls, call)
	return m.errs[op]
}

func (m *Manager) Enable(_ context.Context, name string) error {
	if err := m.record("enable", name); err != nil {
		return err
	}
	m.SetEnabled(name, true)
	return nil
}

func (m *Manager) Start(_ context.Context, name string) error {
	if err := m.record("start", name); err != nil {
		return err
	}
	m.SetActive(name, true)
	return nil
}

func (m *Manager) Restart(_ context.Context, name string) error {
	if err := m.record("restart", name); err != nil {
		return err
	}
	m.SetActive(name, true)
	return nil
}

// DaemonReload loads every watched drop-in into the service environment.
func (m *Manager) DaemonReload(context.Context) error {
	if err := m.record("daemon-reload", ""); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for name, path := range m.dropIns {
		data, _ := os.ReadFile(path)
		m.loaded[name] = data
		env := map[string]string{}
		if d, err := systemd.ParseDropIn(bytes.NewReader(data)); err == nil {
			for _, key := range d.Keys() {
				v, _ := d.Env(key)
				env[key] = v
			}
		}
		m.env[name] = env
	}
	return nil
}

func (m *Manager) IsActive(_ context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[name]
}

func (m *Manager) IsEnabled(_ context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[name]
}

func (m *Manager) ShowEnvironment(_ context.Context, name string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.env[name] {
		out[k] = v
	}
	return out
}

func (m *Manager) NeedsDaemonReload(_ context.Context, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	path, ok := m.dropIns[name]
	if !ok {
		return false
	}
	data, _ := os.ReadFile(path)
	return !bytes.Equal(data, m.loaded[name])
}
