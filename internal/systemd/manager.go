package systemd

import (
	"context"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/probe"
)

// Manager is the service-manager surface the installers rely on. Query
// methods never fail: errors resolve to the negative answer.
type Manager interface {
	Enable(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	DaemonReload(ctx context.Context) error
	IsActive(ctx context.Context, name string) bool
	IsEnabled(ctx context.Context, name string) bool
	ShowEnvironment(ctx context.Context, name string) map[string]string
	NeedsDaemonReload(ctx context.Context, name string) bool
}

// Systemctl drives systemd through the systemctl binary.
type Systemctl struct {
	Runner hostexec.Runner
}

var _ Manager = (*Systemctl)(nil)

// NewSystemctl returns a Manager backed by systemctl.
func NewSystemctl(r hostexec.Runner) *Systemctl {
	return &Systemctl{Runner: r}
}

func (s *Systemctl) Enable(ctx context.Context, name string) error {
	_, err := s.Runner.Run(ctx, "systemctl", "enable", name)
	return err
}

func (s *Systemctl) Start(ctx context.Context, name string) error {
	_, err := s.Runner.Run(ctx, "systemctl", "start", name)
	return err
}

func (s *Systemctl) Restart(ctx context.Context, name string) error {
	_, err := s.Runner.Run(ctx, "systemctl", "restart", name)
	return err
}

func (s *Systemctl) DaemonReload(ctx context.Context) error {
	_, err := s.Runner.Run(ctx, "systemctl", "daemon-reload")
	return err
}

func (s *Systemctl) IsActive(ctx context.Context, name string) bool {
	return probe.ServiceActive(ctx, s.Runner, name)
}

func (s *Systemctl) IsEnabled(ctx context.Context, name string) bool {
	return probe.ServiceEnabled(ctx, s.Runner, name)
}

func (s *Systemctl) ShowEnvironment(ctx context.Context, name string) map[string]string {
	return probe.EffectiveEnvironment(ctx, s.Runner, name)
}

func (s *Systemctl) NeedsDaemonReload(ctx context.Context, name string) bool {
	return probe.NeedsDaemonReload(ctx, s.Runner, name)
}
