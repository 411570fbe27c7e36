package systemd

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// dbusConn is the subset of *dbus.Conn used here, so tests can stub it.
type dbusConn interface {
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	RestartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	ReloadContext(ctx context.Context) error
	GetUnitPropertiesContext(ctx context.Context, unit string) (map[string]interface{}, error)
	GetUnitTypePropertiesContext(ctx context.Context, unit string, unitType string) (map[string]interface{}, error)
	Close()
}

// DBus talks to systemd over the system bus.
type DBus struct {
	conn dbusConn
}

var _ Manager = (*DBus)(nil)

// NewDBus connects to the system bus.
func NewDBus(ctx context.Context) (*DBus, error) {
	conn, err := dbus.NewWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect to systemd: %w", err)
	}
	return &DBus{conn: conn}, nil
}

// Close releases the bus connection.
func (d *DBus) Close() {
	d.conn.Close()
}

func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

func (d *DBus) Enable(ctx context.Context, name string) error {
	_, _, err := d.conn.EnableUnitFilesContext(ctx, []string{unitName(name)}, false, false)
	return err
}

func (d *DBus) Start(ctx context.Context, name string) error {
	return d.runJob(ctx, "start", name, d.conn.StartUnitContext)
}

func (d *DBus) Restart(ctx context.Context, name string) error {
	return d.runJob(ctx, "restart", name, d.conn.RestartUnitContext)
}

type jobFunc func(ctx context.Context, name string, mode string, ch chan<- string) (int, error)

func (d *DBus) runJob(ctx context.Context, verb, name string, fn jobFunc) error {
	done := make(chan string, 1)
	if _, err := fn(ctx, unitName(name), "replace", done); err != nil {
		return fmt.Errorf("%s %s: %w", verb, name, err)
	}
	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("%s %s: job %s", verb, name, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DBus) DaemonReload(ctx context.Context) error {
	return d.conn.ReloadContext(ctx)
}

func (d *DBus) unitProperty(ctx context.Context, name, property string) any {
	props, err := d.conn.GetUnitPropertiesContext(ctx, unitName(name))
	if err != nil {
		return nil
	}
	return props[property]
}

func (d *DBus) IsActive(ctx context.Context, name string) bool {
	state, _ := d.unitProperty(ctx, name, "ActiveState").(string)
	return state == "active"
}

func (d *DBus) IsEnabled(ctx context.Context, name string) bool {
	state, _ := d.unitProperty(ctx, name, "UnitFileState").(string)
	return state == "enabled"
}

func (d *DBus) NeedsDaemonReload(ctx context.Context, name string) bool {
	reload, _ := d.unitProperty(ctx, name, "NeedDaemonReload").(bool)
	return reload
}

func (d *DBus) ShowEnvironment(ctx context.Context, name string) map[string]string {
	env := map[string]string{}
	props, err := d.conn.GetUnitTypePropertiesContext(ctx, unitName(name), "Service")
	if err != nil {
		return env
	}
	entries, _ := props["Environment"].([]string)
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if ok && key != "" {
			env[key] = value
		}
	}
	return env
}
