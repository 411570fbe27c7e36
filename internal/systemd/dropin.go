// Package systemd renders unit drop-ins and drives the service manager.
package systemd

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/probe"
)

const serviceSection = "Service"

// DropIn is a parsed unit drop-in. Options other than [Service]
// Environment= are preserved verbatim.
type DropIn struct {
	options []*unit.UnitOption
}

// ParseDropIn reads a drop-in. An empty reader yields an empty DropIn.
func ParseDropIn(r io.Reader) (*DropIn, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &DropIn{}, nil
	}
	opts, err := unit.DeserializeOptions(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse drop-in: %w", err)
	}
	return &DropIn{options: opts}, nil
}

// Env returns the value the drop-in assigns to key. Later assignments win,
// as they do in systemd.
func (d *DropIn) Env(key string) (string, bool) {
	var (
		value string
		found bool
	)
	for _, opt := range d.options {
		if opt.Section != serviceSection || opt.Name != "Environment" {
			continue
		}
		if v, ok := probe.ParseEnvironment(opt.Value)[key]; ok {
			value, found = v, true
		}
	}
	return value, found
}

// Keys lists the environment variables the drop-in assigns, sorted.
func (d *DropIn) Keys() []string {
	seen := map[string]struct{}{}
	for _, opt := range d.options {
		if opt.Section != serviceSection || opt.Name != "Environment" {
			continue
		}
		for k := range probe.ParseEnvironment(opt.Value) {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetEnv assigns key=value. It reports whether the drop-in changed.
func (d *DropIn) SetEnv(key, value string) bool {
	if current, ok := d.Env(key); ok && current == value {
		return false
	}

	for _, opt := range d.options {
		if opt.Section != serviceSection || opt.Name != "Environment" {
			continue
		}
		env := probe.ParseEnvironment(opt.Value)
		if _, ok := env[key]; !ok {
			continue
		}
		env[key] = value
		opt.Value = formatEnvironment(env)
	}

	if current, ok := d.Env(key); !ok || current != value {
		d.options = append(d.options, unit.NewUnitOption(serviceSection, "Environment", formatEnvironment(map[string]string{key: value})))
	}
	return true
}

// Bytes serializes the drop-in.
func (d *DropIn) Bytes() ([]byte, error) {
	if len(d.options) == 0 {
		return nil, nil
	}
	return io.ReadAll(unit.Serialize(d.options))
}

func formatEnvironment(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	words := make([]string, 0, len(keys))
	for _, k := range keys {
		word := k + "=" + env[k]
		if strings.ContainsAny(word, " \t\"\\") {
			word = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(word) + `"`
		}
		words = append(words, word)
	}
	return strings.Join(words, " ")
}
