package probe

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
)

// EffectiveEnvironment returns the Environment= mapping systemd reports for
// the loaded unit. Query failures yield an empty map.
func EffectiveEnvironment(ctx context.Context, r hostexec.Runner, service string) map[string]string {
	out := hostexec.Output(ctx, r, "systemctl", "show", service, "--property=Environment", "--value")
	return ParseEnvironment(out)
}

// NeedsDaemonReload reports whether systemd flags the unit files as changed
// on disk since the last daemon-reload.
func NeedsDaemonReload(ctx context.Context, r hostexec.Runner, service string) bool {
	out := hostexec.Output(ctx, r, "systemctl", "show", service, "--property=NeedDaemonReload", "--value")
	return out == "yes"
}

// ParseEnvironment splits systemd's space-separated KEY=VALUE list. Double
// quotes group words and backslash escapes the next character.
func ParseEnvironment(s string) map[string]string {
	env := map[string]string{}
	for _, word := range splitWords(s) {
		key, value, ok := strings.Cut(word, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

func splitWords(s string) []string {
	var (
		words   []string
		current strings.Builder
		inQuote bool
		escaped bool
		started bool
	)
	flush := func() {
		if started {
			words = append(words, current.String())
		}
		current.Reset()
		started = false
	}

	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			started = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()
	return words
}
