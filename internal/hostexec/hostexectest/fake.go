// Package hostexectest provides a scriptable hostexec.Runner for tests.
package hostexectest

import (
	"context"
	"strings"
	"sync"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
)

// Handler answers one command. Returning a non-zero code makes Run fail
// with a *hostexec.ExitError.
type Handler func(argv []string) (output string, exitCode int)

// Runner records every command and dispatches to handlers keyed by prefix.
type Runner struct {
	mu       sync.Mutex
	handlers []prefixHandler
	calls    [][]string
}

type prefixHandler struct {
	prefix string
	fn     Handler
}

// New returns an empty fake; unmatched commands succeed with no output.
func New() *Runner {
	return &Runner{}
}

// On registers fn for commands whose joined argv starts with prefix. Later
// registrations win.
func (r *Runner) On(prefix string, fn Handler) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, prefixHandler{prefix: prefix, fn: fn})
	return r
}

// Reply registers a fixed answer for prefix.
func (r *Runner) Reply(prefix, output string, exitCode int) *Runner {
	return r.On(prefix, func([]string) (string, int) { return output, exitCode })
}

// Run implements hostexec.Runner.
func (r *Runner) Run(_ context.Context, argv ...string) (hostexec.Result, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]string(nil), argv...))
	var fn Handler
	joined := strings.Join(argv, " ")
	for i := len(r.handlers) - 1; i >= 0; i-- {
		if strings.HasPrefix(joined, r.handlers[i].prefix) {
			fn = r.handlers[i].fn
			break
		}
	}
	r.mu.Unlock()

	if fn == nil {
		return hostexec.Result{Argv: argv}, nil
	}
	out, code := fn(argv)
	res := hostexec.Result{Argv: argv, Output: out, ExitCode: code}
	if code != 0 {
		return res, &hostexec.ExitError{Argv: argv, ExitCode: code, Output: out}
	}
	return res, nil
}

// Calls returns every command seen so far, joined with spaces.
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}

// CallsWithPrefix returns the recorded commands starting with prefix.
func (r *Runner) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range r.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps handlers.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
