// Package hostexec runs external commands with an explicit execution context.
package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// ExecContext carries the environment every command runs with. It replaces
// mutation of the process environment: callers build one value at start-up
// and thread it into each invocation.
type ExecContext struct {
	// Env holds KEY=VALUE pairs layered over the inherited environment.
	Env []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Output receives combined stdout/stderr as it is produced.
	Output io.Writer
}

// NonInteractive returns the context used for package-manager operations.
func NonInteractive(output io.Writer) ExecContext {
	return ExecContext{
		Env:    []string{"DEBIAN_FRONTEND=noninteractive"},
		Output: output,
	}
}

// With returns a copy of c with extra environment entries appended.
func (c ExecContext) With(env ...string) ExecContext {
	out := c
	out.Env = append(append([]string(nil), c.Env...), env...)
	return out
}

// Environ returns the full environment for a child process.
func (c ExecContext) Environ() []string {
	return append(os.Environ(), c.Env...)
}

// Result captures the output of a finished command.
type Result struct {
	Argv     []string
	Output   string
	ExitCode int
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Argv     []string
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s: exit status %d", strings.Join(e.Argv, " "), e.ExitCode)
	if e.Output != "" {
		msg += ": " + lastLine(e.Output)
	}
	return msg
}

// Runner executes a command and waits for it.
type Runner interface {
	Run(ctx context.Context, argv ...string) (Result, error)
}

// CommandRunner runs real processes with a fixed ExecContext.
type CommandRunner struct {
	Context ExecContext
}

// NewRunner returns a CommandRunner bound to ec.
func NewRunner(ec ExecContext) *CommandRunner {
	return &CommandRunner{Context: ec}
}

// Run executes argv. A non-zero exit yields an *ExitError; failures to
// start the process are returned as-is.
func (r *CommandRunner) Run(ctx context.Context, argv ...string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = r.Context.Environ()
	cmd.Dir = r.Context.Dir

	var buf bytes.Buffer
	var out io.Writer = &buf
	if r.Context.Output != nil {
		out = io.MultiWriter(&buf, r.Context.Output)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if f, ok := r.Context.Output.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
	res := Result{Argv: argv, Output: strings.TrimSpace(buf.String())}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ExitError{Argv: argv, ExitCode: res.ExitCode, Output: res.Output}
	}
	res.ExitCode = -1
	return res, err
}

// Output runs argv and returns trimmed output, ignoring the exit status.
// Probes use it: any failure resolves to empty output.
func Output(ctx context.Context, r Runner, argv ...string) string {
	res, err := r.Run(ctx, argv...)
	if err != nil {
		return ""
	}
	return res.Output
}

// Fail converts a command error into the execution error reported for stepID,
// preserving the command's exit code.
func Fail(stepID string, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return pkgerrors.NewCommandError(stepID, exitErr.Argv, exitErr.ExitCode, err)
	}
	return pkgerrors.NewExecutionError(stepID, err)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
