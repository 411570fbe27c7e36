package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
)

// Interactive reports whether w is a terminal able to host the progress view.
func Interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// HeaderData feeds the opening banner.
type HeaderData struct {
	Title  string
	Driver string
	Target string
	Port   int
}

// Header renders the banner printed before any step runs.
func Header(d HeaderData) string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(d.Title),
		fmt.Sprintf("%s %s", labelStyle.Render("driver:"), d.Driver),
		fmt.Sprintf("%s %s", labelStyle.Render("target:"), d.Target),
		fmt.Sprintf("%s %d", labelStyle.Render("port:  "), d.Port),
	)
	return bannerStyle.Render(body)
}

// CompletionData feeds the closing banner of a successful run.
type CompletionData struct {
	URL        string
	LogsHint   string
	ConfigPath string
	HomeDir    string
	Report     *model.RunReport
}

// Completion renders where to find the converged service.
func Completion(d CompletionData) string {
	lines := []string{successStyle.Render("✓ Jenkins is ready")}
	if d.Report != nil {
		lines = append(lines, fmt.Sprintf("%s %d step(s) changed, service action %s, %s",
			labelStyle.Render("run:   "), d.Report.MutationCount(), d.Report.Action, d.Report.Duration.Truncate(time.Second)))
	}
	lines = append(lines,
		fmt.Sprintf("%s %s", labelStyle.Render("access:"), d.URL),
		fmt.Sprintf("%s %s", labelStyle.Render("logs:  "), d.LogsHint),
		fmt.Sprintf("%s %s", labelStyle.Render("config:"), d.ConfigPath),
		fmt.Sprintf("%s %s", labelStyle.Render("home:  "), d.HomeDir),
	)
	return bannerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Console prints one line per step event. It is the non-interactive
// rendering of the pipeline.
type Console struct {
	out io.Writer
}

// NewConsole writes step lines to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// StepStarted prints the step banner.
func (c *Console) StepStarted(meta plugin.Metadata) {
	fmt.Fprintf(c.out, "%s %s\n", arrowStyle.Render("==>"), meta.Description)
}

// StepFinished prints the outcome line of a step.
func (c *Console) StepFinished(meta plugin.Metadata, res model.StepResult) {
	fmt.Fprintln(c.out, StepLine(meta.Name, res))
}

// StepLine renders res the way Console prints it.
func StepLine(name string, res model.StepResult) string {
	msg := strings.TrimSpace(res.Message)
	switch res.Status {
	case model.StatusSkipped:
		line := "    " + skippedStyle.Render("SKIP") + " " + name
		if msg != "" {
			line += " (" + msg + ")"
		}
		return line
	case model.StatusFailed:
		line := "    " + failureStyle.Render("✗") + " " + name
		if msg != "" {
			line += ": " + msg
		}
		return line
	default:
		line := "    " + successStyle.Render("✓") + " " + name
		if msg != "" {
			line += " " + msg
		}
		return line
	}
}

// Verification renders one read-only evaluation for verify and dry-run.
func Verification(r *model.VerificationResult, withDiff bool) string {
	var icon string
	switch r.Status {
	case model.StatusSatisfied:
		icon = successStyle.Render("✓")
	case model.StatusUnknown:
		icon = pendingStyle.Render("?")
	default:
		icon = failureStyle.Render("✗")
	}
	line := fmt.Sprintf("%s %s [%s] %s", icon, r.StepID, r.Status, r.Message)
	if withDiff && strings.TrimSpace(r.Details) != "" {
		line += "\n" + indent(r.Details, "    ")
	}
	return line
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
