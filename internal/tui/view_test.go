package tui

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
)

func TestViewListsStepsWithDescriptions(t *testing.T) {
	t.Parallel()

	m := NewModel("jenkins-bootstrap", nativeSteps())
	updated, _ := m.Update(StepCompleteMsg{Result: model.StepResult{StepID: "java", Status: model.StatusSkipped, Duration: 120 * time.Millisecond}})
	view := updated.(Model).View()

	require.Contains(t, view, "jenkins-bootstrap")
	require.Contains(t, view, "1/3 steps")
	require.Contains(t, view, "java")
	require.Contains(t, view, "Install Java runtime")
	require.Contains(t, view, "120ms")
	require.NotContains(t, view, "Service action")
}

func TestViewShowsSummaryWhenFinished(t *testing.T) {
	t.Parallel()

	m := NewModel("x", nativeSteps())
	updated, _ := m.Update(RunDoneMsg{Err: errors.New("apt-get exited 100")})
	view := updated.(Model).View()
	require.Contains(t, view, "apt-get exited 100")
}

func TestStatusIcon(t *testing.T) {
	t.Parallel()

	require.Contains(t, StatusIcon(model.StatusSuccess), "✓")
	require.Contains(t, StatusIcon(model.StatusFailed), "✗")
	require.Contains(t, StatusIcon(model.StatusSkipped), "⊘")
	require.Contains(t, StatusIcon(model.StatusPending), "…")
}
