package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type logEntry map[string]any

func TestLoggerInfoWithFields(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log = log.WithFields(map[string]any{"driver": "native", "port": 8000})
	log.Info("converging host")

	var entry logEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "converging host", entry["message"])
	require.Equal(t, "native", entry["driver"])
	require.EqualValues(t, 8000, entry["port"])
	require.Equal(t, "info", entry["level"])
}

func TestLoggerDebugRespectsLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log.Debug("this should not appear")
	require.Equal(t, "", strings.TrimSpace(buf.String()))
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "chatty"})
	require.Error(t, err)
}

func TestLoggerErrorIncludesStep(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "debug", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	log.WithStep("jenkins-key").Error(errors.New("boom"), "failed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "failed", entry["message"])
	require.Equal(t, "jenkins-key", entry["step"])
	require.Equal(t, "boom", entry["error"])
}

func TestLoggerWriterRelaysLines(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	w := log.Writer()
	_, err = fmt.Fprint(w, "Reading package lists...\nBuilding dep")
	require.NoError(t, err)
	_, err = fmt.Fprint(w, "endency tree\n\n")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, "Building dependency tree", entry["message"])
	require.Equal(t, "command", entry["stream"])
}

func TestLoggerWriterFlushesPartialLine(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log, err := New(Options{Level: "info", HumanReadable: false, Writer: buf})
	require.NoError(t, err)

	w := log.Writer()
	_, err = fmt.Fprint(w, "E: Unable to locate package jenkins")
	require.NoError(t, err)
	require.Empty(t, buf.String())

	f, ok := w.(interface{ Flush() error })
	require.True(t, ok)
	require.NoError(t, f.Flush())
	require.NoError(t, f.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry logEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "E: Unable to locate package jenkins", entry["message"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	t.Parallel()

	var log *Logger
	require.NotPanics(t, func() {
		log.Info("ignored")
		log.WithStep("x").Warn("ignored")
		_, _ = log.Writer().Write([]byte("ignored\n"))
	})
}
