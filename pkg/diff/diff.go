// Package diff renders line-oriented diffs of whole documents, used to show
// how a fetched manifest differs from the copy on disk.
package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	maxDiffLines    = 2000
	truncateMessage = "... (diff truncated) ..."
)

// Lines returns a diff of before and after where every line is prefixed
// with ' ', '-' or '+'. It returns "" when the content is identical and
// truncates output longer than maxDiffLines.
func Lines(before, after []byte, beforeLabel, afterLabel string) string {
	if bytes.Equal(before, after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	var out []string
	out = append(out, "--- "+beforeLabel, "+++ "+afterLabel)
	added, removed := 0, 0
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitKeepEmpty(d.Text) {
			out = append(out, prefix+line)
			switch prefix {
			case "-":
				removed++
			case "+":
				added++
			}
		}
	}

	if len(out) > maxDiffLines {
		out = append(out[:maxDiffLines], truncateMessage)
	}
	out = append(out, fmt.Sprintf("(%d added, %d removed)", added, removed))
	return strings.Join(out, "\n")
}

func splitKeepEmpty(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
