package fsutil

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders a unified diff between two texts labelled with path.
// It returns "" when the texts are equal.
func UnifiedDiff(path, before, after string) string {
	if before == after {
		return ""
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: path + " (current)",
		ToFile:   path + " (desired)",
		Context:  3,
	}
	diff, _ := difflib.GetUnifiedDiffString(ud)
	return strings.TrimSpace(diff)
}
