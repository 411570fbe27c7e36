// Package settings models a shell-style KEY=VALUE defaults file such as
// /etc/default/jenkins as a small structured document.
package settings

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
)

// Change describes which tier of the replace-or-append policy fired.
type Change string

const (
	// Unchanged means the desired value was already present.
	Unchanged Change = "unchanged"
	// ReplacedDefault means the packaged default value was swapped in place.
	ReplacedDefault Change = "replaced-default"
	// ReplacedValue means some other value was rewritten by pattern.
	ReplacedValue Change = "replaced-value"
	// Appended means the key was missing and a new line was added.
	Appended Change = "appended"
)

var assignmentPattern = regexp.MustCompile(`^\s*(?:export\s+)?([A-Za-z_][A-Za-z0-9_]*)=`)

type line struct {
	text  string
	key   string
	value string
}

// Document is a parsed defaults file. Only assignment lines are interpreted;
// comments and shell logic are carried through untouched.
type Document struct {
	lines    []line
	trailing bool
}

// Parse builds a Document from file content.
func Parse(content string) *Document {
	raw, trailing := fsutil.SplitLines(content)
	doc := &Document{lines: make([]line, 0, len(raw)), trailing: trailing}
	for _, text := range raw {
		doc.lines = append(doc.lines, parseLine(text))
	}
	return doc
}

func parseLine(text string) line {
	l := line{text: text}
	m := assignmentPattern.FindStringSubmatch(text)
	if m == nil {
		return l
	}
	l.key = m[1]
	// godotenv understands quoting and inline comments; a line it rejects is
	// kept as an opaque assignment with its raw right-hand side.
	values, err := godotenv.Unmarshal(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "export ")))
	if err == nil {
		if v, ok := values[l.key]; ok {
			l.value = v
			return l
		}
	}
	l.value = strings.TrimSpace(text[len(m[0]):])
	return l
}

// Get returns the value of the last assignment to key.
func (d *Document) Get(key string) (string, bool) {
	for i := len(d.lines) - 1; i >= 0; i-- {
		if d.lines[i].key == key {
			return d.lines[i].value, true
		}
	}
	return "", false
}

// Keys lists assigned keys in file order without duplicates.
func (d *Document) Keys() []string {
	seen := map[string]struct{}{}
	var keys []string
	for _, l := range d.lines {
		if l.key == "" {
			continue
		}
		if _, ok := seen[l.key]; ok {
			continue
		}
		seen[l.key] = struct{}{}
		keys = append(keys, l.key)
	}
	return keys
}

// Has reports whether the effective (last) assignment of key is value.
func (d *Document) Has(key, value string) bool {
	current, ok := d.Get(key)
	return ok && current == value
}

// Ensure sets key to value using the replace-or-append policy:
//  1. key effectively assigned value: nothing changes.
//  2. key effectively assigned defaultValue: those assignments are replaced
//     in place.
//  3. key assigned anything else: the value is rewritten by pattern.
//  4. key absent: KEY=value is appended.
//
// An empty defaultValue skips tier 2.
func (d *Document) Ensure(key, value, defaultValue string) Change {
	if d.Has(key, value) {
		return Unchanged
	}

	if defaultValue != "" && d.Has(key, defaultValue) {
		for i, l := range d.lines {
			if l.key != key || l.value != defaultValue {
				continue
			}
			d.lines[i] = parseLine(strings.Replace(l.text, key+"="+defaultValue, key+"="+value, 1))
			if d.lines[i].value != value {
				d.lines[i] = parseLine(key + "=" + value)
			}
		}
		return ReplacedDefault
	}

	pattern := regexp.MustCompile(`^(\s*(?:export\s+)?` + regexp.QuoteMeta(key) + `=)\S*`)
	replaced := false
	for i, l := range d.lines {
		if l.key != key {
			continue
		}
		d.lines[i] = parseLine(pattern.ReplaceAllString(l.text, "${1}"+escapeReplacement(value)))
		replaced = true
	}
	if replaced {
		return ReplacedValue
	}

	d.append(key + "=" + value)
	return Appended
}

// EnsureFlag makes sure flag occurs in the value of key, for variables that
// hold a space-separated option list such as JAVA_ARGS. When any assignment
// already carries the flag nothing changes. Otherwise the flag is appended
// inside the quotes of the first KEY="..." line, or a new quoted line is
// appended.
func (d *Document) EnsureFlag(key, flag string) Change {
	for _, l := range d.lines {
		if l.key != "" && containsField(l.value, flag) {
			return Unchanged
		}
	}

	quoted := regexp.MustCompile(`^(\s*(?:export\s+)?` + regexp.QuoteMeta(key) + `="[^"]*)"`)
	for i, l := range d.lines {
		if l.key != key || !quoted.MatchString(l.text) {
			continue
		}
		d.lines[i] = parseLine(quoted.ReplaceAllString(l.text, "${1} "+escapeReplacement(flag)+`"`))
		return ReplacedValue
	}

	d.append(fmt.Sprintf("%s=%q", key, flag))
	return Appended
}

func (d *Document) append(text string) {
	d.lines = append(d.lines, parseLine(text))
	d.trailing = true
}

// String serializes the document.
func (d *Document) String() string {
	raw := make([]string, len(d.lines))
	for i, l := range d.lines {
		raw[i] = l.text
	}
	return fsutil.JoinLines(raw, d.trailing)
}

func containsField(value, flag string) bool {
	for _, f := range strings.Fields(value) {
		if f == flag {
			return true
		}
	}
	return false
}

func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
