package plugin

import (
	"fmt"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Metadata describes a pipeline step.
type Metadata struct {
	Name        string
	Description string
	// AffectsService marks steps whose mutations change the runtime
	// behaviour of the managed service.
	AffectsService bool
}

// Validate ensures metadata is well-formed.
func (m Metadata) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("step metadata requires a non-empty Name")
	}
	if !namePattern.MatchString(m.Name) {
		return fmt.Errorf("step '%s' has invalid Name (expected lowercase words joined by '-')", m.Name)
	}
	if strings.TrimSpace(m.Description) == "" {
		return fmt.Errorf("step '%s' metadata requires Description", m.Name)
	}
	return nil
}
