package validation

import "github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"

// ValidationResult captures the outcome of executing a single validation rule.
type ValidationResult struct {
	Validation config.Validation
	Passed     bool
	Message    string
	Error      error
}

// Describe renders the rule for console output.
func (r ValidationResult) Describe() string {
	v := r.Validation
	switch v.Type {
	case "command_exists":
		return "command " + v.Command
	case "file_exists":
		return "path " + v.Path
	case "path_contains":
		return v.Path + " contains " + v.Text
	default:
		return v.Type
	}
}
