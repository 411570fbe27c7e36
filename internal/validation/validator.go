// Package validation runs the post-install checks of a target.
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

// RunValidations executes the provided validations and returns their results.
// The error lists every failed rule.
func RunValidations(ctx context.Context, validations []config.Validation, extraDirs ...string) ([]ValidationResult, error) {
	results := make([]ValidationResult, 0, len(validations))
	var failedMessages []string

	for _, val := range validations {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := ValidationResult{Validation: val}

		var err error
		switch val.Type {
		case "command_exists":
			err = CheckCommandExists(val.Command, extraDirs...)
		case "file_exists":
			err = CheckFileExists(val.Path)
		case "path_contains":
			err = CheckPathContains(val.Path, val.Text)
		default:
			err = pkgerrors.NewValidationError("validations.type", fmt.Sprintf("unknown validation type %q", val.Type), nil)
		}

		if err != nil {
			result.Passed = false
			result.Message = err.Error()
			result.Error = err
			failedMessages = append(failedMessages, err.Error())
		} else {
			result.Passed = true
			result.Message = "passed"
		}

		results = append(results, result)
	}

	if len(failedMessages) > 0 {
		combined := strings.Join(failedMessages, "; ")
		return results, pkgerrors.NewExecutionError("validate", fmt.Errorf("validations failed: %s", combined))
	}

	return results, nil
}
