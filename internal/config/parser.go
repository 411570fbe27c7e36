package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// Load builds the driver defaults, overlays the YAML file at path when path
// is non-empty, and validates the result.
func Load(driver, path string) (*Target, error) {
	target, err := Defaults(driver)
	if err != nil {
		return nil, pkgerrors.NewValidationError("driver", err.Error(), err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, pkgerrors.NewParseError(path, 0, err)
		}
		if err := Overlay(target, data); err != nil {
			return nil, pkgerrors.NewParseError(path, extractLine(err), err)
		}
		if target.Driver != driver {
			return nil, pkgerrors.NewValidationError("driver", fmt.Sprintf("file targets driver %q but this binary runs %q", target.Driver, driver), nil)
		}
	}

	if err := Validate(target); err != nil {
		return nil, err
	}

	return target, nil
}

// Overlay decodes data on top of t. Keys absent from data keep their value.
func Overlay(t *Target, data []byte) error {
	return yaml.Unmarshal(data, t)
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
