package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	aptSourcePattern = regexp.MustCompile(`^deb(-src)?\s+(\[[^\]]*\]\s+)?\S+://\S+\s+\S+`)
)

// validatorInstance configures and returns the shared validator instance used across the config package.
func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("key_format", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case KeyFormatBinary, KeyFormatArmored:
				return true
			}
			return false
		})

		_ = v.RegisterValidation("mechanism", func(fl validator.FieldLevel) bool {
			switch fl.Field().String() {
			case MechanismDefaultsFile, MechanismSystemdOverride:
				return true
			}
			return false
		})

		_ = v.RegisterValidation("apt_source", func(fl validator.FieldLevel) bool {
			return aptSourcePattern.MatchString(strings.TrimSpace(fl.Field().String()))
		})

		_ = v.RegisterValidation("abs_path", func(fl validator.FieldLevel) bool {
			p := fl.Field().String()
			return filepath.IsAbs(p) && !strings.Contains(p, "\x00")
		})

		validateInst = v
	})

	return validateInst
}

// Validate performs schema and cross-field validation on the target.
func Validate(t *Target) error {
	if t == nil {
		return pkgerrors.NewValidationError("target", "target is nil", nil)
	}

	if err := validatorInstance().Struct(t); err != nil {
		return convertValidationError(err)
	}

	if t.Key.Format == KeyFormatBinary && strings.Contains(t.Repository.Line, "signed-by=") &&
		!strings.Contains(t.Repository.Line, "signed-by="+t.Key.Path) {
		return pkgerrors.NewValidationError("repository.line", fmt.Sprintf("signed-by must reference %s", t.Key.Path), nil)
	}

	if !strings.Contains(t.Repository.Line, t.Repository.Token) {
		return pkgerrors.NewValidationError("repository.token", fmt.Sprintf("token %q does not occur in the repository line", t.Repository.Token), nil)
	}

	if t.Puppet.Manifest.Source == ManifestHTTP && t.Puppet.Manifest.URL == "" {
		return pkgerrors.NewValidationError("puppet.manifest.url", "required when source is http", nil)
	}

	if t.Settings.DefaultPort == t.Settings.Port {
		return pkgerrors.NewValidationError("settings.default_port", "must differ from settings.port", nil)
	}

	return nil
}

func convertValidationError(err error) error {
	if err == nil {
		return nil
	}

	if ves, ok := err.(validator.ValidationErrors); ok {
		ve := ves[0]
		field := yamlishFieldName(ve)
		msg := fmt.Sprintf("%s failed validation for tag '%s'", field, ve.Tag())
		return pkgerrors.NewValidationError(field, msg, err)
	}

	return pkgerrors.NewValidationError("target", err.Error(), err)
}

func yamlishFieldName(fe validator.FieldError) string {
	ns := fe.StructNamespace()
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	var lowered []string
	for _, part := range parts {
		lowered = append(lowered, toSnake(part))
	}
	return strings.Join(lowered, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && s[i-1] >= 'a' && s[i-1] <= 'z' {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
