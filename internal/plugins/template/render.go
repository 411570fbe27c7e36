package templateplugin

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/systemd"
)

//go:embed manifest.pp.tmpl
var manifestTemplate string

var manifestFuncs = template.FuncMap{
	"pq": puppetQuote,
}

// fileLine is a stdlib file_line resource for the defaults-file mechanism.
type fileLine struct {
	Name  string
	Line  string
	Match string
}

type manifestView struct {
	*config.Target
	KeyResource string
	DropInDir   string
	DropIn      string
	Lines       []fileLine
}

// RenderManifest renders the built-in manifest for target. Settings that use
// the systemd-override mechanism land in one drop-in; defaults-file settings
// become file_line resources.
func RenderManifest(target *config.Target) ([]byte, error) {
	view := manifestView{
		Target:    target,
		DropInDir: filepath.Dir(target.Service.DropIn),
	}

	if target.Key.Format == config.KeyFormatArmored {
		view.KeyResource = fmt.Sprintf("File[%s]", puppetQuote(target.Key.Path))
	} else {
		view.KeyResource = "Exec['jenkins-keyring']"
	}

	dropIn, _ := systemd.ParseDropIn(strings.NewReader(""))
	port := strconv.Itoa(target.Settings.Port)
	switch target.Settings.PortMechanism {
	case config.MechanismSystemdOverride:
		dropIn.SetEnv("JENKINS_PORT", port)
	default:
		view.Lines = append(view.Lines, fileLine{Name: "jenkins-http-port", Line: "HTTP_PORT=" + port, Match: "^HTTP_PORT="})
	}

	if target.Settings.DisableWizard {
		switch target.Settings.WizardMechanism {
		case config.MechanismSystemdOverride:
			dropIn.SetEnv("JAVA_OPTS", target.Settings.WizardFlag)
		default:
			view.Lines = append(view.Lines, fileLine{
				Name:  "jenkins-setup-wizard",
				Line:  fmt.Sprintf("JAVA_ARGS=\"-Djava.awt.headless=true %s\"", target.Settings.WizardFlag),
				Match: "^JAVA_ARGS=",
			})
		}
	}

	content, err := dropIn.Bytes()
	if err != nil {
		return nil, fmt.Errorf("render drop-in: %w", err)
	}
	view.DropIn = string(content)

	tmpl, err := template.New("manifest.pp").Funcs(manifestFuncs).Parse(manifestTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse manifest template: %w", err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, view); err != nil {
		return nil, fmt.Errorf("render manifest: %w", err)
	}
	return out.Bytes(), nil
}

// puppetQuote renders s as a double-quoted puppet string.
func puppetQuote(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		`$`, `\$`,
		"\n", `\n`,
		"\t", `\t`,
	)
	return `"` + r.Replace(s) + `"`
}
