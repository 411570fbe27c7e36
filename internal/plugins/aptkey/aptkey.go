// Package aptkeyplugin installs the OpenPGP keyring that signs an apt repository.
package aptkeyplugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/hostexec"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/logger"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/plugin"
	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/probe"
	pkgerrors "github.com/alexisbeaulieu97/jenkins-bootstrap/pkg/errors"
)

const keyringMode = 0o644

// Getter downloads a resource.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Options configures the key step.
type Options struct {
	Step   string
	URL    string
	Path   string
	Format string
	Getter Getter
	Runner hostexec.Runner
	Log    *logger.Logger
}

type aptKeyPlugin struct {
	opts Options
}

// New creates the keyring step.
func New(opts Options) plugin.Plugin {
	return &aptKeyPlugin{opts: opts}
}

var _ plugin.Plugin = (*aptKeyPlugin)(nil)

func (p *aptKeyPlugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        p.opts.Step,
		Description: fmt.Sprintf("Install %s repository keyring at %s", p.opts.Format, p.opts.Path),
	}
}

func (p *aptKeyPlugin) Evaluate(ctx context.Context) (*model.EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, plugin.NewStateError(p.opts.Step, fmt.Errorf("context cancelled: %w", err))
	}

	switch probe.KeyFile(p.opts.Path, p.opts.Format) {
	case probe.Present:
		return &model.EvaluationResult{
			StepID:       p.opts.Step,
			CurrentState: model.StatusSatisfied,
			Message:      fmt.Sprintf("%s keyring present at %s", p.opts.Format, p.opts.Path),
		}, nil
	case probe.Invalid:
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusInvalid,
			RequiresAction: true,
			Message:        fmt.Sprintf("keyring at %s is not %s", p.opts.Path, p.opts.Format),
			Diff:           fmt.Sprintf("Would replace %s with a %s keyring from %s", p.opts.Path, p.opts.Format, p.opts.URL),
		}, nil
	default:
		return &model.EvaluationResult{
			StepID:         p.opts.Step,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Message:        fmt.Sprintf("keyring missing at %s", p.opts.Path),
			Diff:           fmt.Sprintf("Would download %s to %s", p.opts.URL, p.opts.Path),
		}, nil
	}
}

func (p *aptKeyPlugin) Apply(ctx context.Context, _ *model.EvaluationResult) (*model.StepResult, error) {
	p.opts.Log.Infof("downloading repository key from %s", p.opts.URL)
	raw, err := p.opts.Getter.Get(ctx, p.opts.URL)
	if err != nil {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("download key: %w", err)))
	}

	keyring, err := Convert(raw, p.opts.Format)
	if err != nil {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, err))
	}

	if err := fsutil.WriteFileAtomic(p.opts.Path, keyring, keyringMode); err != nil {
		return p.failed(pkgerrors.NewExecutionError(p.opts.Step, fmt.Errorf("write keyring: %w", err)))
	}

	p.opts.Log.Info("refreshing package index")
	if err := hostexec.AptUpdate(ctx, p.opts.Runner); err != nil {
		return p.failed(hostexec.Fail(p.opts.Step, err))
	}

	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusSuccess,
		Message: fmt.Sprintf("installed %s keyring at %s", p.opts.Format, p.opts.Path),
	}, nil
}

func (p *aptKeyPlugin) failed(err error) (*model.StepResult, error) {
	return &model.StepResult{
		StepID:  p.opts.Step,
		Status:  model.StatusFailed,
		Message: "failed to install repository keyring",
		Error:   err,
	}, err
}

// Convert turns downloaded key material into a keyring of the requested
// format: binary keyrings are de-armored, armored keyrings are armored when
// the download was binary. The result must parse as at least one public key.
func Convert(raw []byte, format string) ([]byte, error) {
	binary, err := dearmor(raw)
	if err != nil {
		return nil, err
	}

	entities, err := openpgp.ReadKeyRing(bytes.NewReader(binary))
	if err != nil {
		return nil, fmt.Errorf("parse keyring: %w", err)
	}
	if len(entities) == 0 {
		return nil, errors.New("parse keyring: no public keys found")
	}

	if format != probe.KeyArmored {
		return binary, nil
	}
	if isArmored(raw) {
		// The probe expects the armor header at the first byte.
		return bytes.TrimLeft(raw, " \t\r\n"), nil
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(binary); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dearmor(raw []byte) ([]byte, error) {
	if !isArmored(raw) {
		return raw, nil
	}
	block, err := armor.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode armored key: %w", err)
	}
	if block.Type != openpgp.PublicKeyType {
		return nil, fmt.Errorf("decode armored key: unexpected block type %q", block.Type)
	}
	return io.ReadAll(block.Body)
}

func isArmored(raw []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(raw, " \t\r\n"), []byte("-----"))
}
