package templateplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/config"
)

// Source produces manifest content.
type Source interface {
	// Describe names the origin for logs and diffs.
	Describe() string
	Load(ctx context.Context) ([]byte, error)
}

// Getter downloads a resource over HTTP.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// EmbeddedSource renders the built-in manifest from the target.
type EmbeddedSource struct {
	Target *config.Target
}

func (s EmbeddedSource) Describe() string { return "embedded manifest" }

func (s EmbeddedSource) Load(context.Context) ([]byte, error) {
	return RenderManifest(s.Target)
}

// HTTPSource downloads the manifest.
type HTTPSource struct {
	URL    string
	Getter Getter
}

func (s HTTPSource) Describe() string { return s.URL }

func (s HTTPSource) Load(ctx context.Context) ([]byte, error) {
	return s.Getter.Get(ctx, s.URL)
}

// GitSource reads Path from a fresh clone of Repository at Ref.
type GitSource struct {
	Repository string
	Ref        string
	Path       string
}

func (s GitSource) Describe() string {
	if s.Ref == "" {
		return fmt.Sprintf("%s:%s", s.Repository, s.Path)
	}
	return fmt.Sprintf("%s@%s:%s", s.Repository, s.Ref, s.Path)
}

func (s GitSource) Load(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "jenkins-manifest-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	cloneOpts := &git.CloneOptions{
		URL:          s.Repository,
		SingleBranch: true,
	}
	if s.Ref != "" {
		cloneOpts.ReferenceName = referenceName(s.Ref)
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, cloneOpts); err != nil {
		return nil, fmt.Errorf("clone %s: %w", s.Repository, err)
	}

	path := filepath.Join(dir, filepath.Clean("/"+s.Path))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s from %s: %w", s.Path, s.Repository, err)
	}
	return data, nil
}

func referenceName(ref string) plumbing.ReferenceName {
	if strings.HasPrefix(ref, "refs/") {
		return plumbing.ReferenceName(ref)
	}
	return plumbing.NewBranchReferenceName(ref)
}

// SourceFor picks the Source configured for target.
func SourceFor(target *config.Target, getter Getter) (Source, error) {
	manifest := target.Puppet.Manifest
	switch manifest.Source {
	case config.ManifestEmbedded:
		return EmbeddedSource{Target: target}, nil
	case config.ManifestHTTP:
		return HTTPSource{URL: manifest.URL, Getter: getter}, nil
	case config.ManifestGit:
		return GitSource{Repository: manifest.Repository, Ref: manifest.Ref, Path: manifest.Path}, nil
	default:
		return nil, fmt.Errorf("unknown manifest source %q", manifest.Source)
	}
}
