package lineinfileplugin

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/fsutil"
)

// FileState captures the settings file prior to modification.
type FileState struct {
	Path         string
	OriginalPath string
	Exists       bool
	Permissions  os.FileMode
	Content      string
}

func readFileState(path string) (*FileState, error) {
	state := &FileState{
		Path:         path,
		OriginalPath: path,
	}

	// Packaging sometimes links /etc/default entries; edit the real file so
	// the rename does not replace the link.
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		state.Path = resolved
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	content, perm, ok, err := fsutil.ReadText(state.Path)
	if err != nil {
		return nil, err
	}
	state.Exists = ok
	state.Permissions = perm
	state.Content = content
	return state, nil
}
