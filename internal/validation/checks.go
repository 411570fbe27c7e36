package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// CheckCommandExists verifies a command is available on PATH or in one of
// extraDirs, which covers tools installed outside the caller's PATH such as
// /opt/puppetlabs/bin.
func CheckCommandExists(command string, extraDirs ...string) error {
	if command == "" {
		return fmt.Errorf("command name is required")
	}

	if _, err := exec.LookPath(command); err == nil {
		return nil
	}
	for _, dir := range extraDirs {
		info, err := os.Stat(filepath.Join(dir, command))
		if err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			return nil
		}
	}
	return fmt.Errorf("command %s not found", command)
}

// CheckFileExists verifies a file or directory exists at the given path.
func CheckFileExists(path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("path %s does not exist", path)
		}
		return err
	}

	return nil
}

// CheckPathContains verifies that file contains text. Text is tried as a
// regular expression and falls back to a literal match when it does not
// compile.
func CheckPathContains(path, text string) error {
	if path == "" {
		return fmt.Errorf("file path is required")
	}
	if text == "" {
		return fmt.Errorf("text is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	found := strings.Contains(string(data), text)
	if !found {
		if pattern, err := regexp.Compile(text); err == nil {
			found = pattern.Match(data)
		}
	}
	if !found {
		return fmt.Errorf("pattern %q not found in %s", text, path)
	}

	return nil
}
