// Package fsutil holds the file primitives shared by every step that writes
// to the host.
package fsutil

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultFileMode is used for files that do not exist yet.
const DefaultFileMode os.FileMode = 0o644

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it into place.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ReadText reads path and decodes it to UTF-8. Files that are not valid UTF-8
// are decoded as UTF-16 when they carry a BOM and as Latin-1 otherwise.
// A missing file returns ok=false and no error.
func ReadText(path string) (text string, perm os.FileMode, ok bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", DefaultFileMode, false, nil
		}
		return "", 0, false, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, false, err
	}

	decoded, err := decode(data)
	if err != nil {
		return "", 0, false, err
	}
	return decoded, info.Mode().Perm(), true, nil
}

// Exists reports whether path exists. Stat errors other than not-exist count
// as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	var enc encoding.Encoding = charmap.ISO8859_1
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) {
		enc = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	} else if bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		enc = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	}

	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(decoded), "�"), nil
}

// SplitLines splits content into lines and reports whether it ended with a
// newline.
func SplitLines(content string) ([]string, bool) {
	if content == "" {
		return []string{}, false
	}

	trailing := strings.HasSuffix(content, "\n")
	trimmed := content
	if trailing {
		trimmed = strings.TrimSuffix(content, "\n")
	}

	if trimmed == "" {
		if trailing {
			return []string{""}, true
		}
		return []string{""}, false
	}

	return strings.Split(trimmed, "\n"), trailing
}

// JoinLines is the inverse of SplitLines.
func JoinLines(lines []string, trailing bool) string {
	if len(lines) == 0 {
		return ""
	}
	joined := strings.Join(lines, "\n")
	if trailing {
		return joined + "\n"
	}
	return joined
}
