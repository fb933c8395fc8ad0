package backup

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CheckPath returns an error unless path resolves to a location strictly
// inside dir. Symlinks in the existing part of either path are resolved, so
// a link inside dir that points elsewhere is rejected.
func CheckPath(path, dir string) error {
	if path == "" || strings.ContainsRune(path, 0) {
		return fmt.Errorf("invalid backup path")
	}

	base, err := resolve(dir)
	if err != nil {
		return fmt.Errorf("resolving backup dir: %w", err)
	}
	target, err := resolve(path)
	if err != nil {
		return fmt.Errorf("resolving backup path: %w", err)
	}

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("backup path %s is outside %s", filepath.Base(path), dir)
	}
	return nil
}

// resolve makes p absolute and resolves symlinks in its longest existing
// prefix. Missing trailing components are appended unchanged.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}

	tail := ""
	for {
		if r, err := filepath.EvalSymlinks(abs); err == nil {
			return filepath.Join(r, tail), nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return filepath.Join(abs, tail), nil
		}
		tail = filepath.Join(filepath.Base(abs), tail)
		abs = parent
	}
}
