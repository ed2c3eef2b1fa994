// Package security confines tool-supplied paths to the configured filing root.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator resolves caller paths against a root directory and rejects
// anything that escapes it, including through symlinks.
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator for root. The root must exist and be
// a directory; a missing root would otherwise make every path unverifiable.
func NewPathValidator(root string) (*PathValidator, error) {
	if root == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access configured directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("configured path is not a directory: %s", root)
	}
	return &PathValidator{root: abs}, nil
}

// Root returns the absolute root directory
func (v *PathValidator) Root() string {
	return v.root
}

// Resolve turns path into an absolute path inside the root. Relative paths
// are taken relative to the root.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(v.root, path)
	}
	abs := filepath.Clean(path)

	within, err := v.IsPathWithinDirectory(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return abs, nil
}

// IsPathWithinDirectory reports whether an absolute path, and the file it
// resolves to, both lie inside the root.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	realRoot, err := filepath.EvalSymlinks(v.root)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate directory symlinks: %w", err)
	}

	clean := filepath.Clean(path)
	if !under(clean, v.root) && !under(clean, realRoot) {
		return false, nil
	}

	real, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to follow; the lexical check stands.
			return true, nil
		}
		return false, fmt.Errorf("failed to evaluate symlinks: %w", err)
	}
	return under(real, realRoot), nil
}

func under(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}
