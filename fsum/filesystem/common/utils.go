package common

import (
	"path/filepath"
	"strings"
)

// PathUtils provides path manipulation utilities used across filesum packages
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath returns the cleaned absolute form of path
func (pu *PathUtils) NormalizePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}

// RelativeTo returns target relative to base, both normalized
func (pu *PathUtils) RelativeTo(base, target string) (string, error) {
	return filepath.Rel(pu.NormalizePath(base), pu.NormalizePath(target))
}

// ValidatePath rejects empty, overlong or NUL-containing paths
func (pu *PathUtils) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathEmpty
	}
	if strings.Contains(path, "\x00") {
		return ErrPathInvalid
	}
	if len(path) > 4096 {
		return ErrPathTooLong
	}
	return nil
}
