// Package fstest holds filesystem fixtures shared by filesum tests.
package fstest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// DenyFs wraps an afero.Fs and fails every open of the listed paths with a permission
// error, simulating unreadable files or directories regardless of the running user.
type DenyFs struct {
	afero.Fs
	denied map[string]bool
}

// NewDenyFs returns base with the given paths made unreadable
func NewDenyFs(base afero.Fs, paths ...string) *DenyFs {
	denied := make(map[string]bool, len(paths))
	for _, p := range paths {
		denied[filepath.Clean(p)] = true
	}
	return &DenyFs{Fs: base, denied: denied}
}

func (d *DenyFs) Open(name string) (afero.File, error) {
	if d.denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.Open(name)
}

func (d *DenyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if d.denied[filepath.Clean(name)] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Fs.OpenFile(name, flag, perm)
}

// WriteTree creates files (path -> content) under root, creating parent directories.
func WriteTree(t testing.TB, fs afero.Fs, root string, files map[string]string) []string {
	t.Helper()
	require.NoError(t, fs.MkdirAll(root, 0o755))

	paths := make([]string, 0, len(files))
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, fs.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, afero.WriteFile(fs, full, []byte(content), 0o644))
		paths = append(paths, full)
	}
	sort.Strings(paths)
	return paths
}
