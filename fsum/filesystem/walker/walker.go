package walker

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/filesum/fsum/filesystem/common"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/afero"
)

// IgnoreChecker reports whether a root-relative, slash-separated path is excluded
type IgnoreChecker interface {
	MatchesPath(path string) bool
}

type nullIgnoreChecker struct{}

func (nullIgnoreChecker) MatchesPath(string) bool { return false }

// errStop aborts afero.Walk once the consumer stops ranging
var errStop = errors.New("walk stopped")

// Walker enumerates regular files beneath a root directory.
type Walker struct {
	fs         afero.Fs
	ignoreFile string
	checker    IgnoreChecker
}

// Option configures a Walker
type Option func(*Walker)

// WithIgnoreFile loads gitignore-style patterns from name inside the walked root, when
// that file exists. The ignore file is an ordinary file and is yielded unless its own
// patterns exclude it.
func WithIgnoreFile(name string) Option {
	return func(w *Walker) {
		w.ignoreFile = name
	}
}

// WithIgnoreChecker installs a fixed checker, taking precedence over WithIgnoreFile
func WithIgnoreChecker(checker IgnoreChecker) Option {
	return func(w *Walker) {
		w.checker = checker
	}
}

// New creates a walker over fs
func New(fs afero.Fs, opts ...Option) *Walker {
	w := &Walker{fs: fs}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk returns a lazy sequence of regular-file paths beneath root, depth first and in
// lexical order within each directory. Directories and symlinks are never yielded. A root
// that is itself a symlink is followed, and paths are still reported under root.
//
// A root that is missing, not a directory, or unreadable is reported once as a
// FatalRunFailure and ends the sequence. Failures below the root are reported as
// IOFailure for that path and the walk continues with the next entry. Each call walks
// from scratch; breaking out of the range loop stops the traversal.
func (w *Walker) Walk(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		info, err := w.fs.Stat(root)
		if err != nil {
			yield(root, common.FatalError("stat root", root, err))
			return
		}
		if !info.IsDir() {
			yield(root, common.FatalError("stat root", root, common.ErrRootNotDir))
			return
		}

		checker, err := w.loadChecker(root)
		if err != nil {
			yield(root, common.FatalError("load ignore file", root, err))
			return
		}

		// afero.Walk lstats its root, so a symlinked root would end the walk immediately
		target, err := w.resolveRoot(root)
		if err != nil {
			yield(root, common.FatalError("resolve root", root, err))
			return
		}

		afero.Walk(w.fs, target, func(walked string, info os.FileInfo, err error) error {
			path := walked
			rel, relErr := filepath.Rel(target, walked)
			if relErr == nil {
				path = filepath.Join(root, rel)
			}

			if err != nil {
				if rel == "." {
					yield(root, common.FatalError("read root", root, err))
					return errStop
				}
				if !yield(path, common.IOError("walk", path, err)) {
					return errStop
				}
				return nil
			}

			if rel == "." {
				return nil
			}
			rel = filepath.ToSlash(rel)

			if info.IsDir() {
				if checker.MatchesPath(rel) || checker.MatchesPath(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() {
				return nil
			}
			if checker.MatchesPath(rel) {
				return nil
			}

			if !yield(path, nil) {
				return errStop
			}
			return nil
		})
	}
}

// Paths drains Walk, collecting paths and per-path errors. The first fatal error
// aborts collection and is returned.
func (w *Walker) Paths(root string) ([]string, []error, error) {
	var paths []string
	var skipped []error
	for path, err := range w.Walk(root) {
		if err != nil {
			if common.KindOf(err) == common.KindFatal {
				return nil, nil, err
			}
			skipped = append(skipped, err)
			continue
		}
		paths = append(paths, path)
	}
	return paths, skipped, nil
}

func (w *Walker) loadChecker(root string) (IgnoreChecker, error) {
	if w.checker != nil {
		return w.checker, nil
	}
	if w.ignoreFile == "" {
		return nullIgnoreChecker{}, nil
	}

	data, err := afero.ReadFile(w.fs, filepath.Join(root, w.ignoreFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nullIgnoreChecker{}, nil
		}
		return nil, err
	}

	return ignore.CompileIgnoreLines(strings.Split(string(data), "\n")...), nil
}

// maxRootLinks bounds symlink resolution of the root, matching the usual ELOOP limit
const maxRootLinks = 40

// resolveRoot follows root through any chain of symlinks and returns the directory to walk.
// Filesystems without Lstat support cannot expose links, so root is returned as is.
func (w *Walker) resolveRoot(root string) (string, error) {
	lstater, ok := w.fs.(afero.Lstater)
	if !ok {
		return root, nil
	}
	reader, canRead := w.fs.(afero.LinkReader)

	current := root
	for range maxRootLinks {
		info, _, err := lstater.LstatIfPossible(current)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return current, nil
		}
		if !canRead {
			return "", fmt.Errorf("cannot read symlink %s on this filesystem", current)
		}

		link, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(current), link)
		}
		current = link
	}
	return "", fmt.Errorf("too many levels of symbolic links: %s", root)
}
