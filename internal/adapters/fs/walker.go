// Package fs provides filesystem adapters for walking, resolving, and
// fingerprinting the files a task declares as inputs and outputs.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker walks a directory tree yielding regular files, skipping VCS
// metadata directories and caller-supplied ignore patterns.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file under root, skipping .git and .jj
// unconditionally plus any directory or file name matching an ignore pattern.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skip := w.shouldSkipDir(d, ignores); skip != nil {
				return skip
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}

			return nil
		})
	}
}

// shouldSkipDir returns filepath.SkipDir when d is a directory that must be
// pruned entirely, or nil otherwise (including when a file should be skipped:
// the caller's yield loop simply never sees it since it's only checked for dirs).
func (w *Walker) shouldSkipDir(d fs.DirEntry, ignores []string) error {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj") {
		return filepath.SkipDir
	}

	for _, ignore := range ignores {
		matched, _ := filepath.Match(ignore, name)
		if matched && d.IsDir() {
			return filepath.SkipDir
		}
	}

	return nil
}
