// Package workspace finds the source files to preload into the unit cache.
package workspace

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// errLimit stops the walk once enough files were collected.
var errLimit = errors.New("file limit reached")

// Walker selects files below a root by doublestar patterns matched against
// slash-separated paths relative to the root.
type Walker struct {
	includes  []string
	excludes  []string
	gitignore bool
	maxFiles  int
}

// NewWalker returns a Walker. An empty include list matches every file; a
// maxFiles of zero or less means no limit. With gitignore set, files matched
// by the root's .gitignore are skipped as well.
func NewWalker(includes, excludes []string, gitignore bool, maxFiles int) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*"}
	}
	return &Walker{
		includes:  includes,
		excludes:  excludes,
		gitignore: gitignore,
		maxFiles:  maxFiles,
	}
}

// Walk returns the absolute paths of the selected files in lexical order.
// keep, when not nil, filters the matches further. truncated reports whether
// the file limit cut the walk short.
func (w *Walker) Walk(root string, keep func(path string) bool) (files []string, truncated bool, err error) {
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, false, err
	}

	var gi *ignore.GitIgnore
	if w.gitignore {
		if compiled, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			gi = compiled
		}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if d.Name() == ".git" || w.excluded(rel+"/") || (gi != nil && gi.MatchesPath(rel+"/")) {
				return filepath.SkipDir
			}
			return nil
		}

		if !w.included(rel) || w.excluded(rel) || (gi != nil && gi.MatchesPath(rel)) {
			return nil
		}
		if keep != nil && !keep(path) {
			return nil
		}
		if w.maxFiles > 0 && len(files) >= w.maxFiles {
			return errLimit
		}
		files = append(files, path)
		return nil
	})
	if errors.Is(err, errLimit) {
		return files, true, nil
	}
	return files, false, err
}

func (w *Walker) included(rel string) bool {
	for _, pattern := range w.includes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) excluded(rel string) bool {
	for _, pattern := range w.excludes {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// IsDir reports whether path names an existing directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
