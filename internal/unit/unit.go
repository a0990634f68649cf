// Package unit holds the parsed compilation units a lookup may search.
package unit

import (
	"errors"
	"fmt"

	"codenav/internal/syntax"
)

// ErrAlreadyLoaded is returned by ParseNew for a file that is already cached.
var ErrAlreadyLoaded = errors.New("unit already loaded")

// ParseError reports a file whose source could not be turned into a tree.
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parser builds the tree of one compilation unit. Text for any file found in
// overrides, the unit's own or an included one, is taken from there instead
// of disk.
type Parser interface {
	Parse(file string, overrides map[string][]byte) (*syntax.Tree, error)
}

// Buffer is the full, possibly unsaved, text of an open file.
type Buffer struct {
	File string
	Text []byte
}

// Unit is one parsed compilation unit. Re-parsing replaces its tree but the
// Unit itself stays the same value in the cache.
type Unit struct {
	file string
	tree *syntax.Tree
}

// File returns the unit's cache key.
func (u *Unit) File() string {
	return u.file
}

// Tree returns the current tree. Nodes from it must not be kept across a
// re-parse.
func (u *Unit) Tree() *syntax.Tree {
	return u.tree
}
