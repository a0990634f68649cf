// Package resolve finds the definition of the symbol referenced at a
// position, searching the other cached units when the unit holding the
// reference only declares it.
package resolve

import (
	"codenav/internal/syntax"
	"codenav/internal/unit"
)

// Result describes where a definition lookup ended up.
type Result struct {
	Node     *syntax.Node
	Unit     *unit.Unit // unit whose tree holds Node
	Fallback bool       // Node is the declaration because no definition was found
}

// Resolver answers definition lookups against a unit cache.
type Resolver struct {
	cache *unit.Cache
}

// New returns a Resolver over cache.
func New(cache *unit.Cache) *Resolver {
	return &Resolver{cache: cache}
}

// FindDefinition returns the definition of the symbol referenced at loc in
// file, the symbol's declaration when no definition is cached, or nil when
// nothing at loc refers to a symbol.
func (r *Resolver) FindDefinition(file string, loc syntax.Location) *syntax.Node {
	res, ok := r.Lookup(file, loc)
	if !ok {
		return nil
	}
	return res.Node
}

// Lookup is FindDefinition with provenance.
func (r *Resolver) Lookup(file string, loc syntax.Location) (Result, bool) {
	u := r.cache.Unit(file)
	if u == nil {
		return Result{}, false
	}

	tree := u.Tree()
	loc.File = u.File()
	ref := syntax.FindInnermost(tree, loc)
	if ref == nil {
		return Result{}, false
	}
	target := tree.Referenced(ref)
	if target == nil {
		return Result{}, false
	}

	if target.IsDefinition {
		return Result{Node: target, Unit: u}, true
	}

	fallback := Result{Node: target, Unit: u, Fallback: true}
	if r.cache.Len() < 2 || target.SymbolKey == "" {
		return fallback, true
	}

	for _, other := range r.cache.Units() {
		if def, ok := syntax.DefinitionTable(other.Tree())[target.SymbolKey]; ok {
			return Result{Node: def, Unit: other}, true
		}
	}
	return fallback, true
}
