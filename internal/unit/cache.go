package unit

import (
	"errors"
	"fmt"

	"codenav/util"
)

// Cache maps file identities to parsed units. Units are never evicted;
// iteration follows insertion order. A Cache is not safe for concurrent use.
type Cache struct {
	parser    Parser
	units     map[string]*Unit
	order     []string
	overrides map[string][]byte
}

// NewCache returns an empty cache parsing through p.
func NewCache(p Parser) *Cache {
	return &Cache{
		parser:    p,
		units:     make(map[string]*Unit),
		overrides: make(map[string][]byte),
	}
}

// GetOrParse returns the cached unit for file, parsing and inserting it first
// if needed.
func (c *Cache) GetOrParse(file string) (*Unit, error) {
	file = util.NormalizePath(file)
	if u, ok := c.units[file]; ok {
		return u, nil
	}
	return c.parseNew(file)
}

// ParseNew parses file into a new unit. The file must not be cached yet.
func (c *Cache) ParseNew(file string) (*Unit, error) {
	file = util.NormalizePath(file)
	if _, ok := c.units[file]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLoaded, file)
	}
	return c.parseNew(file)
}

func (c *Cache) parseNew(file string) (*Unit, error) {
	tree, err := c.parser.Parse(file, c.overrides)
	if err != nil {
		return nil, &ParseError{File: file, Err: err}
	}
	u := &Unit{file: file, tree: tree}
	c.units[file] = u
	c.order = append(c.order, file)
	return u, nil
}

// ReparseAll re-derives every cached unit. buffers becomes the override set
// for this and later parses: a file with a buffer is read from it, any other
// file from disk. Every unit sees the whole set, so headers shared between
// units agree. A unit that fails to parse keeps its previous tree and the
// failures are returned joined.
func (c *Cache) ReparseAll(buffers []Buffer) error {
	c.SetBuffers(buffers)

	var errs []error
	for _, file := range c.order {
		tree, err := c.parser.Parse(file, c.overrides)
		if err != nil {
			errs = append(errs, &ParseError{File: file, Err: err})
			continue
		}
		c.units[file].tree = tree
	}
	return errors.Join(errs...)
}

// SetBuffers replaces the override set without re-parsing anything.
func (c *Cache) SetBuffers(buffers []Buffer) {
	c.overrides = make(map[string][]byte, len(buffers))
	for _, b := range buffers {
		c.overrides[util.NormalizePath(b.File)] = b.Text
	}
}

// Unit returns the cached unit for file, or nil.
func (c *Cache) Unit(file string) *Unit {
	return c.units[util.NormalizePath(file)]
}

// Units returns the cached units in insertion order.
func (c *Cache) Units() []*Unit {
	units := make([]*Unit, 0, len(c.order))
	for _, file := range c.order {
		units = append(units, c.units[file])
	}
	return units
}

// Files returns the cached file identities in insertion order.
func (c *Cache) Files() []string {
	return append([]string(nil), c.order...)
}

// Len returns the number of cached units.
func (c *Cache) Len() int {
	return len(c.order)
}
