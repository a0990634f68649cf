// Package engine is the context object behind every front end: it owns the
// configuration, the parser, the unit cache, the resolver and the session
// store, and serialises requests against them.
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"codenav/internal/config"
	"codenav/internal/parser"
	"codenav/internal/resolve"
	"codenav/internal/store"
	"codenav/internal/syntax"
	"codenav/internal/unit"
	"codenav/internal/workspace"
)

// Jump is the answer to a go-to-definition request. When nothing better was
// found it holds the requested position with Moved unset.
type Jump struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Moved    bool   `json:"moved"`
	Symbol   string `json:"symbol,omitempty"`
	Fallback bool   `json:"declaration_only,omitempty"` // landed on a declaration
}

// Engine serves definition lookups. All methods are safe for concurrent use
// and run one at a time.
type Engine struct {
	mu       sync.Mutex
	home     string
	cfg      *config.Config
	parser   *parser.Parser
	cache    *unit.Cache
	resolver *resolve.Resolver
	store    *store.Store
}

// Open initialises an engine rooted at home. It fails when no grammar can be
// loaded or the session store cannot be opened.
func Open(home string, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	p, err := parser.New(parser.Options{
		Languages:        cfg.Languages,
		IncludePaths:     cfg.IncludePaths,
		TransparentKinds: cfg.TransparentKinds,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialise parser: %w", err)
	}

	cache := unit.NewCache(p)
	e := &Engine{
		home:     home,
		cfg:      cfg,
		parser:   p,
		cache:    cache,
		resolver: resolve.New(cache),
	}

	if cfg.Session.Enabled {
		if path := cfg.SessionPath(home); path != "" {
			s, err := store.Open(path)
			if err != nil {
				p.Close()
				return nil, fmt.Errorf("failed to open session store: %w", err)
			}
			e.store = s
		}
	}

	if cfg.Session.Restore && e.store != nil {
		files, err := e.store.Units()
		if err != nil {
			e.warnf("cannot read remembered units: %v", err)
		}
		for _, file := range files {
			if _, err := e.load(file); err != nil {
				e.warnf("cannot restore %s: %v", file, err)
				if err := e.store.ForgetUnit(file); err != nil {
					e.warnf("%v", err)
				}
			}
		}
	}

	if e.store != nil {
		e.debugf("session store at %s", e.store.Path())
	}
	e.debugf("engine ready with %v", p.Languages())
	return e, nil
}

// Close releases the parser and the session store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.parser.Close()
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Home returns the engine home directory.
func (e *Engine) Home() string {
	return e.home
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Languages returns the usable grammar names, sorted.
func (e *Engine) Languages() []string {
	return e.parser.Languages()
}

// SessionPath returns where the session store lives, or "" when there is
// none.
func (e *Engine) SessionPath() string {
	if e.store == nil {
		return ""
	}
	return e.store.Path()
}

// Supports reports whether file has a grammar.
func (e *Engine) Supports(file string) bool {
	return e.parser.Supports(file)
}

// Load parses every file not cached yet. progress, when set, is called after
// each file. Failures do not stop the batch and are returned joined.
func (e *Engine) Load(files []string, progress func(file string, err error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var errs []error
	for _, file := range files {
		_, err := e.load(file)
		if err != nil {
			errs = append(errs, err)
		}
		if progress != nil {
			progress(file, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) load(file string) (*unit.Unit, error) {
	if u := e.cache.Unit(file); u != nil {
		return u, nil
	}
	u, err := e.cache.ParseNew(file)
	if err != nil {
		return nil, err
	}
	e.debugf("loaded %s (%d nodes)", u.File(), u.Tree().Len())
	e.remember(u.File())
	return u, nil
}

func (e *Engine) remember(file string) {
	if e.store == nil {
		return
	}
	if err := e.store.RememberUnit(file, e.parser.Language(file)); err != nil {
		e.warnf("%v", err)
	}
}

// Discover lists the files below root that preloading would parse.
func (e *Engine) Discover(root string) ([]string, error) {
	pc := e.cfg.Preload
	w := workspace.NewWalker(pc.Includes, pc.Excludes, pc.Gitignore, pc.MaxFiles)
	files, truncated, err := w.Walk(root, e.parser.Supports)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	if truncated {
		e.warnf("preload stopped after %d files in %s", len(files), root)
	}
	return files, nil
}

// Preload loads the workspace files below root selected by the preload
// config and returns how many units the cache holds afterwards.
func (e *Engine) Preload(root string, progress func(file string, err error)) (int, error) {
	files, err := e.Discover(root)
	if err != nil {
		return 0, err
	}
	err = e.Load(files, progress)
	return len(e.Units()), err
}

// Sync makes the cache reflect buffers: every cached unit is re-parsed with
// them, then buffers of supported files that are not cached yet are parsed.
func (e *Engine) Sync(buffers []unit.Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sync(buffers)
}

func (e *Engine) sync(buffers []unit.Buffer) error {
	var errs []error
	if err := e.cache.ReparseAll(buffers); err != nil {
		errs = append(errs, err)
	}
	for _, b := range buffers {
		if !e.parser.Supports(b.File) {
			continue
		}
		if _, err := e.load(b.File); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GoToDefinition syncs buffers, then looks up the definition of the symbol
// at line:col of file. It never fails: when anything goes wrong the returned
// Jump is the requested position with Moved unset.
func (e *Engine) GoToDefinition(file string, line, col int, buffers []unit.Buffer) Jump {
	e.mu.Lock()
	defer e.mu.Unlock()

	stay := Jump{File: file, Line: line, Column: col}

	if err := e.sync(buffers); err != nil {
		e.warnf("%v", err)
	}
	u, err := e.load(file)
	if err != nil {
		e.warnf("%v", err)
		return stay
	}

	res, ok := e.resolver.Lookup(u.File(), syntax.Location{Line: line, Column: col})
	if !ok {
		e.warnf("no symbol referenced at %s:%d:%d", u.File(), line, col)
		return stay
	}
	if res.Node.Location.File == "" {
		e.warnf("%s is not declared in any loaded file", res.Node.Name)
		return stay
	}

	loc := res.Node.Location
	jump := Jump{
		File:     loc.File,
		Line:     loc.Line,
		Column:   loc.Column,
		Moved:    loc.File != u.File() || loc.Line != line || loc.Column != col,
		Symbol:   res.Node.Name,
		Fallback: res.Fallback,
	}
	if res.Fallback {
		e.warnf("no definition of %s found, using its declaration", res.Node.Name)
	}
	e.debugf("%s:%d:%d -> %s (%s)", u.File(), line, col, loc, res.Unit.File())
	e.record(u.File(), line, col, jump)
	return jump
}

func (e *Engine) record(file string, line, col int, j Jump) {
	if e.store == nil || !j.Moved {
		return
	}
	err := e.store.RecordJump(&store.Jump{
		FromFile:   file,
		FromLine:   line,
		FromColumn: col,
		ToFile:     j.File,
		ToLine:     j.Line,
		ToColumn:   j.Column,
		Symbol:     j.Symbol,
		Fallback:   j.Fallback,
	})
	if err == nil {
		err = e.store.Prune(e.cfg.Session.HistoryLimit)
	}
	if err != nil {
		e.warnf("%v", err)
	}
}

// Units returns the cached file identities in load order.
func (e *Engine) Units() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Files()
}

// History returns up to limit recorded jumps, newest first.
func (e *Engine) History(limit int) ([]store.Jump, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.store == nil {
		return nil, nil
	}
	return e.store.Jumps(limit)
}

func (e *Engine) debugf(format string, args ...any) {
	if e.cfg.Logging.Debug {
		log.Printf("[engine] "+format, args...)
	}
}

func (e *Engine) warnf(format string, args ...any) {
	if e.cfg.Logging.Warnings {
		log.Printf("[engine] Warning: "+format, args...)
	}
}
