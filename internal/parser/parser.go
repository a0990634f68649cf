package parser

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codenav/internal/syntax"
	"codenav/util"
)

// ErrUnsupported is returned for files no enabled grammar handles.
var ErrUnsupported = errors.New("unsupported language")

// Options configures a Parser.
type Options struct {
	Languages        []string            // enabled grammars; empty enables all
	IncludePaths     []string            // searched for C/C++ includes
	TransparentKinds map[string][]string // language -> extra unexposed kinds
}

// grammar is a compiled languageSpec.
type grammar struct {
	spec        *languageSpec
	language    *tree_sitter.Language
	query       *tree_sitter.Query
	captures    []string
	references  map[string]bool
	functions   map[string]bool
	scopes      map[string]bool
	members     map[string]bool
	transparent map[string]bool
}

// Parser turns source text into syntax trees using tree-sitter grammars. It
// holds compiled queries only; every Parse call uses its own tree-sitter
// parser, so a Parser may be shared.
type Parser struct {
	grammars     map[string]*grammar
	byExt        map[string]*grammar
	includePaths []string
}

// New compiles the queries of every enabled grammar. A grammar whose query
// fails to compile is skipped with a warning; New fails only when nothing is
// left.
func New(opts Options) (*Parser, error) {
	enabled := make(map[string]bool)
	for _, name := range opts.Languages {
		enabled[name] = true
	}
	// tsx rides along with typescript
	if enabled["typescript"] {
		enabled["tsx"] = true
	}

	p := &Parser{
		grammars: make(map[string]*grammar),
		byExt:    make(map[string]*grammar),
	}
	for _, dir := range opts.IncludePaths {
		p.includePaths = append(p.includePaths, util.NormalizePath(dir))
	}

	for i := range languages {
		spec := &languages[i]
		if len(enabled) > 0 && !enabled[spec.name] {
			continue
		}
		g, err := compile(spec, opts.TransparentKinds[spec.name])
		if err != nil {
			log.Printf("[%s] Warning: grammar disabled: %v", spec.name, err)
			continue
		}
		p.grammars[spec.name] = g
		for _, ext := range spec.exts {
			p.byExt[ext] = g
		}
	}

	// plain C headers when C++ is off
	if c, ok := p.grammars["c"]; ok && p.byExt[".h"] == nil {
		p.byExt[".h"] = c
	}

	if len(p.grammars) == 0 {
		return nil, fmt.Errorf("no usable grammar among %v", opts.Languages)
	}
	return p, nil
}

func compile(spec *languageSpec, transparent []string) (*grammar, error) {
	lang := tree_sitter.NewLanguage(spec.language())
	query, qerr := tree_sitter.NewQuery(lang, spec.query)
	if qerr != nil {
		return nil, fmt.Errorf("invalid query: %v", qerr)
	}

	g := &grammar{
		spec:        spec,
		language:    lang,
		query:       query,
		captures:    query.CaptureNames(),
		references:  toSet(spec.references),
		functions:   toSet(spec.functions),
		scopes:      toSet(spec.scopes),
		members:     toSet(spec.members),
		transparent: toSet(defaultTransparent),
	}
	for _, kind := range transparent {
		g.transparent[kind] = true
	}
	return g, nil
}

// Close releases the compiled queries.
func (p *Parser) Close() {
	for _, g := range p.grammars {
		g.query.Close()
	}
}

// Languages returns the names of the usable grammars, sorted.
func (p *Parser) Languages() []string {
	names := make([]string, 0, len(p.grammars))
	for name := range p.grammars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Language returns the grammar name used for file, or "" if none applies.
func (p *Parser) Language(file string) string {
	if g := p.grammarFor(file); g != nil {
		return g.spec.name
	}
	return ""
}

// Supports reports whether file has a grammar.
func (p *Parser) Supports(file string) bool {
	return p.grammarFor(file) != nil
}

func (p *Parser) grammarFor(file string) *grammar {
	return p.byExt[strings.ToLower(filepath.Ext(file))]
}

// Parse builds the tree for file. The text comes from overrides when the
// file has an entry there and from disk otherwise; the same rule applies to
// every header a C/C++ file includes.
func (p *Parser) Parse(file string, overrides map[string][]byte) (*syntax.Tree, error) {
	file = util.NormalizePath(file)
	g := p.grammarFor(file)
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, file)
	}

	src, err := readSource(file, overrides)
	if err != nil {
		return nil, err
	}

	b := newBinder(p, g, file, overrides)
	if err := b.addFile(file, src, syntax.NoNode); err != nil {
		return nil, err
	}
	b.bind()
	return b.builder.Tree(), nil
}

func readSource(file string, overrides map[string][]byte) ([]byte, error) {
	if text, ok := overrides[file]; ok {
		return text, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return data, nil
}

func exists(file string, overrides map[string][]byte) bool {
	if _, ok := overrides[file]; ok {
		return true
	}
	info, err := os.Stat(file)
	return err == nil && !info.IsDir()
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
