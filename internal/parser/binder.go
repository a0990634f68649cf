package parser

import (
	"fmt"
	"log"
	"math"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codenav/internal/syntax"
	"codenav/util"
)

type role int

const (
	roleDef role = iota + 1
	roleDecl
	roleVar
	roleInclude
)

// symbolCapture describes a declaration found by the grammar query.
type symbolCapture struct {
	name         string
	location     syntax.Location
	isDefinition bool
	key          string
	scope        uintptr // enclosing function, 0 at top level
	member       bool    // method or attribute of a class or receiver type
}

type includeCapture struct {
	spec   string
	system bool
}

// fileCaptures holds query results for one source file, keyed by
// tree-sitter node id, plus the mapping to arena handles filled during
// conversion.
type fileCaptures struct {
	symbols  map[uintptr]symbolCapture
	names    map[uintptr]uintptr // name node -> declaring node
	includes map[uintptr]includeCapture
	ids      map[uintptr]syntax.NodeID
}

type symbolRecord struct {
	id           syntax.NodeID
	scope        syntax.NodeID
	isDefinition bool
	member       bool
}

// binder builds the arena for one compilation unit and resolves names.
type binder struct {
	p         *Parser
	g         *grammar
	file      string
	overrides map[string][]byte
	builder   *syntax.Builder
	visited   map[string]bool
	owners    map[syntax.NodeID]syntax.NodeID
	symbols   map[string][]symbolRecord // simple name -> records in tree order
	externals map[string]syntax.NodeID
}

func newBinder(p *Parser, g *grammar, file string, overrides map[string][]byte) *binder {
	return &binder{
		p:         p,
		g:         g,
		file:      file,
		overrides: overrides,
		builder:   syntax.NewBuilder(file),
		visited:   make(map[string]bool),
		owners:    make(map[syntax.NodeID]syntax.NodeID),
		symbols:   make(map[string][]symbolRecord),
		externals: make(map[string]syntax.NodeID),
	}
}

// addFile parses src and appends its tree under parent.
func (b *binder) addFile(file string, src []byte, parent syntax.NodeID) error {
	b.visited[file] = true

	tp := tree_sitter.NewParser()
	defer tp.Close()
	if err := tp.SetLanguage(b.g.language); err != nil {
		return fmt.Errorf("failed to load %s grammar: %w", b.g.spec.name, err)
	}

	tree := tp.Parse(src, nil)
	if tree == nil {
		return fmt.Errorf("tree-sitter returned no tree for %s", file)
	}
	defer tree.Close()

	root := tree.RootNode()
	caps := b.capture(root, file, src)
	b.convert(root, file, src, parent, caps)
	return nil
}

func (b *binder) capture(root *tree_sitter.Node, file string, src []byte) *fileCaptures {
	caps := &fileCaptures{
		symbols:  make(map[uintptr]symbolCapture),
		names:    make(map[uintptr]uintptr),
		includes: make(map[uintptr]includeCapture),
		ids:      make(map[uintptr]syntax.NodeID),
	}

	qc := tree_sitter.NewQueryCursor()
	defer qc.Close()

	matches := qc.Matches(b.g.query, root, src)
	for match := matches.Next(); match != nil; match = matches.Next() {
		var target, name, path *tree_sitter.Node
		var r role
		for _, c := range match.Captures {
			node := c.Node
			switch b.g.captures[c.Index] {
			case "def":
				target, r = &node, roleDef
			case "decl":
				target, r = &node, roleDecl
			case "var":
				target, r = &node, roleVar
			case "include":
				target, r = &node, roleInclude
			case "name":
				name = &node
			case "path":
				path = &node
			}
		}
		if target == nil {
			continue
		}

		if r == roleInclude {
			if path != nil {
				caps.includes[target.Id()] = includeCapture{
					spec:   strings.Trim(path.Utf8Text(src), "\"<>"),
					system: path.Kind() == "system_lib_string",
				}
			}
			continue
		}
		if name == nil {
			continue
		}
		if _, seen := caps.symbols[target.Id()]; seen {
			continue
		}
		caps.symbols[target.Id()] = b.describe(target, name, r, file, src)
		if _, seen := caps.names[name.Id()]; !seen {
			caps.names[name.Id()] = target.Id()
		}
	}
	return caps
}

// describe computes the name, definition flag and symbol key of a captured
// declaration.
func (b *binder) describe(target, name *tree_sitter.Node, r role, file string, src []byte) symbolCapture {
	spelled := name.Utf8Text(src)
	sc := symbolCapture{
		name:         spelled,
		location:     locationOf(file, name),
		isDefinition: r == roleDef || (r == roleVar && !hasStorageClass(target, "extern", src)),
	}

	var qualifiers []string
	var scopeStart uint
	inClass := false
	for p := target.Parent(); p != nil; p = p.Parent() {
		kind := p.Kind()
		if sc.scope == 0 && b.g.functions[kind] {
			sc.scope = p.Id()
			scopeStart = p.StartByte()
		}
		if b.g.scopes[kind] {
			if sc.scope == 0 && !inClass {
				sc.member = b.g.spec.linkage != linkageC
			}
			if n := p.ChildByFieldName("name"); n != nil {
				qualifiers = append([]string{n.Utf8Text(src)}, qualifiers...)
			}
			if kind != "namespace_definition" {
				inClass = true
			}
		}
	}

	lang := b.keyLanguage()
	var scope string
	switch {
	case sc.scope != 0:
		scope = fmt.Sprintf("%s:%s:%d", lang, file, scopeStart)
	case b.g.spec.linkage == linkageC && !inClass && hasStorageClass(target, "static", src):
		scope = lang + ":" + file
	case b.g.spec.linkage == linkagePackage:
		scope = lang + ":" + filepath.Dir(file)
	default:
		scope = lang
	}

	qualified := simpleName(spelled)
	switch {
	case b.g.spec.linkage == linkageC:
		qualified = strings.Join(append(qualifiers, spelled), "::")
	case sc.scope == 0:
		if recv := receiverType(target, src); recv != "" {
			qualifiers = []string{recv}
			sc.member = true
		}
		if len(qualifiers) > 0 {
			qualified = strings.Join(append(qualifiers, qualified), ".")
		}
	}
	sc.key = util.SymbolKey(scope, qualified)
	return sc
}

func (b *binder) convert(n *tree_sitter.Node, file string, src []byte, parent syntax.NodeID, caps *fileCaptures) {
	kind := n.Kind()
	node := syntax.Node{
		Kind:     syntax.Kind(kind),
		Span:     spanOf(file, n),
		Location: locationOf(file, n),
	}
	if !n.IsNamed() || b.g.transparent[kind] {
		node.Kind = syntax.KindUnexposed
	}

	sym, isSymbol := caps.symbols[n.Id()]
	switch {
	case isSymbol:
		node.Name = sym.name
		node.Location = sym.location
		node.IsDefinition = sym.isDefinition
		node.SymbolKey = sym.key
	case n.IsNamed() && b.g.references[kind]:
		node.Name = n.Utf8Text(src)
	}

	id := b.builder.Add(parent, node)
	caps.ids[n.Id()] = id

	// Owners and scopes are ancestors, so their handles already exist.
	if isSymbol {
		simple := simpleName(sym.name)
		b.symbols[simple] = append(b.symbols[simple], symbolRecord{
			id:           id,
			scope:        caps.ids[sym.scope],
			isDefinition: sym.isDefinition,
			member:       sym.member,
		})
	}
	if owner, ok := caps.names[n.Id()]; ok {
		b.owners[id] = caps.ids[owner]
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			b.convert(child, file, src, id, caps)
		}
	}

	if inc, ok := caps.includes[n.Id()]; ok {
		b.include(inc, file, id)
	}
}

// include grafts the included header under the directive. Each header is
// added at most once per unit.
func (b *binder) include(inc includeCapture, from string, parent syntax.NodeID) {
	header := b.resolveInclude(inc, from)
	if header == "" || b.visited[header] {
		return
	}
	src, err := readSource(header, b.overrides)
	if err != nil {
		return
	}
	if err := b.addFile(header, src, parent); err != nil {
		log.Printf("[%s] Warning: skipping include %s: %v", b.g.spec.name, header, err)
	}
}

func (b *binder) resolveInclude(inc includeCapture, from string) string {
	var candidates []string
	if !inc.system {
		candidates = append(candidates, filepath.Join(filepath.Dir(from), inc.spec))
	}
	for _, dir := range b.p.includePaths {
		candidates = append(candidates, filepath.Join(dir, inc.spec))
	}
	for _, c := range candidates {
		c = util.NormalizePath(c)
		if exists(c, b.overrides) {
			return c
		}
	}
	return ""
}

// bind sets Referenced on every name token: declaration names point at their
// declaration, other identifiers at the closest visible declaration with the
// same name.
func (b *binder) bind() {
	count := syntax.NodeID(b.builder.Len())
	for id := syntax.NodeID(1); id <= count; id++ {
		if owner, ok := b.owners[id]; ok {
			b.builder.Node(id).Referenced = owner
			continue
		}

		n := b.builder.Node(id)
		if n.Name == "" || n.SymbolKey != "" || !b.g.references[string(n.Kind)] {
			continue
		}
		name := n.Name

		// a segment of a qualified declaration name, like bar in Foo::bar
		if owner, ok := b.owners[n.Parent]; ok && simpleName(b.builder.Node(owner).Name) == name {
			n.Referenced = owner
			continue
		}

		if b.g.spec.linkage == linkageC {
			n.Referenced = b.lookup(id, name, nil)
			continue
		}

		// x.name binds to a member, a bare name never does
		if b.isMember(id) {
			n.Referenced = b.lookup(id, name, func(c symbolRecord) bool { return c.member })
			continue
		}
		if target := b.lookup(id, name, func(c symbolRecord) bool { return !c.member }); target != syntax.NoNode {
			n.Referenced = target
			continue
		}
		ext := b.external(name)
		b.builder.Node(id).Referenced = ext
	}
}

// isMember reports whether id names the member in a member access such as
// x.name. The receiver's type is unknown, so an unbound member has no key.
func (b *binder) isMember(id syntax.NodeID) bool {
	n := b.builder.Node(id)
	parent := b.builder.Node(n.Parent)
	if parent == nil || !b.g.members[string(parent.Kind)] || len(parent.Children) < 2 {
		return false
	}
	return parent.Children[len(parent.Children)-1] == id
}

// lookup picks, among declarations named name that accept allows, the one in
// the innermost enclosing scope of id; top-level declarations are always
// visible. Within a scope a definition beats a declaration, then the first in
// tree order wins.
func (b *binder) lookup(id syntax.NodeID, name string, accept func(symbolRecord) bool) syntax.NodeID {
	candidates := b.symbols[name]
	if len(candidates) == 0 {
		return syntax.NoNode
	}

	depth := make(map[syntax.NodeID]int)
	d := 0
	for p := b.builder.Node(id).Parent; p != syntax.NoNode; p = b.builder.Node(p).Parent {
		depth[p] = d
		d++
	}

	best, bestDist, bestDef := syntax.NoNode, math.MaxInt, false
	for _, c := range candidates {
		if accept != nil && !accept(c) {
			continue
		}
		dist := math.MaxInt - 1
		if c.scope != syntax.NoNode {
			sd, ok := depth[c.scope]
			if !ok {
				continue
			}
			dist = sd
		}
		if dist < bestDist || (dist == bestDist && c.isDefinition && !bestDef) {
			best, bestDist, bestDef = c.id, dist, c.isDefinition
		}
	}
	return best
}

// external returns the synthetic declaration standing in for a name the
// unit uses but does not declare.
func (b *binder) external(name string) syntax.NodeID {
	if id, ok := b.externals[name]; ok {
		return id
	}
	scope := b.keyLanguage()
	if b.g.spec.linkage == linkagePackage {
		scope += ":" + filepath.Dir(b.file)
	}
	id := b.builder.Add(1, syntax.Node{
		Kind:      "external_declaration",
		Name:      name,
		SymbolKey: util.SymbolKey(scope, name),
	})
	b.externals[name] = id
	return id
}

// keyLanguage names the key namespace: tsx shares typescript's, and C++
// shares C's so a header keys alike whichever grammar parsed it.
func (b *binder) keyLanguage() string {
	switch b.g.spec.name {
	case "tsx":
		return "typescript"
	case "cpp":
		return "c"
	}
	return b.g.spec.name
}

// receiverType returns T for a Go method declared on T or *T.
func receiverType(n *tree_sitter.Node, src []byte) string {
	if n.Kind() != "method_declaration" {
		return ""
	}
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	if t := firstOfKind(recv, "type_identifier"); t != nil {
		return t.Utf8Text(src)
	}
	return ""
}

func firstOfKind(n *tree_sitter.Node, kind string) *tree_sitter.Node {
	if n.Kind() == kind {
		return n
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			if found := firstOfKind(c, kind); found != nil {
				return found
			}
		}
	}
	return nil
}

func hasStorageClass(n *tree_sitter.Node, word string, src []byte) bool {
	for _, node := range []*tree_sitter.Node{n, n.Parent()} {
		if node == nil {
			continue
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			c := node.Child(i)
			if c != nil && c.Kind() == "storage_class_specifier" && c.Utf8Text(src) == word {
				return true
			}
		}
	}
	return false
}

// simpleName strips qualification: Foo::bar, M.bar and M:bar all give bar.
func simpleName(name string) string {
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func locationOf(file string, n *tree_sitter.Node) syntax.Location {
	p := n.StartPosition()
	return syntax.Location{File: file, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func spanOf(file string, n *tree_sitter.Node) syntax.Span {
	start, end := n.StartPosition(), n.EndPosition()
	return syntax.Span{
		File:  file,
		Start: syntax.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1, Offset: int(n.StartByte())},
		End:   syntax.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1, Offset: int(n.EndByte())},
	}
}
