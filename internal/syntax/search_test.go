package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFile = "/src/a.c"

func pos(line, col, off int) Position {
	return Position{Line: line, Column: col, Offset: off}
}

// buildSample lays out
//
//	line 1: int f(void);
//	line 2:  f((1));
//
// as a hand-made tree with an unexposed wrapper around the argument list.
func buildSample(t *testing.T) (*Tree, map[string]NodeID) {
	t.Helper()
	b := NewBuilder(testFile)
	ids := make(map[string]NodeID)
	ids["root"] = b.Add(NoNode, Node{Kind: "translation_unit", Span: Span{File: testFile, Start: pos(1, 1, 0), End: pos(3, 1, 22)}})
	ids["decl"] = b.Add(ids["root"], Node{
		Kind:      "declaration",
		Name:      "f",
		SymbolKey: "c:f",
		Span:      Span{File: testFile, Start: pos(1, 1, 0), End: pos(1, 13, 12)},
	})
	ids["call"] = b.Add(ids["root"], Node{Kind: "call_expression", Span: Span{File: testFile, Start: pos(2, 2, 14), End: pos(2, 8, 20)}})
	ids["ident"] = b.Add(ids["call"], Node{
		Kind:       "identifier",
		Name:       "f",
		Referenced: ids["decl"],
		Span:       Span{File: testFile, Start: pos(2, 2, 14), End: pos(2, 3, 15)},
	})
	ids["args"] = b.Add(ids["call"], Node{Kind: KindUnexposed, Span: Span{File: testFile, Start: pos(2, 3, 15), End: pos(2, 8, 20)}})
	ids["paren"] = b.Add(ids["args"], Node{Kind: KindUnexposed, Span: Span{File: testFile, Start: pos(2, 4, 16), End: pos(2, 7, 19)}})
	ids["lit"] = b.Add(ids["paren"], Node{Kind: "number_literal", Span: Span{File: testFile, Start: pos(2, 5, 17), End: pos(2, 6, 18)}})
	ids["extern"] = b.Add(ids["root"], Node{Kind: "external_declaration", Name: "g", SymbolKey: "c:g"})
	return b.Tree(), ids
}

func TestFindInnermost(t *testing.T) {
	tree, ids := buildSample(t)

	tests := []struct {
		name string
		loc  Location
		want string
	}{
		{"identifier", Location{File: testFile, Line: 2, Column: 2}, "ident"},
		{"literal below unexposed wrappers", Location{File: testFile, Line: 2, Column: 5}, "lit"},
		{"inside unexposed only", Location{File: testFile, Line: 2, Column: 4}, "call"},
		{"boundary shared with unexposed sibling", Location{File: testFile, Line: 2, Column: 3}, "ident"},
		{"declaration", Location{File: testFile, Line: 1, Column: 7}, "decl"},
		{"whitespace falls back to root", Location{File: testFile, Line: 2, Column: 1}, "root"},
		{"past the end of the file", Location{File: testFile, Line: 9, Column: 1}, ""},
		{"other file", Location{File: "/src/b.c", Line: 2, Column: 2}, ""},
		{"no file", Location{Line: 2, Column: 2}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindInnermost(tree, tt.loc)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, ids[tt.want], got.ID)
			assert.True(t, got.Span.Contains(tt.loc))
		})
	}
}

func TestContainingOnlyYieldsContainingExposedNodes(t *testing.T) {
	tree, _ := buildSample(t)

	for line := 0; line <= 4; line++ {
		for col := 0; col <= 14; col++ {
			loc := Location{File: testFile, Line: line, Column: col}
			for n := range Containing(tree, loc) {
				assert.Truef(t, n.Span.Contains(loc), "%s yielded for %s", n.Kind, loc)
				assert.False(t, n.Kind.Unexposed())
			}
		}
	}
}

func TestContainingStopsEarly(t *testing.T) {
	tree, ids := buildSample(t)

	var seen []NodeID
	for n := range Containing(tree, Location{File: testFile, Line: 2, Column: 5}) {
		seen = append(seen, n.ID)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []NodeID{ids["root"], ids["call"]}, seen)
}

func TestFindInnermostFirstMinimalWins(t *testing.T) {
	b := NewBuilder(testFile)
	root := b.Add(NoNode, Node{Kind: "root", Span: Span{File: testFile, Start: pos(1, 1, 0), End: pos(1, 10, 9)}})
	left := b.Add(root, Node{Kind: "identifier", Span: Span{File: testFile, Start: pos(1, 1, 0), End: pos(1, 4, 3)}})
	b.Add(root, Node{Kind: "identifier", Span: Span{File: testFile, Start: pos(1, 4, 3), End: pos(1, 7, 6)}})
	tree := b.Tree()

	got := FindInnermost(tree, Location{File: testFile, Line: 1, Column: 4})
	require.NotNil(t, got)
	assert.Equal(t, left, got.ID)
}

func TestSyntheticSpans(t *testing.T) {
	synthetic := Span{Start: pos(1, 1, 0), End: pos(1, 5, 4)}
	assert.True(t, synthetic.Synthetic())
	assert.False(t, synthetic.Contains(Location{File: testFile, Line: 1, Column: 2}))
	assert.True(t, synthetic.Contains(Location{Line: 1, Column: 2}))

	attached := Span{File: testFile, Start: pos(1, 1, 0), End: pos(1, 5, 4)}
	assert.False(t, attached.Contains(Location{Line: 1, Column: 2}))
}

func TestSpanContainsIsInclusive(t *testing.T) {
	s := Span{File: testFile, Start: pos(2, 3, 10), End: pos(4, 6, 40)}

	assert.True(t, s.Contains(Location{File: testFile, Line: 2, Column: 3}))
	assert.True(t, s.Contains(Location{File: testFile, Line: 4, Column: 6}))
	assert.True(t, s.Contains(Location{File: testFile, Line: 3, Column: 100}))
	assert.False(t, s.Contains(Location{File: testFile, Line: 2, Column: 2}))
	assert.False(t, s.Contains(Location{File: testFile, Line: 4, Column: 7}))
	assert.False(t, s.Contains(Location{File: testFile, Line: 1, Column: 50}))
}

func TestDefinitionTable(t *testing.T) {
	b := NewBuilder(testFile)
	root := b.Add(NoNode, Node{Kind: "root"})
	wrapper := b.Add(root, Node{Kind: KindUnexposed})
	first := b.Add(wrapper, Node{Kind: "function_definition", IsDefinition: true, SymbolKey: "k1"})
	b.Add(root, Node{Kind: "function_definition", IsDefinition: true, SymbolKey: "k1"})
	b.Add(root, Node{Kind: "declaration", SymbolKey: "k2"})
	b.Add(root, Node{Kind: "function_definition", IsDefinition: true})
	second := b.Add(root, Node{Kind: "struct_specifier", IsDefinition: true, SymbolKey: "k3"})
	tree := b.Tree()

	defs := DefinitionTable(tree)
	require.Len(t, defs, 2)
	assert.Equal(t, first, defs["k1"].ID)
	assert.Equal(t, second, defs["k3"].ID)
	assert.NotContains(t, defs, "k2")

	var count int
	for range Definitions(tree) {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestWalkIsPreOrder(t *testing.T) {
	tree, ids := buildSample(t)

	var order []NodeID
	for n := range tree.Walk() {
		order = append(order, n.ID)
	}
	assert.Equal(t, []NodeID{
		ids["root"], ids["decl"], ids["call"], ids["ident"], ids["args"], ids["paren"], ids["lit"], ids["extern"],
	}, order)
	assert.Equal(t, ids["decl"], tree.Referenced(tree.Node(ids["ident"])).ID)
	assert.Nil(t, tree.Parent(tree.Root()))
	assert.Nil(t, tree.Node(NoNode))
	assert.Nil(t, tree.Node(NodeID(tree.Len()+1)))
}
