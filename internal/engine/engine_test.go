package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenav/internal/config"
	"codenav/internal/store"
	"codenav/internal/unit"
)

const testCPP = `#include "test.h"

void only_declared();

int main()
{
	in_other_tu();
	in_this_tu();
	inline_header();
	static_header();
	only_declared();
	return 0;
}

void in_this_tu() {}
`

const testH = `void in_other_tu();
void in_this_tu();
inline void inline_header() {}
static void static_header() {}
`

const printCPP = `#include <cstdio>
#include "test.h"

void in_other_tu()
{
	printf("in_other_tu\n");
}
`

type fixture struct {
	dir    string
	test   string
	header string
	print  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:    dir,
		test:   filepath.Join(dir, "test.cpp"),
		header: filepath.Join(dir, "test.h"),
		print:  filepath.Join(dir, "print.cpp"),
	}
	require.NoError(t, os.WriteFile(f.test, []byte(testCPP), 0644))
	require.NoError(t, os.WriteFile(f.header, []byte(testH), 0644))
	require.NoError(t, os.WriteFile(f.print, []byte(printCPP), 0644))
	return f
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Languages = []string{"c", "cpp"}
	cfg.Session.Path = store.Memory
	cfg.Logging.Warnings = false
	return cfg
}

func openEngine(t *testing.T, cfg *config.Config, files ...string) *Engine {
	t.Helper()
	e, err := Open(t.TempDir(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	require.NoError(t, e.Load(files, nil))
	return e
}

func TestGoToDefinitionScenarios(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		loaded    []string
		line, col int
		want      Jump
	}{
		{
			name:   "defined in another unit",
			loaded: []string{f.test, f.print},
			line:   7, col: 2,
			want: Jump{File: f.print, Line: 4, Column: 6, Moved: true, Symbol: "in_other_tu"},
		},
		{
			name:   "defined later in the same unit",
			loaded: []string{f.test},
			line:   8, col: 2,
			want: Jump{File: f.test, Line: 15, Column: 6, Moved: true, Symbol: "in_this_tu"},
		},
		{
			name:   "inline definition in header",
			loaded: []string{f.test},
			line:   9, col: 2,
			want: Jump{File: f.header, Line: 3, Column: 13, Moved: true, Symbol: "inline_header"},
		},
		{
			name:   "static definition in header",
			loaded: []string{f.test, f.print},
			line:   10, col: 2,
			want: Jump{File: f.header, Line: 4, Column: 13, Moved: true, Symbol: "static_header"},
		},
		{
			name:   "declaration only, single unit",
			loaded: []string{f.test},
			line:   11, col: 2,
			want: Jump{File: f.test, Line: 3, Column: 6, Moved: true, Symbol: "only_declared", Fallback: true},
		},
		{
			name:   "declaration only, definition not loaded",
			loaded: []string{f.test},
			line:   7, col: 2,
			want: Jump{File: f.header, Line: 1, Column: 6, Moved: true, Symbol: "in_other_tu", Fallback: true},
		},
		{
			name:   "keyword refers to nothing",
			loaded: []string{f.test},
			line:   12, col: 2,
			want: Jump{File: f.test, Line: 12, Column: 2},
		},
		{
			name:   "outside the file",
			loaded: []string{f.test},
			line:   99, col: 1,
			want: Jump{File: f.test, Line: 99, Column: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := openEngine(t, testConfig(), tt.loaded...)
			assert.Equal(t, tt.want, e.GoToDefinition(f.test, tt.line, tt.col, nil))
		})
	}
}

func TestGoToDefinitionLoadsRequestedFile(t *testing.T) {
	f := newFixture(t)
	e := openEngine(t, testConfig(), f.print)

	jump := e.GoToDefinition(f.test, 7, 2, nil)
	assert.Equal(t, f.print, jump.File)
	assert.Equal(t, []string{f.print, f.test}, e.Units())
}

func TestGoToDefinitionUnsupportedFile(t *testing.T) {
	e := openEngine(t, testConfig())

	jump := e.GoToDefinition("/nowhere/readme.md", 3, 4, nil)
	assert.Equal(t, Jump{File: "/nowhere/readme.md", Line: 3, Column: 4}, jump)
	assert.Empty(t, e.Units())
}

func TestGoToDefinitionUsesBuffers(t *testing.T) {
	f := newFixture(t)
	e := openEngine(t, testConfig(), f.test, f.print)

	edited := "#include \"test.h\"\n\nint main()\n{\n\tin_other_tu();\n}\n"
	buffers := []unit.Buffer{{File: f.test, Text: []byte(edited)}}

	jump := e.GoToDefinition(f.test, 5, 2, buffers)
	assert.Equal(t, f.print, jump.File)
	assert.Equal(t, 4, jump.Line)

	// without the buffer the same position is back to the on-disk text
	jump = e.GoToDefinition(f.test, 5, 2, nil)
	assert.False(t, jump.Moved)
}

func TestGoToDefinitionUnsavedNewFile(t *testing.T) {
	f := newFixture(t)
	e := openEngine(t, testConfig(), f.print)

	scratch := filepath.Join(f.dir, "scratch.cpp")
	buffers := []unit.Buffer{{File: scratch, Text: []byte("#include \"test.h\"\nvoid g() { in_other_tu(); }\n")}}

	jump := e.GoToDefinition(scratch, 2, 12, buffers)
	assert.Equal(t, f.print, jump.File)
	assert.Contains(t, e.Units(), scratch)
}

func TestGoToDefinitionHeaderBuffer(t *testing.T) {
	f := newFixture(t)
	e := openEngine(t, testConfig(), f.test)

	header := "\n\nvoid in_other_tu();\nvoid in_this_tu();\ninline void inline_header() {}\nstatic void static_header() {}\n"
	jump := e.GoToDefinition(f.test, 7, 2, []unit.Buffer{{File: f.header, Text: []byte(header)}})
	assert.Equal(t, f.header, jump.File)
	assert.Equal(t, 3, jump.Line)
	assert.True(t, jump.Fallback)
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.Session.HistoryLimit = 2
	e := openEngine(t, cfg, f.test, f.print)

	e.GoToDefinition(f.test, 7, 2, nil)
	e.GoToDefinition(f.test, 8, 2, nil)
	e.GoToDefinition(f.test, 12, 2, nil) // no move, not recorded
	e.GoToDefinition(f.test, 9, 2, nil)

	jumps, err := e.History(0)
	require.NoError(t, err)
	require.Len(t, jumps, 2)
	assert.Equal(t, "inline_header", jumps[0].Symbol)
	assert.Equal(t, "in_this_tu", jumps[1].Symbol)
	assert.Equal(t, f.test, jumps[1].FromFile)
}

func TestSessionDisabled(t *testing.T) {
	f := newFixture(t)
	cfg := testConfig()
	cfg.Session.Enabled = false
	e := openEngine(t, cfg, f.test, f.print)

	assert.True(t, e.GoToDefinition(f.test, 7, 2, nil).Moved)
	jumps, err := e.History(10)
	require.NoError(t, err)
	assert.Empty(t, jumps)
}

func TestRestoreUnits(t *testing.T) {
	f := newFixture(t)
	home := t.TempDir()
	cfg := testConfig()
	cfg.Session.Path = "session.db"

	e, err := Open(home, cfg)
	require.NoError(t, err)
	require.NoError(t, e.Load([]string{f.test, f.print}, nil))
	require.NoError(t, e.Close())

	cfg.Session.Restore = true
	e, err = Open(home, cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, []string{f.test, f.print}, e.Units())
	assert.Equal(t, f.print, e.GoToDefinition(f.test, 7, 2, nil).File)
}

func TestPreload(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.dir, "build"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "build", "gen.cpp"), []byte("int x;\n"), 0644))

	e := openEngine(t, testConfig())

	var seen []string
	n, err := e.Preload(f.dir, func(file string, err error) {
		assert.NoError(t, err)
		seen = append(seen, file)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{f.print, f.test}, seen)
	assert.Equal(t, f.print, e.GoToDefinition(f.test, 7, 2, nil).File)
}

func TestLoadReportsFailures(t *testing.T) {
	f := newFixture(t)
	e := openEngine(t, testConfig())

	var failed []string
	err := e.Load([]string{f.test, filepath.Join(f.dir, "missing.cpp")}, func(file string, err error) {
		if err != nil {
			failed = append(failed, file)
		}
	})
	var perr *unit.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{filepath.Join(f.dir, "missing.cpp")}, failed)
	assert.Equal(t, []string{f.test}, e.Units())
}

func TestOpenFailsWithoutGrammar(t *testing.T) {
	cfg := testConfig()
	cfg.Languages = []string{"fortran"}
	_, err := Open(t.TempDir(), cfg)
	assert.Error(t, err)
}

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0644))
	}
	return dir
}

func TestGoToDefinitionFromStandaloneHeader(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"util.h": "int add(int a, int b);\n",
		"util.c": "#include \"util.h\"\nint add(int a, int b) { return a + b; }\n",
		"main.c": "#include \"util.h\"\nint main(void) { return add(1, 2); }\n",
	})
	header := filepath.Join(dir, "util.h")
	source := filepath.Join(dir, "util.c")
	main := filepath.Join(dir, "main.c")
	e := openEngine(t, testConfig(), main, source, header)

	want := Jump{File: source, Line: 2, Column: 5, Moved: true, Symbol: "add"}
	assert.Equal(t, want, e.GoToDefinition(main, 2, 25, nil))
	assert.Equal(t, want, e.GoToDefinition(header, 1, 5, nil))
}

func TestGoToDefinitionMethodAndFunction(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"a.go": "package demo\n\ntype T struct{}\n\nfunc (T) Bar() {}\n",
		"b.go": "package demo\n\nfunc Bar() {}\n",
		"c.go": "package demo\n\nfunc f() { Bar() }\n",
	})
	cfg := testConfig()
	cfg.Languages = []string{"go"}
	e := openEngine(t, cfg, filepath.Join(dir, "a.go"), filepath.Join(dir, "b.go"), filepath.Join(dir, "c.go"))

	jump := e.GoToDefinition(filepath.Join(dir, "c.go"), 3, 12, nil)
	assert.Equal(t, Jump{File: filepath.Join(dir, "b.go"), Line: 3, Column: 6, Moved: true, Symbol: "Bar"}, jump)
}

func TestGoToDefinitionExternalNotLoaded(t *testing.T) {
	dir := writeSources(t, map[string]string{
		"a.go": "package demo\n\nfunc Run() int {\n\treturn helper()\n}\n",
		"b.go": "package demo\n\nfunc helper() int { return 1 }\n",
		"c.go": "package demo\n\nfunc other() {}\n",
		"m.py": "import os\n\nprint(helper())\n",
	})
	a := filepath.Join(dir, "a.go")
	m := filepath.Join(dir, "m.py")
	cfg := testConfig()
	cfg.Languages = []string{"go", "python"}

	tests := []struct {
		name   string
		loaded []string
		file   string
		line   int
		col    int
	}{
		{name: "go, single unit", loaded: []string{a}, file: a, line: 4, col: 9},
		{name: "go, other unit without it", loaded: []string{a, filepath.Join(dir, "c.go")}, file: a, line: 4, col: 9},
		{name: "python", loaded: []string{m, a}, file: m, line: 3, col: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := openEngine(t, cfg, tt.loaded...)
			jump := e.GoToDefinition(tt.file, tt.line, tt.col, nil)
			assert.Equal(t, Jump{File: tt.file, Line: tt.line, Column: tt.col}, jump)

			jumps, err := e.History(10)
			require.NoError(t, err)
			assert.Empty(t, jumps)
		})
	}

	// once the defining file is loaded the same reference moves
	e := openEngine(t, cfg, a, filepath.Join(dir, "b.go"))
	assert.Equal(t, filepath.Join(dir, "b.go"), e.GoToDefinition(a, 4, 9, nil).File)
}

func TestRestoreForgetsMissingUnits(t *testing.T) {
	f := newFixture(t)
	home := t.TempDir()
	cfg := testConfig()
	cfg.Session.Path = "session.db"

	e, err := Open(home, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "session.db"), e.SessionPath())
	require.NoError(t, e.Load([]string{f.test, f.print}, nil))
	require.NoError(t, e.Close())
	require.NoError(t, os.Remove(f.print))

	cfg.Session.Restore = true
	e, err = Open(home, cfg)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, []string{f.test}, e.Units())
	remembered, err := e.store.Units()
	require.NoError(t, err)
	assert.Equal(t, []string{f.test}, remembered)
}
