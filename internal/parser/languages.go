package parser

import (
	"unsafe"

	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_lua "github.com/tree-sitter-grammars/tree-sitter-lua/bindings/go"
)

// linkage decides how symbol keys are scoped and what happens to names that
// have no binding inside the unit.
type linkage int

const (
	// linkageC: external names are shared by the language, static and local
	// names by their file. Unbound names refer to nothing.
	linkageC linkage = iota
	// linkagePackage: top-level names are shared by every file in the same
	// directory. Unbound names refer to an external declaration.
	linkagePackage
	// linkageGlobal: top-level names are shared by the whole language.
	// Unbound names refer to an external declaration.
	linkageGlobal
)

// languageSpec is the static description of one grammar.
//
// Query captures:
//
//	@def     node that defines a symbol
//	@decl    node that only declares a symbol
//	@var     variable; a definition unless declared extern
//	@name    the symbol's name inside @def/@decl/@var
//	@include a C preprocessor include directive, with @path
type languageSpec struct {
	name       string
	exts       []string
	language   func() unsafe.Pointer
	query      string
	references []string // leaf kinds that refer to a symbol by name
	functions  []string // kinds that open a local scope
	scopes     []string // kinds whose name qualifies member symbols
	members    []string // member access kinds; the last child names the member
	linkage    linkage
}

var cDefinitions = `
	(function_definition declarator: (function_declarator declarator: (identifier) @name)) @def
	(function_definition declarator: (pointer_declarator declarator: (function_declarator declarator: (identifier) @name))) @def
	(function_definition declarator: (function_declarator parameters: (parameter_list (parameter_declaration declarator: (identifier) @name @var))))
	(struct_specifier name: (type_identifier) @name body: (field_declaration_list)) @def
	(union_specifier name: (type_identifier) @name body: (field_declaration_list)) @def
	(enum_specifier name: (type_identifier) @name body: (enumerator_list)) @def
	(enumerator name: (identifier) @name) @def
	(field_declaration declarator: (field_identifier) @name) @def
	(type_definition declarator: (type_identifier) @name) @def
	(declaration declarator: (init_declarator declarator: (identifier) @name) @def)
	(preproc_def name: (identifier) @name) @def
	(preproc_function_def name: (identifier) @name) @def
	(declaration declarator: (function_declarator declarator: (identifier) @name)) @decl
	(declaration declarator: (pointer_declarator declarator: (function_declarator declarator: (identifier) @name))) @decl
	(declaration declarator: (identifier) @name @var)
	(preproc_include path: [(string_literal) (system_lib_string)] @path) @include
`

var cppDefinitions = cDefinitions + `
	(function_definition declarator: (function_declarator declarator: (field_identifier) @name)) @def
	(function_definition declarator: (function_declarator declarator: (qualified_identifier) @name)) @def
	(class_specifier name: (type_identifier) @name body: (field_declaration_list)) @def
	(field_declaration declarator: (function_declarator declarator: (field_identifier) @name)) @decl
`

var cReferences = []string{"identifier", "type_identifier", "field_identifier"}

var languages = []languageSpec{
	{
		name:       "c",
		exts:       []string{".c"},
		language:   tree_sitter_c.Language,
		query:      cDefinitions,
		references: cReferences,
		functions:  []string{"function_definition"},
		scopes:     []string{"struct_specifier", "union_specifier"},
		linkage:    linkageC,
	},
	{
		name:       "cpp",
		exts:       []string{".cc", ".cpp", ".cxx", ".c++", ".h", ".hh", ".hpp", ".hxx"},
		language:   tree_sitter_cpp.Language,
		query:      cppDefinitions,
		references: cReferences,
		functions:  []string{"function_definition", "lambda_expression"},
		scopes:     []string{"namespace_definition", "class_specifier", "struct_specifier", "union_specifier"},
		linkage:    linkageC,
	},
	{
		name:     "go",
		exts:     []string{".go"},
		language: tree_sitter_go.Language,
		query: `
			(function_declaration name: (identifier) @name) @def
			(method_declaration name: (field_identifier) @name) @def
			(type_declaration (type_spec name: (type_identifier) @name)) @def
			(const_spec name: (identifier) @name) @def
			(var_spec name: (identifier) @name) @def
			(short_var_declaration left: (expression_list (identifier) @name @var))
			(parameter_declaration name: (identifier) @name @var)
		`,
		references: []string{"identifier", "type_identifier", "field_identifier"},
		functions:  []string{"function_declaration", "method_declaration", "func_literal"},
		members:    []string{"selector_expression"},
		linkage:    linkagePackage,
	},
	{
		name:     "python",
		exts:     []string{".py"},
		language: tree_sitter_python.Language,
		query: `
			(function_definition name: (identifier) @name) @def
			(class_definition name: (identifier) @name) @def
			(assignment left: (identifier) @name @var)
			(parameters (identifier) @name @var)
			(import_from_statement name: (dotted_name . (identifier) @name .) @decl)
		`,
		references: []string{"identifier"},
		functions:  []string{"function_definition", "lambda"},
		scopes:     []string{"class_definition"},
		members:    []string{"attribute"},
		linkage:    linkageGlobal,
	},
	{
		name:     "javascript",
		exts:     []string{".js", ".jsx", ".mjs", ".cjs"},
		language: tree_sitter_javascript.Language,
		query: `
			(function_declaration name: (identifier) @name) @def
			(class_declaration name: (identifier) @name) @def
			(method_definition name: (property_identifier) @name) @def
			(variable_declarator name: (identifier) @name) @def
			(formal_parameters (identifier) @name @var)
			(import_specifier name: (identifier) @name) @decl
		`,
		references: []string{"identifier", "property_identifier"},
		functions:  []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"},
		scopes:     []string{"class_declaration", "class"},
		members:    []string{"member_expression"},
		linkage:    linkageGlobal,
	},
	{
		name:       "typescript",
		exts:       []string{".ts", ".mts", ".cts"},
		language:   tree_sitter_typescript.LanguageTypescript,
		query:      typescriptQuery,
		references: []string{"identifier", "property_identifier", "type_identifier"},
		functions:  []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"},
		scopes:     []string{"class_declaration", "abstract_class_declaration"},
		members:    []string{"member_expression"},
		linkage:    linkageGlobal,
	},
	{
		name:       "tsx",
		exts:       []string{".tsx"},
		language:   tree_sitter_typescript.LanguageTSX,
		query:      typescriptQuery,
		references: []string{"identifier", "property_identifier", "type_identifier"},
		functions:  []string{"function_declaration", "function_expression", "arrow_function", "method_definition", "generator_function_declaration"},
		scopes:     []string{"class_declaration", "abstract_class_declaration"},
		members:    []string{"member_expression"},
		linkage:    linkageGlobal,
	},
	{
		name:     "lua",
		exts:     []string{".lua"},
		language: tree_sitter_lua.Language,
		query: `
			(function_declaration name: [
				(identifier)
				(dot_index_expression)
				(method_index_expression)
			] @name) @def
		`,
		references: []string{"identifier"},
		functions:  []string{"function_declaration", "function_definition"},
		linkage:    linkageGlobal,
	},
}

var typescriptQuery = `
	(function_declaration name: (identifier) @name) @def
	(class_declaration name: (type_identifier) @name) @def
	(method_definition name: (property_identifier) @name) @def
	(interface_declaration name: (type_identifier) @name) @def
	(type_alias_declaration name: (type_identifier) @name) @def
	(variable_declarator name: (identifier) @name) @def
	(function_signature name: (identifier) @name) @decl
	(import_specifier name: (identifier) @name) @decl
`

// defaultTransparent lists named kinds treated as unexposed in every
// language, on top of anonymous tokens.
var defaultTransparent = []string{"parenthesized_expression"}
