// Package outline extracts the brief structure of a Python module: its
// docstring, top-level classes, functions, globals and imports.
package outline

import (
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/standardbeagle/fif/internal/debug"
)

// DefaultCacheSize is the number of parsed modules kept by NewParser
const DefaultCacheSize = 256

// Function is a top-level function or a method
type Function struct {
	Name      string `json:"name"`
	Line      int    `json:"line"`
	Arguments string `json:"arguments,omitempty"`
	Async     bool   `json:"async,omitempty"`
}

// Class is a top-level class with its methods
type Class struct {
	Name    string     `json:"name"`
	Line    int        `json:"line"`
	Bases   string     `json:"bases,omitempty"`
	Methods []Function `json:"methods,omitempty"`
}

// Global is a module level assignment target
type Global struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Import is one import statement. What lists the imported names of a
// "from X import a, b" statement.
type Import struct {
	Module string   `json:"module"`
	What   []string `json:"what,omitempty"`
	Line   int      `json:"line"`
}

// ModuleInfo is the brief structure of a module. IsOK is false when the
// source did not parse cleanly; whatever could be recovered is still filled in.
type ModuleInfo struct {
	Docstring string     `json:"docstring,omitempty"`
	Classes   []Class    `json:"classes,omitempty"`
	Functions []Function `json:"functions,omitempty"`
	Globals   []Global   `json:"globals,omitempty"`
	Imports   []Import   `json:"imports,omitempty"`
	IsOK      bool       `json:"is_ok"`
}

// Parser parses Python sources with tree-sitter and caches results by
// content hash. It is safe for concurrent use.
type Parser struct {
	mu     sync.Mutex
	parser *tree_sitter.Parser
	cache  *lru.Cache[uint64, *ModuleInfo]
}

// NewParser creates a parser with the default cache size
func NewParser() *Parser {
	return NewParserWithCache(DefaultCacheSize)
}

// NewParserWithCache creates a parser keeping up to size parsed modules.
// A size below one disables caching.
func NewParserWithCache(size int) *Parser {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(language); err != nil {
		debug.Warn("OUTLINE", "python grammar unavailable: %v\n", err)
		parser.Close()
		parser = nil
	}

	p := &Parser{parser: parser}
	if size > 0 {
		p.cache, _ = lru.New[uint64, *ModuleInfo](size)
	}
	return p
}

// Close releases the tree-sitter parser
func (p *Parser) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Parse returns the brief structure of source. The returned value is shared
// with the cache and must not be modified.
func (p *Parser) Parse(source []byte) *ModuleInfo {
	key := xxhash.Sum64(source)
	if p.cache != nil {
		if info, ok := p.cache.Get(key); ok {
			return info
		}
	}

	info := p.parse(source)
	if p.cache != nil {
		p.cache.Add(key, info)
	}
	return info
}

// ParseString is Parse for text already held as a string
func (p *Parser) ParseString(source string) *ModuleInfo {
	return p.Parse([]byte(source))
}

func (p *Parser) parse(source []byte) *ModuleInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.parser == nil {
		return &ModuleInfo{}
	}

	tree := p.parser.Parse(source, nil)
	if tree == nil {
		return &ModuleInfo{}
	}
	defer tree.Close()

	root := tree.RootNode()
	info := &ModuleInfo{IsOK: !root.HasError()}
	e := extractor{source: source, info: info}
	e.module(root)

	debug.LogOutline("parsed %d bytes: %d classes, %d functions, ok=%v\n",
		len(source), len(info.Classes), len(info.Functions), info.IsOK)
	return info
}

// extractor walks the top level of a module tree
type extractor struct {
	source []byte
	info   *ModuleInfo
}

func (e *extractor) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(e.source)
}

func line(n *tree_sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

func (e *extractor) module(root *tree_sitter.Node) {
	first := true
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}

		if first && child.Kind() == "expression_statement" {
			if s := child.NamedChild(0); s != nil && s.Kind() == "string" && child.NamedChildCount() == 1 {
				e.info.Docstring = e.stringValue(s)
			}
		}
		first = false

		switch child.Kind() {
		case "class_definition":
			e.info.Classes = append(e.info.Classes, e.class(child))
		case "function_definition":
			e.info.Functions = append(e.info.Functions, e.function(child))
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def == nil {
				continue
			}
			switch def.Kind() {
			case "class_definition":
				e.info.Classes = append(e.info.Classes, e.class(def))
			case "function_definition":
				e.info.Functions = append(e.info.Functions, e.function(def))
			}
		case "import_statement":
			e.importStatement(child)
		case "import_from_statement", "future_import_statement":
			e.importFrom(child)
		case "expression_statement":
			e.globals(child)
		}
	}
}

// stringValue returns the content of a string literal without its quotes
// and prefix
func (e *extractor) stringValue(s *tree_sitter.Node) string {
	var b strings.Builder
	for i := uint(0); i < s.NamedChildCount(); i++ {
		part := s.NamedChild(i)
		if part != nil && part.Kind() == "string_content" {
			b.WriteString(e.text(part))
		}
	}
	return strings.TrimSpace(b.String())
}

func (e *extractor) function(n *tree_sitter.Node) Function {
	f := Function{
		Name:      e.text(n.ChildByFieldName("name")),
		Line:      line(n),
		Arguments: strings.TrimSuffix(strings.TrimPrefix(e.text(n.ChildByFieldName("parameters")), "("), ")"),
	}
	if first := n.Child(0); first != nil && first.Kind() == "async" {
		f.Async = true
	}
	return f
}

func (e *extractor) class(n *tree_sitter.Node) Class {
	c := Class{
		Name:  e.text(n.ChildByFieldName("name")),
		Line:  line(n),
		Bases: strings.TrimSuffix(strings.TrimPrefix(e.text(n.ChildByFieldName("superclasses")), "("), ")"),
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return c
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		if member == nil {
			continue
		}
		if member.Kind() == "decorated_definition" {
			member = member.ChildByFieldName("definition")
		}
		if member != nil && member.Kind() == "function_definition" {
			c.Methods = append(c.Methods, e.function(member))
		}
	}
	return c
}

func (e *extractor) importStatement(n *tree_sitter.Node) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		name := n.NamedChild(i)
		if name == nil || name.Kind() == "comment" {
			continue
		}
		if name.Kind() == "aliased_import" {
			name = name.ChildByFieldName("name")
		}
		e.info.Imports = append(e.info.Imports, Import{Module: e.text(name), Line: line(n)})
	}
}

func (e *extractor) importFrom(n *tree_sitter.Node) {
	imp := Import{Line: line(n), Module: "__future__"}
	module := n.ChildByFieldName("module_name")
	if module != nil {
		imp.Module = e.text(module)
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || (module != nil && child.StartByte() == module.StartByte()) {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			imp.What = append(imp.What, e.text(child))
		case "aliased_import":
			imp.What = append(imp.What, e.text(child.ChildByFieldName("name")))
		case "wildcard_import":
			imp.What = append(imp.What, "*")
		}
	}
	e.info.Imports = append(e.info.Imports, imp)
}

// globals records the plain names assigned at module level
func (e *extractor) globals(stmt *tree_sitter.Node) {
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		assign := stmt.NamedChild(i)
		if assign == nil || assign.Kind() != "assignment" {
			continue
		}
		e.targets(assign.ChildByFieldName("left"), line(stmt))
	}
}

func (e *extractor) targets(n *tree_sitter.Node, at int) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier":
		e.info.Globals = append(e.info.Globals, Global{Name: e.text(n), Line: at})
	case "pattern_list", "tuple_pattern", "list_pattern":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			e.targets(n.NamedChild(i), at)
		}
	}
}
