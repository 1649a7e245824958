// Package dsl parses galley documents: metadata, font resources, settings and
// a sequence of paragraphs whose bodies describe horizontal material.
package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)(?:pt|bp|mm|cm|in|pc|dd|cc|sp|filll|fill|fil|mu)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokens = newTokenTable(dslLexer.Symbols())

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node of a galley file.
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Section is a top-level entry. Anything that is not a named section is a
// vertical-mode command such as vskip or pagebreak.
type Section struct {
	Meta      *MetaSection      `parser:"  @@"`
	Resources *ResourcesSection `parser:"| @@"`
	Settings  *SettingsSection  `parser:"| @@"`
	Par       *ParSection       `parser:"| @@"`
	Vertical  *Command          `parser:"| @@"`
}

// Kind returns the human-readable section type.
func (s *Section) Kind() string {
	switch {
	case s == nil:
		return "unknown"
	case s.Meta != nil:
		return "meta"
	case s.Resources != nil:
		return "resources"
	case s.Settings != nil:
		return "settings"
	case s.Par != nil:
		return "par"
	case s.Vertical != nil:
		return s.Vertical.Name
	default:
		return "unknown"
	}
}

// MetaSection captures metadata assignments.
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// ResourcesSection groups resource declarations.
type ResourcesSection struct {
	Block *Block `parser:"'resources' @@"`
}

// SettingsSection overrides configuration keys for the whole document.
type SettingsSection struct {
	Entries []*Setting `parser:"'settings' '{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Setting is one `key: tokens...` line. The tokens are kept raw so that
// glue such as `12pt plus 1pt` survives as a single value.
type Setting struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident ':'"`
	Value []*Lexeme      `parser:"@@+"`
}

// ParSection is a paragraph with optional `[key value...]` overrides.
type ParSection struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Options []*Option      `parser:"'par' ( '[' @@ ']' )*"`
	Block   *Block         `parser:"Newline* @@"`
}

// Option is a bracketed paragraph override.
type Option struct {
	Key  string    `parser:"@Ident"`
	Args []*Lexeme `parser:"@@*"`
}

// Block is a delimited list of statements.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement inside a block (assignment/command/text literal).
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command is a named instruction with raw arguments and an optional body.
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral encapsulates raw string statements within blocks.
type TextLiteral struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Value StringLiteral  `parser:"@String"`
}

// Value represents generic property values.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
	Expr   *Expression    `parser:"| @@"`
}

// ArrayValue captures `[ ... ]` expressions.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( (',' | ';' | Newline+) Newline* @@ )* )? Newline* ']'"`
}

// InlineObject captures `{ key: value }` inline maps.
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ Newline* ( (';' | Newline+) Newline* @@ Newline* )* )? Newline* '}'"`
}

// Expression is a run of raw tokens kept for later evaluation, such as
// `12pt plus 1pt` on the right of an assignment.
type Expression struct {
	Parts []*Lexeme
}

// Parse implements participle.Parseable. Brackets and parentheses nest;
// the run ends at a line end, a brace, ';' or ',' outside them.
func (e *Expression) Parse(lex *lexer.PeekingLexer) error {
	depth := 0
	for {
		tok := lex.Peek()
		if tok.EOF() || (depth == 0 && tokens.endsExpression(tok)) {
			break
		}
		l, err := nextLexeme(lex)
		if err != nil {
			return err
		}
		switch l.Raw {
		case "(", "[":
			depth++
		case ")", "]":
			depth = max(depth-1, 0)
		}
		e.Parts = append(e.Parts, l)
	}
	if len(e.Parts) == 0 {
		return participle.NextMatch
	}
	return nil
}

// Lexeme is one token of a command argument list. Value holds strings
// unquoted; Raw is the source text.
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable so a Lexeme can appear in grammars.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	if tokens.endsArgs(lex.Peek()) {
		return participle.NextMatch
	}
	next, err := nextLexeme(lex)
	if err != nil {
		return err
	}
	*l = *next
	return nil
}

// IsString reports whether the lexeme was a quoted string.
func (l *Lexeme) IsString() bool { return l.Type == "String" }

// JoinValues joins lexeme values with single spaces, the form config
// values and glue specifications are parsed from.
func JoinValues(ls []*Lexeme) string {
	vals := make([]string, len(ls))
	for i, l := range ls {
		vals[i] = l.Value
	}
	return strings.Join(vals, " ")
}

// StringLiteral is a quoted string, unquoted on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse reads a document from r.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString reads a document from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

func nextLexeme(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}
	l := &Lexeme{Type: tokens.name(tok.Type), Value: tok.Value, Raw: tok.Value, Pos: tok.Pos}
	if tok.Type == tokens.str {
		val, err := strconv.Unquote(tok.Value)
		if err != nil {
			return nil, err
		}
		l.Value = val
	}
	return l, nil
}

// tokenTable resolves the lexer's token types once.
type tokenTable struct {
	names                   map[lexer.TokenType]string
	newline, lbrace, rbrace lexer.TokenType
	symbol, str             lexer.TokenType
}

func newTokenTable(symbols map[string]lexer.TokenType) tokenTable {
	t := tokenTable{names: make(map[lexer.TokenType]string, len(symbols))}
	for name, tt := range symbols {
		t.names[tt] = name
	}
	must := func(name string) lexer.TokenType {
		tt, ok := symbols[name]
		if !ok {
			panic(fmt.Sprintf("token %s not defined", name))
		}
		return tt
	}
	t.newline, t.lbrace, t.rbrace = must("Newline"), must("LBrace"), must("RBrace")
	t.symbol, t.str = must("Symbol"), must("String")
	return t
}

func (t tokenTable) name(tt lexer.TokenType) string {
	if name, ok := t.names[tt]; ok {
		return name
	}
	return fmt.Sprintf("#%d", tt)
}

func (t tokenTable) structural(tok *lexer.Token) bool {
	return tok.Type == t.newline || tok.Type == t.lbrace || tok.Type == t.rbrace
}

// endsArgs ends an argument list at a line end, a brace, ';' or the ']'
// closing a paragraph option.
func (t tokenTable) endsArgs(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() || t.structural(tok) {
		return true
	}
	return tok.Type == t.symbol && (tok.Value == ";" || tok.Value == "]")
}

func (t tokenTable) endsExpression(tok *lexer.Token) bool {
	if t.structural(tok) {
		return true
	}
	return tok.Type == t.symbol && (tok.Value == ";" || tok.Value == "," || tok.Value == "]")
}
