package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Number", Pattern: `(?:\d+\.\d+|\d+)(?:pt|mm|cm|in|%|x)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][(),.=+\-*/%<>!?;:]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	tokenNames       = invertSymbols(dslLexer.Symbols())
	newlineTokenType = mustTokenType("Newline")
	lbraceTokenType  = mustTokenType("LBrace")
	rbraceTokenType  = mustTokenType("RBrace")
	symbolTokenType  = mustTokenType("Symbol")
	stringTokenType  = mustTokenType("String")

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment"),
	)
)

// Document is the root AST node for a Vellum document file.
type Document struct {
	Pos      lexer.Position `parser:"" json:"-"`
	Name     string         `parser:"Newline* 'doc' @Ident"`
	Version  string         `parser:"@Ident"`
	Sections []*Section     `parser:"'{' Newline* ( @@ Newline* )* '}' Newline*"`
}

// Section represents a top-level section (meta or page).
type Section struct {
	Meta *MetaSection `parser:"  @@"`
	Page *PageSection `parser:"| @@"`
}

// MetaSection captures metadata assignments (title, author, ...).
type MetaSection struct {
	Block *Block `parser:"'meta' @@"`
}

// PageSection carries the page geometry header and the document body.
type PageSection struct {
	Spec  PageSpec `parser:"'page' @@"`
	Block *Block   `parser:"@@"`
}

// PageSpec stores header tokens (size preset, orientation, margin values, ...).
type PageSpec struct {
	Size   string    `parser:"@Ident"`
	Params []*Lexeme `parser:"@@*"`
}

// Block is a delimited list of statements.
type Block struct {
	Statements []*Statement `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Statement inside a block: property assignment, content command, or text literal.
type Statement struct {
	Assignment *Assignment  `parser:"  @@"`
	Command    *Command     `parser:"| @@"`
	Text       *TextLiteral `parser:"| @@"`
}

// Assignment uses colon syntax (key: value) for block properties.
type Assignment struct {
	Key   string `parser:"@Ident"`
	Value *Value `parser:"':' Newline* @@"`
}

// Command describes content instructions (p, h1..h6, li, table, image, ...).
type Command struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Name  string         `parser:"@Ident"`
	Args  []*Lexeme      `parser:"@@*"`
	Block *Block         `parser:"( Newline* @@ )?"`
}

// TextLiteral encapsulates raw string statements; inside content commands they
// become text runs.
type TextLiteral struct {
	Value StringLiteral `parser:"@String"`
}

// Value represents property values (string, number with optional unit, or
// bare keyword such as true/false).
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Text returns the value as a plain string.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// Lexeme captures a single lexical token (used by command arguments).
type Lexeme struct {
	Type  string         `json:"type"`
	Value string         `json:"value"`
	Raw   string         `json:"raw"`
	Pos   lexer.Position `json:"-"`
}

// Parse implements participle.Parseable so Lexeme can act as a grammar atom.
func (l *Lexeme) Parse(lex *lexer.PeekingLexer) error {
	tok := lex.Peek()
	if shouldStopArg(tok) {
		return participle.NextMatch
	}

	lexeme, err := consumeLexeme(lex)
	if err != nil {
		return err
	}
	*l = *lexeme
	return nil
}

// StringLiteral unquotes Go-style strings on capture.
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

// Parse parses document markup from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses document markup from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// FirstPage returns the first page section, or nil when the document has none.
func (d *Document) FirstPage() *PageSection {
	for _, section := range d.Sections {
		if section.Page != nil {
			return section.Page
		}
	}
	return nil
}

// Meta collects metadata assignments into a flat map.
func (d *Document) Meta() map[string]string {
	out := map[string]string{}
	for _, section := range d.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			out[stmt.Assignment.Key] = stmt.Assignment.Value.Text()
		}
	}
	return out
}

// consumeLexeme reads the next non-terminating token and converts it to a Lexeme.
func consumeLexeme(lex *lexer.PeekingLexer) (*Lexeme, error) {
	tok := lex.Next()
	if tok.EOF() {
		return nil, participle.NextMatch
	}

	lexeme, err := newLexeme(*tok)
	if err != nil {
		return nil, err
	}
	return &lexeme, nil
}

func shouldStopArg(tok *lexer.Token) bool {
	if tok == nil || tok.EOF() {
		return true
	}
	switch tok.Type {
	case newlineTokenType, rbraceTokenType, lbraceTokenType:
		return true
	case symbolTokenType:
		return tok.Value == ";"
	default:
		return false
	}
}

func newLexeme(tok lexer.Token) (Lexeme, error) {
	name, ok := tokenNames[tok.Type]
	if !ok {
		name = fmt.Sprintf("#%d", tok.Type)
	}
	val := tok.Value
	if tok.Type == stringTokenType {
		unquoted, err := strconv.Unquote(tok.Value)
		if err != nil {
			return Lexeme{}, err
		}
		val = unquoted
	}

	return Lexeme{
		Type:  name,
		Value: val,
		Raw:   tok.Value,
		Pos:   tok.Pos,
	}, nil
}

func invertSymbols(symbols map[string]lexer.TokenType) map[lexer.TokenType]string {
	out := make(map[lexer.TokenType]string, len(symbols))
	for name, tt := range symbols {
		out[tt] = name
	}
	return out
}

func mustTokenType(name string) lexer.TokenType {
	symbols := dslLexer.Symbols()
	tt, ok := symbols[name]
	if !ok {
		panic(fmt.Sprintf("token %s not defined", name))
	}
	return tt
}
