package parser

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Lexer maps the raw string tokens out for our AST definitions.
// Keywords come first so that they win over identifiers.
var Lexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Keyword", Pattern: `(?i)\b(?:move|event|undo|redo|state|log|help|by|as|true|false|null)\b`},
	{Name: "Ident", Pattern: `[a-zA-Z_][\w-]*`},
	{Name: "Float", Pattern: `-?\d+\.\d+`},
	{Name: "Int", Pattern: `-?\d+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Punct", Pattern: `[:]`},
	{Name: "Whitespace", Pattern: `[ \t]+`},
})

// Build creates our parser based on the struct tags in `ast.go`
func Build() *participle.Parser[Command] {
	return participle.MustBuild[Command](
		participle.Lexer(Lexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
		participle.CaseInsensitive("Keyword"),
	)
}

var commandParser = Build()

// Parse turns one line of input into a Command. Failures are mapped to a
// usage message for the command that was attempted.
func Parse(input string) (*Command, error) {
	cmd, err := commandParser.ParseString("", input)
	if err != nil {
		return nil, MapError(input, err)
	}
	return cmd, nil
}
