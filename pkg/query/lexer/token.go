package lexer

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota
	Number
	String
	Boolean
	Identifier

	// Grouping & Braces.
	OpenParen
	CloseParen

	// Equivalence.
	Equals
	NotEquals

	// Conditional.
	Less
	LessEquals
	Greater
	GreaterEquals

	// Symbols.
	Dot
	Comma

	// Reserved Keywords.
	In //nolint:varnamelen
	Not
	Like
	ILike
	And
)

//nolint:gochecknoglobals
var reservedLu = map[string]TokenKind{
	"AND":   And,
	"NOT":   Not,
	"IN":    In,
	"LIKE":  Like,
	"ILIKE": ILike,
	"TRUE":  Boolean,
	"FALSE": Boolean,
}

//nolint:gochecknoglobals
var kindNames = map[TokenKind]string{
	EOF:           "eof",
	Number:        "number",
	String:        "string",
	Boolean:       "boolean",
	Identifier:    "identifier",
	OpenParen:     "open_paren",
	CloseParen:    "close_paren",
	Equals:        "equals",
	NotEquals:     "not_equals",
	Less:          "less",
	LessEquals:    "less_equals",
	Greater:       "greater",
	GreaterEquals: "greater_equals",
	Dot:           "dot",
	Comma:         "comma",
	In:            "in",
	Not:           "not",
	Like:          "like",
	ILike:         "ilike",
	And:           "and",
}

type Token struct {
	Kind  TokenKind
	Value string
}

// Debug renders the token the way lexer tests compare them, e.g. identifier(rpm).
func (token Token) Debug() string {
	switch token.Kind {
	case Identifier, Number, String, Boolean:
		return fmt.Sprintf("%s(%s)", TokenKindString(token.Kind), token.Value)
	default:
		return TokenKindString(token.Kind)
	}
}

func TokenKindString(kind TokenKind) string {
	if name, ok := kindNames[kind]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", kind)
}

func newUniqueToken(kind TokenKind, value string) Token {
	return Token{
		kind, value,
	}
}
