package lexer

import (
	"fmt"
	"regexp"
	"strings"
)

type regexPattern struct {
	regex   *regexp.Regexp
	handler regexHandler
}

type lexer struct {
	patterns []regexPattern
	Tokens   []Token
	source   string
	pos      int
}

type Error struct {
	message string
	Pos     int
}

func NewLexerError(pos int, format string, a ...any) *Error {
	return &Error{message: fmt.Sprintf(format, a...), Pos: pos}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (position %d)", e.message, e.Pos)
}

//nolint:gochecknoglobals
var patterns = []regexPattern{
	{regexp.MustCompile(`^\s+`), skipHandler},
	{regexp.MustCompile(`^"[^"]*"`), stringHandler},
	{regexp.MustCompile(`^'[^']*'`), stringHandler},
	{regexp.MustCompile("^`[^`]*`"), stringHandler},
	{regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?`), numberHandler},
	{regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*`), symbolHandler},
	{regexp.MustCompile(`^\(`), defaultHandler(OpenParen, "(")},
	{regexp.MustCompile(`^\)`), defaultHandler(CloseParen, ")")},
	{regexp.MustCompile(`^!=`), defaultHandler(NotEquals, "!=")},
	{regexp.MustCompile(`^==?`), equalsHandler},
	{regexp.MustCompile(`^<=`), defaultHandler(LessEquals, "<=")},
	{regexp.MustCompile(`^<`), defaultHandler(Less, "<")},
	{regexp.MustCompile(`^>=`), defaultHandler(GreaterEquals, ">=")},
	{regexp.MustCompile(`^>`), defaultHandler(Greater, ">")},
	{regexp.MustCompile(`^\.`), defaultHandler(Dot, ".")},
	{regexp.MustCompile(`^,`), defaultHandler(Comma, ",")},
}

// Tokenize splits a filter expression into tokens, terminated by an EOF token.
func Tokenize(source string) ([]Token, error) {
	lex := &lexer{
		source:   source,
		Tokens:   make([]Token, 0),
		patterns: patterns,
	}

	for !lex.atEOF() {
		matched := false

		for _, pattern := range lex.patterns {
			if match := pattern.regex.FindString(lex.remainder()); match != "" {
				pattern.handler(lex, match)

				matched = true

				break
			}
		}

		if !matched {
			return lex.Tokens, NewLexerError(lex.pos, "unrecognized token near '%v'", lex.remainder())
		}
	}

	lex.push(newUniqueToken(EOF, "EOF"))

	return lex.Tokens, nil
}

func (lex *lexer) advanceN(n int) {
	lex.pos += n
}

func (lex *lexer) remainder() string {
	return lex.source[lex.pos:]
}

func (lex *lexer) push(token Token) {
	lex.Tokens = append(lex.Tokens, token)
}

func (lex *lexer) atEOF() bool {
	return lex.pos >= len(lex.source)
}

type regexHandler func(lex *lexer, match string)

// defaultHandler creates a token with the matched contents. Used for most simple tokens.
func defaultHandler(kind TokenKind, value string) regexHandler {
	return func(lex *lexer, _ string) {
		lex.advanceN(len(value))
		lex.push(newUniqueToken(kind, value))
	}
}

// equalsHandler accepts both = and ==.
func equalsHandler(lex *lexer, match string) {
	lex.advanceN(len(match))
	lex.push(newUniqueToken(Equals, "="))
}

func stringHandler(lex *lexer, match string) {
	lex.push(newUniqueToken(String, match))
	lex.advanceN(len(match))
}

func numberHandler(lex *lexer, match string) {
	lex.push(newUniqueToken(Number, match))
	lex.advanceN(len(match))
}

func symbolHandler(lex *lexer, match string) {
	if kind, found := reservedLu[strings.ToUpper(match)]; found {
		lex.push(newUniqueToken(kind, match))
	} else {
		lex.push(newUniqueToken(Identifier, match))
	}

	lex.advanceN(len(match))
}

func skipHandler(lex *lexer, match string) {
	lex.advanceN(len(match))
}
