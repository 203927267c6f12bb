package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goosemania/pulp-2to3-migrate/pkg/query/lexer"
)

// Error is a syntax error in a content filter. Pos is the index of the offending token.
type Error struct {
	Pos     int
	message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (token %d)", e.message, e.Pos+1)
}

//nolint:gochecknoglobals
var comparisons = map[lexer.TokenKind]OperatorKind{
	lexer.Equals:        Equals,
	lexer.NotEquals:     NotEquals,
	lexer.Less:          Less,
	lexer.LessEquals:    LessEquals,
	lexer.Greater:       Greater,
	lexer.GreaterEquals: GreaterEquals,
	lexer.Like:          Like,
	lexer.ILike:         ILike,
}

// filterParser walks the tokens of a content filter such as
// `rpm.arch IN ('noarch', 'x86_64') AND downloaded = true`.
type filterParser struct {
	tokens []lexer.Token
	pos    int
}

func (p *filterParser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}

	return p.tokens[p.pos]
}

func (p *filterParser) next() lexer.Token {
	token := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}

	return token
}

func (p *filterParser) errorf(format string, a ...any) *Error {
	return &Error{Pos: p.pos, message: fmt.Sprintf(format, a...)}
}

func (p *filterParser) expect(kind lexer.TokenKind, what string) (lexer.Token, error) {
	if p.peek().Kind != kind {
		return lexer.Token{}, p.errorf("expected %s, got %s", what, p.peek().Debug())
	}

	return p.next(), nil
}

func unquote(token lexer.Token) string {
	return token.Value[1 : len(token.Value)-1]
}

// field parses a staged content field, like downloaded, or a detail field, like rpm.name
// or rpm."name".
func (p *filterParser) field() (Identifier, error) {
	head, err := p.expect(lexer.Identifier, "a content field")
	if err != nil {
		return Identifier{}, err
	}

	if p.peek().Kind != lexer.Dot {
		return Identifier{Key: head.Value}, nil
	}

	p.next()

	switch key := p.next(); key.Kind {
	case lexer.Identifier:
		return Identifier{Identifier: head.Value, Key: key.Value}, nil
	case lexer.String:
		return Identifier{Identifier: head.Value, Key: unquote(key)}, nil
	default:
		p.pos--

		return Identifier{}, p.errorf("expected a field of %s, got %s", head.Value, key.Debug())
	}
}

func (p *filterParser) literal() (Value, error) {
	token := p.next()

	switch token.Kind {
	case lexer.Number:
		n, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", token.Value, err)
		}

		return NumberExpr{Value: n}, nil
	case lexer.String:
		return StringExpr{Value: unquote(token)}, nil
	case lexer.Boolean:
		return BooleanExpr{Value: strings.EqualFold(token.Value, "true")}, nil
	default:
		p.pos--

		return nil, p.errorf("expected a number, a quoted string or true/false, got %s", token.Debug())
	}
}

// stringList parses ('a', 'b', ...), the right side of IN and NOT IN.
func (p *filterParser) stringList() (StringListExpr, error) {
	if _, err := p.expect(lexer.OpenParen, "'(' to open the list of values"); err != nil {
		return StringListExpr{}, err
	}

	values := make([]string, 0)

	for p.peek().Kind != lexer.CloseParen {
		value, err := p.expect(lexer.String, "a quoted string in the list of values")
		if err != nil {
			return StringListExpr{}, err
		}

		values = append(values, unquote(value))

		if p.peek().Kind == lexer.Comma {
			p.next()
		}
	}

	p.next()

	return StringListExpr{Values: values}, nil
}

func (p *filterParser) comparison() (*CompareExpr, error) {
	left, err := p.field()
	if err != nil {
		return nil, err
	}

	operator := In

	switch token := p.peek(); token.Kind {
	case lexer.Not:
		p.next()

		if _, err := p.expect(lexer.In, "IN after NOT"); err != nil {
			return nil, err
		}

		operator = NotIn
	case lexer.In:
		p.next()
	default:
		kind, ok := comparisons[token.Kind]
		if !ok {
			return nil, p.errorf("expected a comparison operator after %s, got %s", left.Key, token.Debug())
		}

		p.next()

		right, err := p.literal()
		if err != nil {
			return nil, err
		}

		return &CompareExpr{Left: left, Operator: kind, Right: right}, nil
	}

	values, err := p.stringList()
	if err != nil {
		return nil, err
	}

	return &CompareExpr{Left: left, Operator: operator, Right: values}, nil
}

// Parse turns the tokens of a content filter into a conjunction of comparisons.
// OR and grouping are not part of the filter language.
func Parse(tokens []lexer.Token) (*AndExpr, error) {
	p := &filterParser{tokens: tokens}
	filter := &AndExpr{Exprs: make([]*CompareExpr, 0)}

	for {
		expr, err := p.comparison()
		if err != nil {
			return nil, err
		}

		filter.Exprs = append(filter.Exprs, expr)

		if p.peek().Kind != lexer.And {
			break
		}

		p.next()
	}

	if p.peek().Kind != lexer.EOF {
		return nil, p.errorf("expected AND or the end of the filter, got %s", p.peek().Debug())
	}

	return filter, nil
}
