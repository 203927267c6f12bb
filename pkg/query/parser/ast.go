package parser

import "fmt"

// --------------------
// Literal Expressions
// --------------------

type Value interface {
	value() any
	fmt.Stringer
}

type NumberExpr struct {
	Value float64
}

func (n NumberExpr) value() any { return n.Value }

func (n NumberExpr) String() string { return fmt.Sprintf("%v", n.Value) }

type StringExpr struct {
	Value string
}

func (s StringExpr) value() any { return s.Value }

func (s StringExpr) String() string { return fmt.Sprintf("%q", s.Value) }

type BooleanExpr struct {
	Value bool
}

func (b BooleanExpr) value() any { return b.Value }

func (b BooleanExpr) String() string { return fmt.Sprintf("%t", b.Value) }

type StringListExpr struct {
	Values []string
}

func (l StringListExpr) value() any { return l.Values }

func (l StringListExpr) String() string { return fmt.Sprintf("%q", l.Values) }

//-----------------------
// Identifier Expressions
// ----------------------

// identifier.key expression, like rpm.name.
type Identifier struct {
	Identifier string
	Key        string
}

// --------------------
// Comparison Expression
// --------------------

type OperatorKind int

const (
	Equals OperatorKind = iota
	NotEquals
	Less
	LessEquals
	Greater
	GreaterEquals
	Like
	ILike
	In
	NotIn
)

//nolint:gochecknoglobals
var operatorSQL = map[OperatorKind]string{
	Equals:        "=",
	NotEquals:     "!=",
	Less:          "<",
	LessEquals:    "<=",
	Greater:       ">",
	GreaterEquals: ">=",
	Like:          "LIKE",
	ILike:         "ILIKE",
	In:            "IN",
	NotIn:         "NOT IN",
}

// String returns the SQL spelling of the operator.
func (op OperatorKind) String() string {
	if s, ok := operatorSQL[op]; ok {
		return s
	}

	return "unknown"
}

// a operator b.
type CompareExpr struct {
	Left     Identifier
	Operator OperatorKind
	Right    Value
}

// AND.
type AndExpr struct {
	Exprs []*CompareExpr
}
