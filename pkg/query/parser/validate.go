package parser

import (
	"fmt"
	"sort"
)

/*

This is the equivalent of type-checking the untyped tree.
Not every parsed tree is a valid one.

Grammar rule: identifier.key operator value

If only key is passed, the identifier is "pulp2content".

Every identifier owns a fixed set of keys and every key has a kind:
string keys take quoted strings (or lists of them with IN / NOT IN),
numeric keys take numbers, boolean keys take true / false with = or !=.

*/

type ValidIdentifier int

const (
	Pulp2Content ValidIdentifier = iota
	Rpm
	Erratum
)

func (v ValidIdentifier) String() string {
	switch v {
	case Pulp2Content:
		return "pulp2content"
	case Rpm:
		return "rpm"
	case Erratum:
		return "erratum"
	default:
		return "unknown"
	}
}

type ValidCompareExpr struct {
	Identifier ValidIdentifier
	Key        string
	Operator   OperatorKind
	Value      any
}

type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(format string, a ...any) *ValidationError {
	return &ValidationError{message: fmt.Sprintf(format, a...)}
}

type keyKind int

const (
	stringKey keyKind = iota
	numberKey
	booleanKey
)

// Migrated is not a column: it matches rows that are linked to Pulp 3 content.
const Migrated = "migrated"

//nolint:gochecknoglobals
var searchableKeys = map[ValidIdentifier]map[string]keyKind{
	Pulp2Content: {
		"pulp2_id":              stringKey,
		"pulp2_content_type_id": stringKey,
		"pulp2_last_updated":    numberKey,
		"pulp2_storage_path":    stringKey,
		"downloaded":            booleanKey,
		Migrated:                booleanKey,
	},
	Rpm: {
		"name":         stringKey,
		"epoch":        stringKey,
		"version":      stringKey,
		"release":      stringKey,
		"arch":         stringKey,
		"checksum":     stringKey,
		"checksumtype": stringKey,
		"filename":     stringKey,
		"size":         numberKey,
		"is_modular":   booleanKey,
	},
	Erratum: {
		"errata_id": stringKey,
		"type":      stringKey,
		"severity":  stringKey,
		"status":    stringKey,
		"release":   stringKey,
	},
}

//nolint:gochecknoglobals
var keyAliases = map[string]string{
	"content_type": "pulp2_content_type_id",
	"last_updated": "pulp2_last_updated",
	"storage_path": "pulp2_storage_path",
}

func parseValidIdentifier(identifier string) (ValidIdentifier, error) {
	switch identifier {
	case "", "pulp2content", "content":
		return Pulp2Content, nil
	case "rpm", "rpms":
		return Rpm, nil
	case "erratum", "errata":
		return Erratum, nil
	default:
		return -1, NewValidationError("invalid identifier %q", identifier)
	}
}

func allowedKeys(identifier ValidIdentifier) []string {
	keys := make([]string, 0, len(searchableKeys[identifier]))
	for key := range searchableKeys[identifier] {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func parseKey(identifier ValidIdentifier, key string) (string, keyKind, error) {
	if identifier == Pulp2Content {
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
	}

	kind, ok := searchableKeys[identifier][key]
	if !ok {
		return "", 0, NewValidationError(
			"invalid %s key: %s. Allowed values are %v",
			identifier,
			key,
			allowedKeys(identifier),
		)
	}

	return key, kind, nil
}

func validateValue(identifier ValidIdentifier, key string, kind keyKind, operator OperatorKind, value Value) (any, error) {
	switch kind {
	case numberKey:
		if _, ok := value.(NumberExpr); !ok {
			return nil, NewValidationError(
				"expected numeric value type for %s.%s. Found %s",
				identifier, key, value,
			)
		}

		if operator == Like || operator == ILike {
			return nil, NewValidationError("%s is not supported for numeric key %s.%s", operator, identifier, key)
		}
	case booleanKey:
		if _, ok := value.(BooleanExpr); !ok {
			return nil, NewValidationError(
				"expected true or false for %s.%s. Found %s",
				identifier, key, value,
			)
		}

		if operator != Equals && operator != NotEquals {
			return nil, NewValidationError("only = and != are supported for boolean key %s.%s", identifier, key)
		}
	case stringKey:
		switch value.(type) {
		case StringExpr:
			if operator == In || operator == NotIn {
				return nil, NewValidationError("%s expects a list of quoted strings", operator)
			}
		case StringListExpr:
		default:
			return nil, NewValidationError(
				"expected a quoted string value for %s.%s. Found %s",
				identifier, key, value,
			)
		}
	}

	return value.value(), nil
}

// ValidateExpression type-checks a parsed comparison against the searchable keys
// of staged content and its detail rows.
func ValidateExpression(expression *CompareExpr) (*ValidCompareExpr, error) {
	validIdentifier, err := parseValidIdentifier(expression.Left.Identifier)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	validKey, kind, err := parseKey(validIdentifier, expression.Left.Key)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	value, err := validateValue(validIdentifier, validKey, kind, expression.Operator, expression.Right)
	if err != nil {
		return nil, fmt.Errorf("error on parsing filter expression: %w", err)
	}

	return &ValidCompareExpr{
		Identifier: validIdentifier,
		Key:        validKey,
		Operator:   expression.Operator,
		Value:      value,
	}, nil
}
