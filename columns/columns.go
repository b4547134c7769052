// Package columns provides reference entity.Column implementations:
// typed accessors for a Row's fields (String, Int) plus the Null
// placeholder a Columns: header falls back to for an unrecognized name
// (spec §9, quirk 3; §4.G).
//
// These are demo/reference material, not part of the engineered parser
// core — spec.md is explicit that "the column abstraction" is an external
// collaborator specified only by its interface. They exist so the module
// has something concrete to run the end-to-end scenarios (S1–S6) and the
// CLI against.
package columns

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/filter"
)

// String is a column whose value is a string field of a row, extracted
// by get.
type String struct {
	name string
	get  func(entity.Row) string
}

// NewString builds a String column named name, reading its value from a
// row via get.
func NewString(name string, get func(entity.Row) string) *String {
	return &String{name: name, get: get}
}

func (c *String) Name() string { return c.name }

// Render implements entity.Renderer.
func (c *String) Render(row entity.Row) string { return c.get(row) }

func (c *String) CreateFilter(kind entity.Kind, op entity.RelOp, rhs string) (entity.Filter, error) {
	cmp, err := stringComparator(op, rhs)
	if err != nil {
		return nil, err
	}
	return filter.NewLeaf(kind, func(row entity.Row) bool {
		return cmp(c.get(row))
	}), nil
}

func stringComparator(op entity.RelOp, rhs string) (func(string) bool, error) {
	switch op {
	case entity.OpEqual:
		return func(v string) bool { return v == rhs }, nil
	case entity.OpNotEqual:
		return func(v string) bool { return v != rhs }, nil
	case entity.OpEqualICase:
		return func(v string) bool { return strings.EqualFold(v, rhs) }, nil
	case entity.OpNotEqualICase:
		return func(v string) bool { return !strings.EqualFold(v, rhs) }, nil
	case entity.OpLess:
		return func(v string) bool { return v < rhs }, nil
	case entity.OpLessEqual:
		return func(v string) bool { return v <= rhs }, nil
	case entity.OpGreater:
		return func(v string) bool { return v > rhs }, nil
	case entity.OpGreaterEqual:
		return func(v string) bool { return v >= rhs }, nil
	case entity.OpRegex, entity.OpRegexICase, entity.OpNotRegex, entity.OpNotRegexICase:
		pattern := rhs
		if op == entity.OpRegexICase || op == entity.OpNotRegexICase {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regular expression %q: %w", rhs, err)
		}
		negate := op == entity.OpNotRegex || op == entity.OpNotRegexICase
		return func(v string) bool { return re.MatchString(v) != negate }, nil
	default:
		return nil, fmt.Errorf("operator %q is not supported for string columns", op)
	}
}

// Int is a column whose value is an integer field of a row, extracted by
// get.
type Int struct {
	name string
	get  func(entity.Row) int64
}

// NewInt builds an Int column named name, reading its value from a row
// via get.
func NewInt(name string, get func(entity.Row) int64) *Int {
	return &Int{name: name, get: get}
}

func (c *Int) Name() string { return c.name }

// Render implements entity.Renderer.
func (c *Int) Render(row entity.Row) string { return strconv.FormatInt(c.get(row), 10) }

// Numeric implements entity.NumericColumn.
func (c *Int) Numeric(row entity.Row) float64 { return float64(c.get(row)) }

func (c *Int) CreateFilter(kind entity.Kind, op entity.RelOp, rhs string) (entity.Filter, error) {
	rhsValue, err := strconv.ParseInt(strings.TrimSpace(rhs), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %q as an integer", rhs)
	}
	cmp, err := intComparator(op)
	if err != nil {
		return nil, err
	}
	return filter.NewLeaf(kind, func(row entity.Row) bool {
		return cmp(c.get(row), rhsValue)
	}), nil
}

func intComparator(op entity.RelOp) (func(a, b int64) bool, error) {
	switch op {
	case entity.OpEqual:
		return func(a, b int64) bool { return a == b }, nil
	case entity.OpNotEqual:
		return func(a, b int64) bool { return a != b }, nil
	case entity.OpLess:
		return func(a, b int64) bool { return a < b }, nil
	case entity.OpLessEqual:
		return func(a, b int64) bool { return a <= b }, nil
	case entity.OpGreater:
		return func(a, b int64) bool { return a > b }, nil
	case entity.OpGreaterEqual:
		return func(a, b int64) bool { return a >= b }, nil
	default:
		return nil, fmt.Errorf("operator %q is not supported for integer columns", op)
	}
}

// Null is the placeholder substituted for a Columns: header entry that
// names a column the table doesn't have — the documented "fallback for
// version-skew with remote sites" (spec §9, quirk 3). It matches nothing
// and is only ever produced by the Columns: header path, never by
// Filter/Stats.
type Null struct {
	name string
}

// NewNull builds a Null placeholder column named name.
func NewNull(name string) *Null { return &Null{name: name} }

func (c *Null) Name() string { return c.name }

func (c *Null) CreateFilter(kind entity.Kind, _ entity.RelOp, _ string) (entity.Filter, error) {
	return filter.NewLeaf(kind, func(entity.Row) bool { return false }), nil
}
