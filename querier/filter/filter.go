// Package filter implements the boolean expression tree (component C's
// data model) that Filter/And/Or/Negate header lines assemble: leaf
// comparisons, N-ary conjunctions and disjunctions, and negation.
//
// It mirrors thisisjab-logzilla's querier/node.go closed sum-type-via-
// marker-method shape (AndNode/OrNode/NotNode/ComparisonNode), generalized
// from that package's single implicit filter kind to the three kinds this
// protocol needs (row, stats, wait_condition).
package filter

import "github.com/watchflow/queryplan/entity"

// leaf is a single (column, operator, rhs) comparison. It never inspects
// op or rhs itself — those were already baked into match by the column
// that built this filter, per entity.Column.CreateFilter's contract.
type leaf struct {
	kind  entity.Kind
	match func(entity.Row) bool
}

// NewLeaf builds a leaf filter around a column-supplied matcher. Concrete
// Column implementations call this from CreateFilter; the parser itself
// never constructs leaves directly.
func NewLeaf(kind entity.Kind, match func(entity.Row) bool) entity.Filter {
	return &leaf{kind: kind, match: match}
}

func (f *leaf) Kind() entity.Kind        { return f.kind }
func (f *leaf) Match(row entity.Row) bool { return f.match(row) }
func (f *leaf) Negate() entity.Filter     { return &not{kind: f.kind, child: f} }

type and struct {
	kind     entity.Kind
	children []entity.Filter
}

func (f *and) Kind() entity.Kind { return f.kind }

func (f *and) Match(row entity.Row) bool {
	for _, c := range f.children {
		if !c.Match(row) {
			return false
		}
	}
	return true
}

func (f *and) Negate() entity.Filter { return &not{kind: f.kind, child: f} }

type or struct {
	kind     entity.Kind
	children []entity.Filter
}

func (f *or) Kind() entity.Kind { return f.kind }

func (f *or) Match(row entity.Row) bool {
	for _, c := range f.children {
		if c.Match(row) {
			return true
		}
	}
	return false
}

func (f *or) Negate() entity.Filter { return &not{kind: f.kind, child: f} }

type not struct {
	kind  entity.Kind
	child entity.Filter
}

func (f *not) Kind() entity.Kind         { return f.kind }
func (f *not) Match(row entity.Row) bool { return !f.child.Match(row) }

// Negate on a not-node unwraps rather than double-wraps: Negate(Negate(x))
// is normalized back to x, matching testable property #4 ("double
// negation is semantically equivalent to the original, up to
// normalization").
func (f *not) Negate() entity.Filter { return f.child }

// And folds subfilters into a single conjunction of the given kind. An
// empty subfilter list folds to a tautology (an And with no children,
// which Match reports as true for every row) rather than an error — this
// is what lets an empty filter stack fold cleanly at the end of a parse
// (spec §4.F, step 2/3).
func And(kind entity.Kind, subfilters []entity.Filter) entity.Filter {
	if len(subfilters) == 1 {
		return subfilters[0]
	}
	return &and{kind: kind, children: subfilters}
}

// Or mirrors And for disjunction. An empty subfilter list folds to an Or
// with no children, which Match reports as false for every row — this
// only ever occurs mid-construction (a bare "Or: 0" line), never at final
// assembly, where the row/wait-condition stacks are always folded with
// And.
func Or(kind entity.Kind, subfilters []entity.Filter) entity.Filter {
	if len(subfilters) == 1 {
		return subfilters[0]
	}
	return &or{kind: kind, children: subfilters}
}
