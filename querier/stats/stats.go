// Package stats implements the stats-column stack (component D): each
// entry is either a Count (a stats-kind filter, counted rather than
// tested) or an Op (a column bound to an aggregation kernel). And/Or/
// Negate reduction over Count entries "steals" the wrapped filter,
// discarding the residual stats column, exactly as
// ParsedQuery.cc::parseStatsAndOrLine / parseStatsNegateLine do.
//
// The sum-type shape follows thisisjab-logzilla/querier/node.go's marker-
// method pattern, generalized to two variants instead of four.
package stats

import (
	"fmt"

	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/aggregate"
)

// Column is one entry of the stats-column stack.
type Column interface {
	statsColumn()
	// ColumnName is the underlying column this entry is computed over. A
	// Count built by a StatsAnd/StatsOr/StatsNegate reduction reports "".
	ColumnName() string
}

// Count wraps a stats-kind filter and counts the rows that match it.
type Count struct {
	Filter entity.Filter
	column string
}

func NewCount(f entity.Filter, columnName string) *Count {
	return &Count{Filter: f, column: columnName}
}

func (*Count) statsColumn()          {}
func (c *Count) ColumnName() string  { return c.column }

// StealFilter extracts and returns the wrapped filter, consuming it. It
// only makes sense to call this once — it is used exclusively by the
// And/Or/Negate reducers, which discard the residual Count immediately
// after.
func (c *Count) StealFilter() entity.Filter {
	f := c.Filter
	c.Filter = nil
	return f
}

// Op wraps a column and an aggregation kernel factory (sum, min, max,
// avg, std, suminv, avginv).
type Op struct {
	Column  entity.Column
	Factory aggregate.Factory
}

func NewOp(column entity.Column, factory aggregate.Factory) *Op {
	return &Op{Column: column, Factory: factory}
}

func (*Op) statsColumn()         {}
func (o *Op) ColumnName() string { return o.Column.Name() }

// Stack is the LIFO stack maintained while parsing Stats/StatsAnd/
// StatsOr/StatsNegate lines.
type Stack struct {
	entries []Column
}

func (s *Stack) Push(c Column) { s.entries = append(s.entries, c) }

func (s *Stack) Len() int { return len(s.entries) }

// Pop removes and returns the stack's top entry.
func (s *Stack) Pop() Column {
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top
}

// StealTopFilter pops the top of the stack and steals its filter. It
// fails if the top entry is an Op (not a Count) — only Count entries
// carry a stealable filter.
func (s *Stack) StealTopFilter() (entity.Filter, error) {
	top := s.Pop()
	count, ok := top.(*Count)
	if !ok {
		return nil, fmt.Errorf("cannot combine stats column: not a filter-based stats column")
	}
	return count.StealFilter(), nil
}

// Drain returns every accumulated Column in push order, leaving the
// stack empty — used by the final assembly step to populate
// ParsedQuery.StatsColumns.
func (s *Stack) Drain() []Column {
	out := s.entries
	s.entries = nil
	return out
}
