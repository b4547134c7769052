// Package servicegroups is a reference entity.Table: an in-memory table
// of monitoring service groups, laid out after Checkmk Livestatus's
// TableServiceGroups (original_source/livestatus/src/TableServiceGroups.cc).
// It exists to drive the end-to-end scenarios and the demo CLI against a
// concrete, non-trivial column set — group identity fields plus the
// per-state service counters — without depending on any real monitoring
// core.
package servicegroups

import (
	"fmt"

	"github.com/watchflow/queryplan/columns"
	"github.com/watchflow/queryplan/entity"
)

// Group is one row: a service group and its aggregate service counts.
// The counters are pre-aggregated inputs to this table, not something
// this package computes — a real core would maintain them incrementally
// as service states change.
type Group struct {
	Name       string
	Alias      string
	Notes      string
	NotesURL   string
	ActionURL  string
	NumOK      int64
	NumWarn    int64
	NumCrit    int64
	NumUnknown int64
	NumPending int64
}

func (g *Group) numServices() int64 {
	return g.NumOK + g.NumWarn + g.NumCrit + g.NumUnknown + g.NumPending
}

func (g *Group) worstState() int64 {
	switch {
	case g.NumCrit > 0:
		return 2
	case g.NumUnknown > 0:
		return 3
	case g.NumWarn > 0:
		return 1
	default:
		return 0
	}
}

// row wraps a *Group to satisfy entity.Row. A nil *Group represents "no
// such record" (used by WaitObject lookups against an unknown name).
type row struct {
	group *Group
}

func (r row) IsNull() bool { return r.group == nil }

// Table is the servicegroups table.
type Table struct {
	byName  map[string]*Group
	order   []string
	columns map[string]entity.Column
	names   []string
	core    entity.Core
}

// New builds a Table from groups, keyed and iterated in the order
// given, resolving AuthUser: lines against core.
func New(groups []*Group, core entity.Core) *Table {
	t := &Table{
		byName:  make(map[string]*Group, len(groups)),
		columns: make(map[string]entity.Column),
		core:    core,
	}
	for _, g := range groups {
		t.byName[g.Name] = g
		t.order = append(t.order, g.Name)
	}
	t.defineColumns()
	return t
}

func (t *Table) addColumn(col entity.Column) {
	t.columns[col.Name()] = col
	t.names = append(t.names, col.Name())
}

func (t *Table) defineColumns() {
	str := func(name string, fn func(*Group) string) {
		t.addColumn(columns.NewString(name, func(r entity.Row) string {
			g := r.(row).group
			if g == nil {
				return ""
			}
			return fn(g)
		}))
	}
	num := func(name string, fn func(*Group) int64) {
		t.addColumn(columns.NewInt(name, func(r entity.Row) int64 {
			g := r.(row).group
			if g == nil {
				return 0
			}
			return fn(g)
		}))
	}

	str("name", func(g *Group) string { return g.Name })
	str("alias", func(g *Group) string { return g.Alias })
	str("notes", func(g *Group) string { return g.Notes })
	str("notes_url", func(g *Group) string { return g.NotesURL })
	str("action_url", func(g *Group) string { return g.ActionURL })

	num("worst_service_state", (*Group).worstState)
	num("num_services", (*Group).numServices)
	num("num_services_ok", func(g *Group) int64 { return g.NumOK })
	num("num_services_warn", func(g *Group) int64 { return g.NumWarn })
	num("num_services_crit", func(g *Group) int64 { return g.NumCrit })
	num("num_services_unknown", func(g *Group) int64 { return g.NumUnknown })
	num("num_services_pending", func(g *Group) int64 { return g.NumPending })
}

func (t *Table) Name() string { return "servicegroups" }

func (t *Table) Column(name string) (entity.Column, error) {
	col, ok := t.columns[name]
	if !ok {
		return nil, fmt.Errorf("table 'servicegroups' has no column '%s'", name)
	}
	return col, nil
}

func (t *Table) AnyColumn(visit func(entity.Column) bool) {
	for _, name := range t.names {
		if visit(t.columns[name]) {
			return
		}
	}
}

// Get resolves a service group by name, its primary key. A miss returns
// a null Row, never an error — "not found" is a Row property, per
// entity.Table's contract, not a failure of the lookup itself.
func (t *Table) Get(primaryKey string) (entity.Row, error) {
	return row{group: t.byName[primaryKey]}, nil
}

func (t *Table) Core() entity.Core { return t.core }

// Rows visits every group in table order, wrapped as entity.Row — the
// hook the reference scanner (package engine) uses to walk the table.
func (t *Table) Rows(visit func(entity.Row) bool) {
	for _, name := range t.order {
		if visit(row{group: t.byName[name]}) {
			return
		}
	}
}
