// Package engine is the reference row scanner: given an assembled
// parser.Query and a table's rows, it applies the row filter, projects
// columns or computes stats, and returns a result set. spec.md treats
// the scanner as entirely out of scope for the query-plan builder
// itself, but SPEC_FULL.md asks for a runnable reference implementation
// so that the demo CLI (and the end-to-end tests) have something to run
// a parsed query against.
//
// The concurrent matching pass follows thisisjab-logzilla's
// engine/processor.go worker-pool shape: a fixed pool of workers pull
// indexed jobs off a channel and a sync.WaitGroup gates completion,
// generalized here from "process a log record" to "test a row against
// the query filter".
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/parser"
	"github.com/watchflow/queryplan/querier/stats"
)

// RowSource enumerates a table's rows in a stable order. It is separate
// from entity.Table because spec.md never asks the table abstraction
// itself to support scanning — only lookup and column resolution.
type RowSource interface {
	Rows(visit func(entity.Row) bool)
}

// DefaultWorkers is how many goroutines Scan uses to evaluate the row
// filter when the caller doesn't override it.
const DefaultWorkers = 8

// Scanner runs a parsed Query against a RowSource.
type Scanner struct {
	workers int
	logger  *slog.Logger
}

// NewScanner builds a Scanner with the given worker count (DefaultWorkers
// if zero or negative). logger is kept on the Scanner; Scan does not log.
func NewScanner(workers int, logger *slog.Logger) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scanner{workers: workers, logger: logger}
}

// Result is either a projected row set (ColumnNames/Rows populated) or a
// stats result (Stats populated), depending on whether the query asked
// for Stats: lines.
type Result struct {
	ColumnNames []string
	Rows        [][]string
	Stats       []float64
	Truncated   bool
}

// Scan applies query.Filter to every row source produces, then either
// projects query.Columns or computes query.StatsColumns over the
// matched set.
func (s *Scanner) Scan(ctx context.Context, query *parser.Query, source RowSource) (*Result, error) {
	var all []entity.Row
	source.Rows(func(r entity.Row) bool {
		all = append(all, r)
		return false
	})

	matched, err := s.filterConcurrently(ctx, query.Filter, all)
	if err != nil {
		return nil, err
	}

	if len(query.StatsColumns) > 0 {
		return s.computeStats(query, matched), nil
	}
	return s.projectColumns(query, matched), nil
}

// filterConcurrently tests every row against filter in parallel,
// preserving row order in the returned slice regardless of which worker
// finished first.
func (s *Scanner) filterConcurrently(ctx context.Context, filter entity.Filter, rows []entity.Row) ([]entity.Row, error) {
	keep := make([]bool, len(rows))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-jobs:
					if !ok {
						return
					}
					keep[idx] = filter.Match(rows[idx])
				}
			}
		})
	}

	for i := range rows {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	out := make([]entity.Row, 0, len(rows))
	for i, row := range rows {
		if keep[i] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Scanner) projectColumns(query *parser.Query, rows []entity.Row) *Result {
	names := make([]string, len(query.Columns))
	for i, col := range query.Columns {
		names[i] = col.Name()
	}

	limit := len(rows)
	truncated := false
	if query.Limit != parser.UnlimitedLimit && query.Limit < limit {
		limit = query.Limit
		truncated = true
	}

	out := make([][]string, 0, limit)
	for _, row := range rows[:limit] {
		record := make([]string, len(query.Columns))
		for i, col := range query.Columns {
			if r, ok := col.(entity.Renderer); ok {
				record[i] = r.Render(row)
			}
		}
		out = append(out, record)
	}

	return &Result{ColumnNames: names, Rows: out, Truncated: truncated}
}

func (s *Scanner) computeStats(query *parser.Query, rows []entity.Row) *Result {
	values := make([]float64, len(query.StatsColumns))
	for i, sc := range query.StatsColumns {
		values[i] = evalStatsColumn(sc, rows)
	}
	return &Result{Stats: values}
}

func evalStatsColumn(sc stats.Column, rows []entity.Row) float64 {
	switch v := sc.(type) {
	case *stats.Count:
		var n float64
		for _, row := range rows {
			if v.Filter.Match(row) {
				n++
			}
		}
		return n
	case *stats.Op:
		nc, ok := v.Column.(entity.NumericColumn)
		if !ok {
			return 0
		}
		agg := v.Factory()
		var any bool
		for _, row := range rows {
			agg.Update(nc.Numeric(row))
			any = true
		}
		if !any {
			return 0
		}
		return agg.Value()
	default:
		return 0
	}
}
