package engine

import (
	"context"
	"log/slog"
	"testing"

	"github.com/watchflow/queryplan/columns"
	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/aggregate"
	"github.com/watchflow/queryplan/querier/filter"
	"github.com/watchflow/queryplan/querier/parser"
	"github.com/watchflow/queryplan/querier/stats"
)

type fakeRow struct {
	name string
	crit int64
}

func (fakeRow) IsNull() bool { return false }

type fakeSource struct{ rows []entity.Row }

func (s fakeSource) Rows(visit func(entity.Row) bool) {
	for _, r := range s.rows {
		if visit(r) {
			return
		}
	}
}

func testScanner() *Scanner {
	return NewScanner(4, slog.New(slog.DiscardHandler))
}

func nameColumn() *columns.String {
	return columns.NewString("name", func(r entity.Row) string { return r.(fakeRow).name })
}

func critColumn() *columns.Int {
	return columns.NewInt("num_services_crit", func(r entity.Row) int64 { return r.(fakeRow).crit })
}

func TestScanProjectsColumnsInOrder(t *testing.T) {
	source := fakeSource{rows: []entity.Row{
		fakeRow{name: "web", crit: 0},
		fakeRow{name: "db", crit: 1},
	}}
	name := nameColumn()
	crit := critColumn()
	query := &parser.Query{
		Columns: []entity.Column{name, crit},
		Filter:  filter.And(entity.KindRow, nil),
		Limit:   parser.UnlimitedLimit,
	}

	result, err := testScanner().Scan(context.Background(), query, source)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("Scan() returned %d rows, want 2", len(result.Rows))
	}
	if result.Rows[0][0] != "web" || result.Rows[0][1] != "0" {
		t.Errorf("row 0 = %v, want [web 0]", result.Rows[0])
	}
	if result.Rows[1][0] != "db" || result.Rows[1][1] != "1" {
		t.Errorf("row 1 = %v, want [db 1]", result.Rows[1])
	}
}

func TestScanAppliesFilter(t *testing.T) {
	source := fakeSource{rows: []entity.Row{
		fakeRow{name: "web", crit: 0},
		fakeRow{name: "db", crit: 1},
	}}
	name := nameColumn()
	f, err := name.CreateFilter(entity.KindRow, entity.OpEqual, "db")
	if err != nil {
		t.Fatalf("CreateFilter() error = %v", err)
	}
	query := &parser.Query{
		Columns: []entity.Column{name},
		Filter:  f,
		Limit:   parser.UnlimitedLimit,
	}

	result, err := testScanner().Scan(context.Background(), query, source)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0][0] != "db" {
		t.Fatalf("Scan() = %v, want exactly one row for db", result.Rows)
	}
}

func TestScanRespectsLimit(t *testing.T) {
	rows := make([]entity.Row, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, fakeRow{name: "g", crit: int64(i)})
	}
	source := fakeSource{rows: rows}
	crit := critColumn()
	query := &parser.Query{
		Columns: []entity.Column{crit},
		Filter:  filter.And(entity.KindRow, nil),
		Limit:   2,
	}

	result, err := testScanner().Scan(context.Background(), query, source)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("Scan() returned %d rows, want 2 (Limit)", len(result.Rows))
	}
	if !result.Truncated {
		t.Errorf("expected Truncated to be true")
	}
}

func TestScanComputesCountStats(t *testing.T) {
	source := fakeSource{rows: []entity.Row{
		fakeRow{name: "web", crit: 0},
		fakeRow{name: "db", crit: 1},
		fakeRow{name: "cache", crit: 1},
	}}
	crit := critColumn()
	countFilter, err := crit.CreateFilter(entity.KindStats, entity.OpEqual, "1")
	if err != nil {
		t.Fatalf("CreateFilter() error = %v", err)
	}
	query := &parser.Query{
		Filter:       filter.And(entity.KindRow, nil),
		StatsColumns: []stats.Column{stats.NewCount(countFilter, "num_services_crit")},
		Limit:        parser.UnlimitedLimit,
	}

	result, err := testScanner().Scan(context.Background(), query, source)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Stats) != 1 || result.Stats[0] != 2 {
		t.Errorf("Stats = %v, want [2]", result.Stats)
	}
}

func TestScanComputesSumStats(t *testing.T) {
	source := fakeSource{rows: []entity.Row{
		fakeRow{crit: 1},
		fakeRow{crit: 2},
		fakeRow{crit: 3},
	}}
	crit := critColumn()
	query := &parser.Query{
		Filter:       filter.And(entity.KindRow, nil),
		StatsColumns: []stats.Column{stats.NewOp(crit, aggregate.Kernels["sum"])},
		Limit:        parser.UnlimitedLimit,
	}

	result, err := testScanner().Scan(context.Background(), query, source)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Stats) != 1 || result.Stats[0] != 6 {
		t.Errorf("Stats = %v, want [6]", result.Stats)
	}
}

func TestScanEmptySourceYieldsNoRows(t *testing.T) {
	name := nameColumn()
	query := &parser.Query{
		Columns: []entity.Column{name},
		Filter:  filter.And(entity.KindRow, nil),
		Limit:   parser.UnlimitedLimit,
	}

	result, err := testScanner().Scan(context.Background(), query, fakeSource{})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Rows) != 0 {
		t.Errorf("Scan() over an empty source returned %d rows, want 0", len(result.Rows))
	}
}

func TestNewScannerDefaultsWorkerCount(t *testing.T) {
	s := NewScanner(0, slog.New(slog.DiscardHandler))
	if s.workers != DefaultWorkers {
		t.Errorf("workers = %d, want %d", s.workers, DefaultWorkers)
	}
}
