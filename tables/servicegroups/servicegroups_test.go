package servicegroups

import (
	"testing"

	"github.com/watchflow/queryplan/entity"
)

type fakeCore struct{}

func (fakeCore) FindUser(name string) entity.User { return entity.NoAuthUser }

func demoTable() *Table {
	groups := []*Group{
		{Name: "web", Alias: "Web servers", NumOK: 3, NumWarn: 1},
		{Name: "db", Alias: "Databases", NumOK: 2, NumCrit: 1, NumUnknown: 1},
	}
	return New(groups, fakeCore{})
}

func TestNameAndCoreAndTableName(t *testing.T) {
	tbl := demoTable()
	if tbl.Name() != "servicegroups" {
		t.Errorf("Name() = %q, want %q", tbl.Name(), "servicegroups")
	}
	if tbl.Core() == nil {
		t.Errorf("Core() should not be nil")
	}
}

func TestColumnLookup(t *testing.T) {
	tbl := demoTable()
	if _, err := tbl.Column("name"); err != nil {
		t.Errorf("Column(\"name\") unexpected error: %v", err)
	}
	if _, err := tbl.Column("bogus"); err == nil {
		t.Errorf("Column(\"bogus\") expected an error")
	}
}

func TestAnyColumnVisitsEveryColumn(t *testing.T) {
	tbl := demoTable()
	seen := map[string]bool{}
	tbl.AnyColumn(func(c entity.Column) bool {
		seen[c.Name()] = true
		return false
	})
	for _, want := range []string{"name", "alias", "num_services", "worst_service_state"} {
		if !seen[want] {
			t.Errorf("AnyColumn did not visit column %q", want)
		}
	}
}

func TestAnyColumnStopsEarly(t *testing.T) {
	tbl := demoTable()
	count := 0
	tbl.AnyColumn(func(c entity.Column) bool {
		count++
		return true
	})
	if count != 1 {
		t.Errorf("AnyColumn should have stopped after the first visit, visited %d", count)
	}
}

func TestGetKnownAndUnknownKey(t *testing.T) {
	tbl := demoTable()

	row, err := tbl.Get("web")
	if err != nil {
		t.Fatalf("Get(\"web\") unexpected error: %v", err)
	}
	if row.IsNull() {
		t.Errorf("Get(\"web\") should resolve to a non-null row")
	}

	miss, err := tbl.Get("bogus")
	if err != nil {
		t.Fatalf("Get(\"bogus\") unexpected error: %v", err)
	}
	if !miss.IsNull() {
		t.Errorf("Get(\"bogus\") should resolve to a null row, not an error")
	}
}

func TestRowsVisitsInOrder(t *testing.T) {
	tbl := demoTable()
	nameCol, _ := tbl.Column("name")
	renderer := nameCol.(entity.Renderer)

	var got []string
	tbl.Rows(func(r entity.Row) bool {
		got = append(got, renderer.Render(r))
		return false
	})

	want := []string{"web", "db"}
	if len(got) != len(want) {
		t.Fatalf("Rows() visited %d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rows()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNumServicesAndWorstState(t *testing.T) {
	tbl := demoTable()
	numCol, _ := tbl.Column("num_services")
	worstCol, _ := tbl.Column("worst_service_state")

	row, _ := tbl.Get("db")

	if got := numCol.(entity.NumericColumn).Numeric(row); got != 4 {
		t.Errorf("num_services = %v, want 4", got)
	}
	// db has NumCrit=1, so worst_service_state should report crit (2),
	// per TableServiceGroups's priority: crit > unknown > warn > ok.
	if got := worstCol.(entity.NumericColumn).Numeric(row); got != 2 {
		t.Errorf("worst_service_state = %v, want 2", got)
	}
}

func TestNullRowRendersEmptyString(t *testing.T) {
	tbl := demoTable()
	nameCol, _ := tbl.Column("name")
	renderer := nameCol.(entity.Renderer)

	miss, _ := tbl.Get("bogus")
	if got := renderer.Render(miss); got != "" {
		t.Errorf("Render(null row) = %q, want empty string", got)
	}
}
