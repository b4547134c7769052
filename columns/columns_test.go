package columns

import (
	"testing"

	"github.com/watchflow/queryplan/entity"
)

type fakeRow struct {
	s string
	n int64
}

func (fakeRow) IsNull() bool { return false }

func str(r entity.Row) string { return r.(fakeRow).s }
func num(r entity.Row) int64  { return r.(fakeRow).n }

func TestStringFilterEquality(t *testing.T) {
	c := NewString("name", str)
	f, err := c.CreateFilter(entity.KindRow, entity.OpEqual, "web")
	if err != nil {
		t.Fatalf("CreateFilter() error = %v", err)
	}
	if !f.Match(fakeRow{s: "web"}) {
		t.Errorf("expected 'web' = 'web' to match")
	}
	if f.Match(fakeRow{s: "db"}) {
		t.Errorf("expected 'db' = 'web' to not match")
	}
}

func TestStringFilterCaseInsensitive(t *testing.T) {
	c := NewString("name", str)
	f, err := c.CreateFilter(entity.KindRow, entity.OpEqualICase, "WEB")
	if err != nil {
		t.Fatalf("CreateFilter() error = %v", err)
	}
	if !f.Match(fakeRow{s: "web"}) {
		t.Errorf("expected case-insensitive 'web' =~ 'WEB' to match")
	}
}

func TestStringFilterRegex(t *testing.T) {
	c := NewString("name", str)
	f, err := c.CreateFilter(entity.KindRow, entity.OpRegex, "^we")
	if err != nil {
		t.Fatalf("CreateFilter() error = %v", err)
	}
	if !f.Match(fakeRow{s: "web"}) {
		t.Errorf("expected 'web' ~ '^we' to match")
	}
	if f.Match(fakeRow{s: "db"}) {
		t.Errorf("expected 'db' ~ '^we' to not match")
	}
}

func TestStringFilterInvalidRegex(t *testing.T) {
	c := NewString("name", str)
	if _, err := c.CreateFilter(entity.KindRow, entity.OpRegex, "("); err == nil {
		t.Errorf("expected an error for an unparseable regular expression")
	}
}

func TestStringFilterUnsupportedOperator(t *testing.T) {
	c := NewString("name", str)
	if _, err := c.CreateFilter(entity.KindRow, entity.RelOp("bogus"), "x"); err == nil {
		t.Errorf("expected an error for an unsupported operator")
	}
}

func TestStringRender(t *testing.T) {
	c := NewString("name", str)
	if got := c.Render(fakeRow{s: "web"}); got != "web" {
		t.Errorf("Render() = %q, want %q", got, "web")
	}
}

func TestIntFilterComparators(t *testing.T) {
	c := NewInt("crit", num)

	tests := []struct {
		op   entity.RelOp
		rhs  string
		n    int64
		want bool
	}{
		{entity.OpEqual, "5", 5, true},
		{entity.OpEqual, "5", 6, false},
		{entity.OpNotEqual, "5", 6, true},
		{entity.OpLess, "5", 4, true},
		{entity.OpLessEqual, "5", 5, true},
		{entity.OpGreater, "5", 6, true},
		{entity.OpGreaterEqual, "5", 5, true},
	}

	for _, tt := range tests {
		f, err := c.CreateFilter(entity.KindRow, tt.op, tt.rhs)
		if err != nil {
			t.Fatalf("CreateFilter(%s, %s) error = %v", tt.op, tt.rhs, err)
		}
		if got := f.Match(fakeRow{n: tt.n}); got != tt.want {
			t.Errorf("%d %s %s = %v, want %v", tt.n, tt.op, tt.rhs, got, tt.want)
		}
	}
}

func TestIntFilterUnparseableRHS(t *testing.T) {
	c := NewInt("crit", num)
	if _, err := c.CreateFilter(entity.KindRow, entity.OpEqual, "not-a-number"); err == nil {
		t.Errorf("expected an error for a non-numeric right-hand side")
	}
}

func TestIntFilterUnsupportedOperator(t *testing.T) {
	c := NewInt("crit", num)
	if _, err := c.CreateFilter(entity.KindRow, entity.OpRegex, "5"); err == nil {
		t.Errorf("expected an error, regex is not supported for integer columns")
	}
}

func TestIntRenderAndNumeric(t *testing.T) {
	c := NewInt("crit", num)
	row := fakeRow{n: 42}
	if got := c.Render(row); got != "42" {
		t.Errorf("Render() = %q, want %q", got, "42")
	}
	if got := c.Numeric(row); got != 42.0 {
		t.Errorf("Numeric() = %v, want %v", got, 42.0)
	}
}

func TestNullFilterAlwaysFalse(t *testing.T) {
	c := NewNull("bogus")
	f, err := c.CreateFilter(entity.KindRow, entity.OpEqual, "anything")
	if err != nil {
		t.Fatalf("CreateFilter() error = %v", err)
	}
	if f.Match(fakeRow{s: "anything"}) {
		t.Errorf("Null column's filter should never match")
	}
}

func TestNullName(t *testing.T) {
	c := NewNull("bogus")
	if c.Name() != "bogus" {
		t.Errorf("Name() = %q, want %q", c.Name(), "bogus")
	}
}
