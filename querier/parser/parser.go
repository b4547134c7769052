// Package parser implements components E and F: the header dispatcher
// that walks a request's lines one at a time, and the final assembly
// step that folds the accumulated filter stacks and stats stack into an
// immutable Query.
//
// The dispatch loop follows ParsedQuery.cc's isolate-and-continue shape:
// a header that fails to parse reports a diagnostic through the
// OutputSink and does not abort the request — every remaining line is
// still processed, and whatever state was accumulated before the
// failure survives into the final Query.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/watchflow/queryplan/columns"
	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/aggregate"
	"github.com/watchflow/queryplan/querier/filter"
	"github.com/watchflow/queryplan/querier/lexer"
	"github.com/watchflow/queryplan/querier/stats"
)

// Parser accumulates one request's worth of header lines into a Query.
// It is not safe for concurrent use and not meant to be reused across
// requests — build a fresh one with New for each incoming query.
type Parser struct {
	table    entity.Table
	triggers entity.TriggerRegistry
	output   OutputSink
	now      func() time.Time

	query *Query

	rowFilters  []entity.Filter
	waitFilters []entity.Filter
	statsStack  stats.Stack
}

// New builds a Parser for a single request against table, resolving
// WaitTrigger: header values against triggers and reporting per-header
// diagnostics and the final response header mode through output.
func New(table entity.Table, triggers entity.TriggerRegistry, output OutputSink) *Parser {
	return &Parser{
		table:    table,
		triggers: triggers,
		output:   output,
		now:      time.Now,
		query:    newQuery(),
	}
}

// WithClock overrides the clock Timelimit: and Localtime: use to compute
// deadlines and clock-skew offsets, for deterministic tests.
func (p *Parser) WithClock(now func() time.Time) *Parser {
	p.now = now
	return p
}

// Parse dispatches every line in turn and returns the assembled Query.
// Blank lines and a bare empty line terminating the request are the
// caller's concern — Parse treats every element of lines as one header.
func (p *Parser) Parse(lines []string) *Query {
	for _, line := range lines {
		header, value := splitHeaderLine(line)
		if err := p.dispatch(header, value); err != nil {
			p.output.SetError(StatusBadRequest, fmt.Sprintf(
				"while processing header '%s' for table '%s': %s",
				header, p.table.Name(), err,
			))
		}
	}
	p.finish()
	return p.query
}

// splitHeaderLine splits "Header: value" into ("Header", "value"),
// stripping exactly the whitespace between the colon and the value —
// mirroring ParsedQuery::processRequestLine's split on the first colon.
func splitHeaderLine(line string) (header, value string) {
	idx := strings.IndexByte(line, ':')
	if idx == -1 {
		return line, ""
	}
	return line[:idx], strings.TrimLeft(line[idx+1:], " \t")
}

func (p *Parser) dispatch(header, value string) error {
	switch header {
	case "Filter":
		return p.parseFilterLine(value, &p.rowFilters, entity.KindRow)
	case "Or":
		return p.parseAndOrLine(value, filter.Or, &p.rowFilters)
	case "And":
		return p.parseAndOrLine(value, filter.And, &p.rowFilters)
	case "Negate":
		return p.parseNegateLine(value, &p.rowFilters)

	case "StatsOr":
		return p.parseStatsAndOrLine(value, filter.Or)
	case "StatsAnd":
		return p.parseStatsAndOrLine(value, filter.And)
	case "StatsNegate":
		return p.parseStatsNegateLine(value)
	case "Stats":
		return p.parseStatsLine(value)

	case "Columns":
		return p.parseColumnsLine(value)
	case "ColumnHeaders":
		return p.parseColumnHeadersLine(value)

	case "Limit":
		return p.parseLimitLine(value)
	case "Timelimit":
		return p.parseTimelimitLine(value)
	case "AuthUser":
		return p.parseAuthUserLine(value)
	case "Separators":
		return p.parseSeparatorsLine(value)
	case "OutputFormat":
		return p.parseOutputFormatLine(value)
	case "ResponseHeader":
		return p.parseResponseHeaderLine(value)
	case "KeepAlive":
		return p.parseKeepAliveLine(value)

	case "WaitCondition":
		return p.parseFilterLine(value, &p.waitFilters, entity.KindWaitCondition)
	case "WaitConditionAnd":
		return p.parseAndOrLine(value, filter.And, &p.waitFilters)
	case "WaitConditionOr":
		return p.parseAndOrLine(value, filter.Or, &p.waitFilters)
	case "WaitConditionNegate":
		return p.parseNegateLine(value, &p.waitFilters)
	case "WaitTrigger":
		return p.parseWaitTriggerLine(value)
	case "WaitObject":
		return p.parseWaitObjectLine(value)
	case "WaitTimeout":
		return p.parseWaitTimeoutLine(value)

	case "Localtime":
		return p.parseLocaltimeLine(value)

	default:
		return errUndefinedHeader
	}
}

// parseFilterLine handles both Filter: and WaitCondition: lines: column
// name, operator, then everything else verbatim as the right-hand side
// (which may itself contain whitespace).
func (p *Parser) parseFilterLine(value string, stack *[]entity.Filter, kind entity.Kind) error {
	c := lexer.New(value)
	columnName, err := c.NextString()
	if err != nil {
		return err
	}
	opName, err := c.NextString()
	if err != nil {
		return err
	}
	op, ok := entity.LookupRelOp(opName)
	if !ok {
		return fmt.Errorf("unknown relational operator '%s'", opName)
	}
	rhs := c.SkipLeadingWhitespace()
	col, err := p.table.Column(columnName)
	if err != nil {
		return err
	}
	f, err := col.CreateFilter(kind, op, rhs)
	if err != nil {
		return err
	}
	*stack = append(*stack, f)
	p.query.addColumnName(columnName)
	return nil
}

type connective func(kind entity.Kind, subfilters []entity.Filter) entity.Filter

// parseAndOrLine handles Or:/And:/WaitConditionOr:/WaitConditionAnd:
// lines: pop the requested count off stack, in LIFO order, then push
// back a single node combining them with connective, restoring the
// original left-to-right push order.
func (p *Parser) parseAndOrLine(value string, combine connective, stack *[]entity.Filter) error {
	c := lexer.New(value)
	n, err := c.NextNonNegInt()
	if err != nil {
		return err
	}
	if len(*stack) < n {
		return stackUnderflowError(n, len(*stack))
	}
	popped := make([]entity.Filter, 0, n)
	for i := 0; i < n; i++ {
		top := (*stack)[len(*stack)-1]
		*stack = (*stack)[:len(*stack)-1]
		popped = append(popped, top)
	}
	reverseFilters(popped)
	kind := entity.KindRow
	if stack == &p.waitFilters {
		kind = entity.KindWaitCondition
	}
	*stack = append(*stack, combine(kind, popped))
	return nil
}

func reverseFilters(fs []entity.Filter) {
	for i, j := 0, len(fs)-1; i < j; i, j = i+1, j-1 {
		fs[i], fs[j] = fs[j], fs[i]
	}
}

// parseNegateLine handles Negate:/WaitConditionNegate: — no arguments,
// pop one, push its negation.
func (p *Parser) parseNegateLine(value string, stack *[]entity.Filter) error {
	c := lexer.New(value)
	if err := c.ExpectEmpty(); err != nil {
		return err
	}
	if len(*stack) == 0 {
		return stackUnderflowError(1, 0)
	}
	top := (*stack)[len(*stack)-1]
	*stack = (*stack)[:len(*stack)-1]
	*stack = append(*stack, top.Negate())
	return nil
}

// parseStatsAndOrLine handles StatsOr:/StatsAnd:: pop n stats-column
// entries, stealing each one's wrapped filter (failing if any entry is
// an aggregation Op rather than a Count), combine, and push a fresh
// Count wrapping the result.
func (p *Parser) parseStatsAndOrLine(value string, combine connective) error {
	c := lexer.New(value)
	n, err := c.NextNonNegInt()
	if err != nil {
		return err
	}
	if p.statsStack.Len() < n {
		return stackUnderflowError(n, p.statsStack.Len())
	}
	popped := make([]entity.Filter, 0, n)
	for i := 0; i < n; i++ {
		f, err := p.statsStack.StealTopFilter()
		if err != nil {
			return err
		}
		popped = append(popped, f)
	}
	reverseFilters(popped)
	p.statsStack.Push(stats.NewCount(combine(entity.KindStats, popped), ""))
	return nil
}

func (p *Parser) parseStatsNegateLine(value string) error {
	c := lexer.New(value)
	if err := c.ExpectEmpty(); err != nil {
		return err
	}
	if p.statsStack.Len() == 0 {
		return stackUnderflowError(1, 0)
	}
	f, err := p.statsStack.StealTopFilter()
	if err != nil {
		return err
	}
	p.statsStack.Push(stats.NewCount(f.Negate(), ""))
	return nil
}

// parseStatsLine handles "Stats: <op> <column>" (aggregation) and
// "Stats: <column> <relop> <rhs>" (count) forms, disambiguated by
// whether the first token names a known aggregation kernel.
func (p *Parser) parseStatsLine(value string) error {
	c := lexer.New(value)
	first, err := c.NextString()
	if err != nil {
		return err
	}
	if factory, ok := aggregate.Kernels[first]; ok {
		columnName, err := c.NextString()
		if err != nil {
			return err
		}
		col, err := p.table.Column(columnName)
		if err != nil {
			return err
		}
		p.statsStack.Push(stats.NewOp(col, factory))
		p.query.addColumnName(columnName)
	} else {
		columnName := first
		opName, err := c.NextString()
		if err != nil {
			return err
		}
		op, ok := entity.LookupRelOp(opName)
		if !ok {
			return fmt.Errorf("unknown relational operator '%s'", opName)
		}
		rhs := c.SkipLeadingWhitespace()
		col, err := p.table.Column(columnName)
		if err != nil {
			return err
		}
		f, err := col.CreateFilter(entity.KindStats, op, rhs)
		if err != nil {
			return err
		}
		p.statsStack.Push(stats.NewCount(f, columnName))
		p.query.addColumnName(columnName)
	}
	// A request asking for stats gets no default column header row,
	// same as a request naming explicit Columns: (spec §9, quirk 1).
	p.query.ShowColumnHeaders = false
	return nil
}

// parseColumnsLine consumes tokens until none remain. A name the table
// doesn't recognize is not an error here — it is silently replaced with
// a Null placeholder column (spec §9, quirk 3), unlike the same name
// used in a Filter: or Stats: line, which fails outright.
func (p *Parser) parseColumnsLine(value string) error {
	c := lexer.New(value)
	for {
		name, err := c.NextString()
		if err != nil {
			break
		}
		col, err := p.table.Column(name)
		if err != nil {
			col = columns.NewNull(name)
		}
		p.query.Columns = append(p.query.Columns, col)
		p.query.addColumnName(name)
	}
	p.query.ShowColumnHeaders = false
	return nil
}

func (p *Parser) parseColumnHeadersLine(value string) error {
	c := lexer.New(value)
	token, err := c.NextString()
	if err != nil {
		return err
	}
	switch token {
	case "on":
		p.query.ShowColumnHeaders = true
	case "off":
		p.query.ShowColumnHeaders = false
	default:
		return fmt.Errorf("expected 'on' or 'off'")
	}
	return nil
}

func (p *Parser) parseLimitLine(value string) error {
	c := lexer.New(value)
	n, err := c.NextNonNegInt()
	if err != nil {
		return err
	}
	p.query.Limit = n
	return nil
}

func (p *Parser) parseTimelimitLine(value string) error {
	c := lexer.New(value)
	seconds, err := c.NextNonNegInt()
	if err != nil {
		return err
	}
	duration := time.Duration(seconds) * time.Second
	p.query.TimeLimit = &TimeLimit{
		Duration: duration,
		Deadline: p.now().Add(duration),
	}
	return nil
}

// parseAuthUserLine takes the whole remaining value as the username,
// unlike every token-based header — usernames are opaque strings to
// this layer, resolved through the table's Core.
func (p *Parser) parseAuthUserLine(value string) error {
	p.query.User = p.table.Core().FindUser(value)
	return nil
}

func (p *Parser) parseSeparatorsLine(value string) error {
	c := lexer.New(value)
	var raw [4]byte
	for i := range raw {
		n, err := c.NextNonNegInt()
		if err != nil {
			return err
		}
		if n > 255 {
			return fmt.Errorf("separator value %d out of range (0..255)", n)
		}
		raw[i] = byte(n)
	}
	p.query.Separators = Separators{Dataset: raw[0], Field: raw[1], List: raw[2], HostService: raw[3]}
	return nil
}

func (p *Parser) parseOutputFormatLine(value string) error {
	c := lexer.New(value)
	token, err := c.NextString()
	if err != nil {
		return err
	}
	for _, entry := range outputFormatNames {
		if entry.name == token {
			p.query.OutputFormat = entry.format
			return nil
		}
	}
	names := make([]string, len(outputFormatNames))
	for i, entry := range outputFormatNames {
		names[i] = "'" + entry.name + "'"
	}
	return fmt.Errorf("missing/invalid output format, use one of %s", strings.Join(names, ", "))
}

func (p *Parser) parseResponseHeaderLine(value string) error {
	c := lexer.New(value)
	token, err := c.NextString()
	if err != nil {
		return err
	}
	switch token {
	case "off":
		p.query.ResponseHeader = ResponseHeaderOff
	case "fixed16":
		p.query.ResponseHeader = ResponseHeaderFixed16
	default:
		return fmt.Errorf("expected 'off' or 'fixed16'")
	}
	return nil
}

func (p *Parser) parseKeepAliveLine(value string) error {
	c := lexer.New(value)
	token, err := c.NextString()
	if err != nil {
		return err
	}
	switch token {
	case "on":
		p.query.KeepAlive = true
	case "off":
		p.query.KeepAlive = false
	default:
		return fmt.Errorf("expected 'on' or 'off'")
	}
	return nil
}

func (p *Parser) parseWaitTriggerLine(value string) error {
	c := lexer.New(value)
	name, err := c.NextString()
	if err != nil {
		return err
	}
	trig, ok := p.triggers.Find(name)
	if !ok {
		return fmt.Errorf("unknown trigger '%s'", name)
	}
	p.query.WaitTrigger = &trig
	return nil
}

// parseWaitObjectLine, like AuthUser:, takes the whole remaining value
// as the primary key — object keys such as "host;service" pairs may
// contain the field separator, not just whitespace-safe tokens.
func (p *Parser) parseWaitObjectLine(value string) error {
	row, err := p.table.Get(value)
	if err != nil {
		return err
	}
	if row.IsNull() {
		return fmt.Errorf("primary key '%s' not found or not supported by this table", value)
	}
	p.query.WaitObject = row
	return nil
}

func (p *Parser) parseWaitTimeoutLine(value string) error {
	c := lexer.New(value)
	ms, err := c.NextNonNegInt()
	if err != nil {
		return err
	}
	p.query.WaitTimeout = time.Duration(ms) * time.Millisecond
	return nil
}

// parseLocaltimeLine computes the signed offset between the client's
// clock (its Unix timestamp) and ours, rounded to the nearest 30
// minutes, rejecting anything that rounds to a full day or more —
// almost always a sign the client's clock (or its timezone) is simply
// wrong rather than legitimately skewed.
func (p *Parser) parseLocaltimeLine(value string) error {
	c := lexer.New(value)
	seconds, err := c.NextNonNegInt()
	if err != nil {
		return err
	}
	clientTime := time.Unix(int64(seconds), 0)
	diff := clientTime.Sub(p.now())
	offset := roundToStep(diff, 30*time.Minute)
	if offset <= -24*time.Hour || offset >= 24*time.Hour {
		return fmt.Errorf("timezone difference greater than or equal to 24 hours")
	}
	p.query.TimezoneOffset = offset
	return nil
}

func roundToStep(d, step time.Duration) time.Duration {
	if d < 0 {
		return -roundToStep(-d, step)
	}
	return time.Duration((d+step/2)/step) * step
}

// finish performs component F's final assembly: default column fill
// (which also resurrects ShowColumnHeaders regardless of any earlier
// ColumnHeaders: line, per spec §9 quirk 1), folding both filter stacks
// into single Filter/WaitCondition trees, and draining the stats stack.
func (p *Parser) finish() {
	if len(p.query.Columns) == 0 && p.statsStack.Len() == 0 {
		p.table.AnyColumn(func(col entity.Column) bool {
			p.query.Columns = append(p.query.Columns, col)
			p.query.addColumnName(col.Name())
			return false
		})
		p.query.ShowColumnHeaders = true
	}

	p.query.Filter = filter.And(entity.KindRow, p.rowFilters)
	p.query.WaitCondition = filter.And(entity.KindWaitCondition, p.waitFilters)
	p.query.StatsColumns = p.statsStack.Drain()

	p.output.SetResponseHeader(p.query.ResponseHeader)
}
