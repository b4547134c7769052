package parser

import (
	"time"

	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/stats"
)

// OutputFormat selects the response encoder the (external) output layer
// uses. The parser only negotiates which one was requested.
type OutputFormat int

const (
	// FormatCSV is the well-formed CSV encoding, requested by the
	// (confusingly capitalized) "OutputFormat: CSV" header.
	FormatCSV OutputFormat = iota
	// FormatBrokenCSV is the legacy, non-RFC-compliant CSV variant
	// requested by "OutputFormat: csv" (lowercase) — kept only for
	// backward compatibility with old clients.
	FormatBrokenCSV
	FormatJSON
	FormatPython3
)

// outputFormatNames is both the name -> OutputFormat lookup table and,
// via its key order, the list quoted in the "invalid output format"
// diagnostic. "python" is a deprecated alias for "python3".
var outputFormatNames = []struct {
	name   string
	format OutputFormat
}{
	{"CSV", FormatCSV},
	{"csv", FormatBrokenCSV},
	{"json", FormatJSON},
	{"python", FormatPython3},
	{"python3", FormatPython3},
}

// ResponseHeaderMode selects how (or whether) the response is framed with
// a fixed-size header ahead of the body.
type ResponseHeaderMode int

const (
	ResponseHeaderOff ResponseHeaderMode = iota
	ResponseHeaderFixed16
)

// ResponseCode is the status communicated via the output buffer, per
// spec §6 (fixed16 framing puts this in its 3-digit status field).
type ResponseCode int

const (
	StatusOK         ResponseCode = 200
	StatusBadRequest ResponseCode = 400
)

// Separators holds the four single-byte separators the CSV/broken-CSV
// encoders use: dataset (record), field, list and host/service.
type Separators struct {
	Dataset     byte
	Field       byte
	List        byte
	HostService byte
}

// DefaultSeparators are what the external encoder falls back to when no
// Separators: header is present.
var DefaultSeparators = Separators{Dataset: '\n', Field: ';', List: ',', HostService: '|'}

// TimeLimit pairs the requested duration with the monotonic deadline
// computed at parse time (spec §3: "optional (duration, deadline-instant)").
type TimeLimit struct {
	Duration time.Duration
	Deadline time.Time
}

// UnlimitedLimit is the sentinel meaning "no row limit was requested".
const UnlimitedLimit = -1

// OutputSink receives the two side effects the parser can produce outside
// of the returned Query: per-header bad-request diagnostics and the final
// response header mode. It stands in for the "external output buffer"
// spec.md references throughout §4 and §7.
type OutputSink interface {
	// SetError records a diagnostic. The parser calls this once per
	// failing header line; a request can accumulate several.
	SetError(code ResponseCode, message string)
	// SetResponseHeader publishes the negotiated response header mode.
	// Called exactly once, after every header line has been processed.
	SetResponseHeader(mode ResponseHeaderMode)
}

// Query is the immutable, assembled query plan (component F's
// ParsedQuery) handed off to the row scanner. Field names use Go
// PascalCase; the spec.md name is noted where it might otherwise be
// ambiguous.
type Query struct {
	// Columns are the columns to emit, in request order.
	Columns []entity.Column
	// StatsColumns are the statistical aggregations to compute.
	StatsColumns []stats.Column
	// AllColumnNames is every column name referenced anywhere in the
	// request (filters, columns, stats), for scan-plan optimization by
	// the external scanner.
	AllColumnNames map[string]struct{}

	// Filter is the single row filter: a conjunction of the accumulated
	// filter stack (spec's `filter`).
	Filter entity.Filter
	// WaitCondition is the single wait-condition filter (spec's
	// `wait_condition`).
	WaitCondition entity.Filter

	// User is the authorization identity for this query (spec's `user`).
	User entity.User

	ShowColumnHeaders bool
	OutputFormat      OutputFormat
	ResponseHeader    ResponseHeaderMode
	KeepAlive         bool
	Separators        Separators
	// Limit is the row cap, or UnlimitedLimit.
	Limit int
	// TimeLimit is set only if a Timelimit: header was seen.
	TimeLimit *TimeLimit

	WaitTimeout time.Duration
	// WaitTrigger is set only if a WaitTrigger: header was seen.
	WaitTrigger *entity.Trigger
	// WaitObject is set only if a WaitObject: header was seen and
	// resolved.
	WaitObject entity.Row

	// TimezoneOffset is the signed clock-skew correction computed by
	// Localtime:, rounded to 30-minute increments, |offset| < 24h.
	TimezoneOffset time.Duration
}

func newQuery() *Query {
	return &Query{
		AllColumnNames: make(map[string]struct{}),
		User:           entity.NoAuthUser,
		Limit:          UnlimitedLimit,
		Separators:     DefaultSeparators,
	}
}

func (q *Query) addColumnName(name string) {
	q.AllColumnNames[name] = struct{}{}
}
