// Package protocol adapts one already-open connection to the query
// language: read header lines, hand them to the parser, run the result
// through the reference scanner, and write back a framed response.
// spec.md scopes network transport itself out ("no listener, no wire
// protocol beyond what's needed to exercise the parser") — Frontend
// takes an io.Reader/io.Writer pair the caller already owns, never a
// net.Listener.
//
// The recover-then-log wrapping mirrors thisisjab-logzilla's
// api/middleware.go decorator chain (recoverPanicMiddleware wrapping
// requestLoggerMiddleware), generalized from http.Handler to a
// connection handler.
package protocol

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/watchflow/queryplan/engine"
	"github.com/watchflow/queryplan/entity"
	"github.com/watchflow/queryplan/querier/parser"
)

// Frontend serves parsed queries against a single table.
type Frontend struct {
	table    entity.Table
	source   engine.RowSource
	triggers entity.TriggerRegistry
	scanner  *engine.Scanner
	logger   *slog.Logger
	handle   handlerFunc
}

// New builds a Frontend. source provides the rows scanned for the given
// table; the two are separate because spec.md's Table interface has no
// row-enumeration method of its own (see package engine).
func New(table entity.Table, source engine.RowSource, triggers entity.TriggerRegistry, scanner *engine.Scanner, logger *slog.Logger) *Frontend {
	f := &Frontend{table: table, source: source, triggers: triggers, scanner: scanner, logger: logger}
	f.handle = withRecover(withLogging(logger)(f.serve))
	return f
}

type handlerFunc func(ctx context.Context, r io.Reader, w io.Writer) error

func withLogging(logger *slog.Logger) func(handlerFunc) handlerFunc {
	return func(next handlerFunc) handlerFunc {
		return func(ctx context.Context, r io.Reader, w io.Writer) error {
			requestID := uuid.New()
			logger.Info("handling query", "request_id", requestID)
			err := next(ctx, r, w)
			if err != nil {
				logger.Error("query failed", "request_id", requestID, "error", err)
			} else {
				logger.Debug("query handled", "request_id", requestID)
			}
			return err
		}
	}
}

func withRecover(next handlerFunc) handlerFunc {
	return func(ctx context.Context, r io.Reader, w io.Writer) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic while handling query: %v", p)
			}
		}()
		return next(ctx, r, w)
	}
}

// Handle reads one request's header lines from r (terminated by a blank
// line or EOF), parses and runs it, and writes the framed response to w.
func (f *Frontend) Handle(ctx context.Context, r io.Reader, w io.Writer) error {
	return f.handle(ctx, r, w)
}

func (f *Frontend) serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines, err := readRequestLines(r)
	if err != nil {
		return err
	}

	sink := &responseSink{}
	query := parser.New(f.table, f.triggers, sink).Parse(lines)

	if len(sink.errors) > 0 {
		return writeResponse(w, sink.responseCode(), sink.errorBody(), query.ResponseHeader)
	}

	result, err := f.scanner.Scan(ctx, query, f.source)
	if err != nil {
		return writeResponse(w, parser.StatusBadRequest, err.Error()+"\n", query.ResponseHeader)
	}

	body, err := encodeResult(query, result)
	if err != nil {
		return err
	}
	return writeResponse(w, parser.StatusOK, body, query.ResponseHeader)
}

// readRequestLines reads until a blank line or EOF, per spec §5's
// request framing.
func readRequestLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// responseSink implements parser.OutputSink, collecting every
// per-header diagnostic instead of stopping at the first one.
type responseSink struct {
	errors []sinkError
	header parser.ResponseHeaderMode
}

type sinkError struct {
	code    parser.ResponseCode
	message string
}

func (s *responseSink) SetError(code parser.ResponseCode, message string) {
	s.errors = append(s.errors, sinkError{code: code, message: message})
}

func (s *responseSink) SetResponseHeader(mode parser.ResponseHeaderMode) {
	s.header = mode
}

func (s *responseSink) responseCode() parser.ResponseCode {
	return s.errors[0].code
}

func (s *responseSink) errorBody() string {
	var b strings.Builder
	for _, e := range s.errors {
		b.WriteString(e.message)
		b.WriteByte('\n')
	}
	return b.String()
}

// writeResponse frames body per query.ResponseHeader (spec §6): fixed16
// prefixes a 3-digit status and 11-digit body length ahead of a newline,
// off writes the body as-is.
func writeResponse(w io.Writer, code parser.ResponseCode, body string, mode parser.ResponseHeaderMode) error {
	if mode == parser.ResponseHeaderFixed16 {
		if _, err := fmt.Fprintf(w, "%03d %11d\n", code, len(body)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, body)
	return err
}

// encodeResult renders a scan Result per query.OutputFormat. python/
// python3 fall back to the JSON encoding: rendering an actual Python
// literal (nested lists, single-quoted strings) is wire-format work
// spec.md scopes out of the parser/plan-builder core, and JSON is a
// legal Python literal for every value this table ever produces.
func encodeResult(query *parser.Query, result *engine.Result) (string, error) {
	switch query.OutputFormat {
	case parser.FormatJSON, parser.FormatPython3:
		return encodeJSON(query, result)
	default:
		return encodeCSV(query, result), nil
	}
}

func encodeCSV(query *parser.Query, result *engine.Result) string {
	sep := query.Separators
	var b strings.Builder

	writeRow := func(fields []string) {
		for i, field := range fields {
			if i > 0 {
				b.WriteByte(sep.Field)
			}
			b.WriteString(field)
		}
		b.WriteByte(sep.Dataset)
	}

	if len(result.Stats) > 0 {
		fields := make([]string, len(result.Stats))
		for i, v := range result.Stats {
			fields[i] = formatFloat(v)
		}
		writeRow(fields)
		return b.String()
	}

	if query.ShowColumnHeaders {
		writeRow(result.ColumnNames)
	}
	for _, row := range result.Rows {
		writeRow(row)
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
}

func encodeJSON(query *parser.Query, result *engine.Result) (string, error) {
	var out [][]any

	if len(result.Stats) > 0 {
		row := make([]any, len(result.Stats))
		for i, v := range result.Stats {
			row[i] = v
		}
		out = append(out, row)
	} else {
		if query.ShowColumnHeaders {
			header := make([]any, len(result.ColumnNames))
			for i, name := range result.ColumnNames {
				header[i] = name
			}
			out = append(out, header)
		}
		for _, row := range result.Rows {
			record := make([]any, len(row))
			for i, field := range row {
				record[i] = field
			}
			out = append(out, record)
		}
	}

	js, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(js) + "\n", nil
}
