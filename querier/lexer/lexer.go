// Package lexer implements the tokenization component of the request
// parser: pulling whitespace-separated string and non-negative-integer
// arguments off the front of a header's value, one at a time, the same
// way the value is walked in the original ParsedQuery.cc
// (nextStringArgument / nextNonNegativeIntegerArgument / checkNoArguments).
package lexer

import (
	"errors"
	"strconv"
	"strings"
)

const whitespace = " \t\r\n"

var (
	// ErrMissingArgument is returned by NextString when the remaining
	// value is empty (after skipping leading whitespace).
	ErrMissingArgument = errors.New("missing argument")
	// ErrSuperfluousArgument is returned by ExpectEmpty when anything at
	// all remains of the value, whitespace included.
	ErrSuperfluousArgument = errors.New("superfluous argument(s)")
	// ErrExpectedNonNegativeInteger is returned by NextNonNegInt when the
	// next token doesn't parse in full as a non-negative decimal integer.
	ErrExpectedNonNegativeInteger = errors.New("expected non-negative integer")
)

// Cursor walks a header's value left to right, one whitespace-delimited
// token at a time. It never rewinds: each Next* call consumes what it
// reads.
type Cursor struct {
	rest string
}

// New creates a Cursor over value. value is expected to already have any
// leading whitespace the header dispatcher stripped removed; Cursor
// re-strips leading whitespace before every token anyway, since consuming
// a token never removes the whitespace that follows it.
func New(value string) *Cursor {
	return &Cursor{rest: value}
}

// Remainder returns whatever is left unconsumed, without stripping
// whitespace. Used for "everything after the operator is the RHS"-style
// header parsers (Filter, Stats).
func (c *Cursor) Remainder() string {
	return c.rest
}

// SkipLeadingWhitespace strips whitespace from the front of the
// remainder in place, and returns what remains. Filter/Stats RHS values
// are taken via this rather than NextString, since the RHS itself may
// legitimately contain whitespace.
func (c *Cursor) SkipLeadingWhitespace() string {
	c.rest = strings.TrimLeft(c.rest, whitespace)
	return c.rest
}

// NextString extracts the next whitespace-delimited token, stripping any
// leading whitespace first. It fails if nothing but whitespace (or
// nothing at all) remains.
func (c *Cursor) NextString() (string, error) {
	c.rest = strings.TrimLeft(c.rest, whitespace)
	if c.rest == "" {
		return "", ErrMissingArgument
	}
	end := strings.IndexAny(c.rest, whitespace)
	var token string
	if end == -1 {
		token, c.rest = c.rest, ""
	} else {
		token, c.rest = c.rest[:end], c.rest[end:]
	}
	return token, nil
}

// NextNonNegInt extracts the next token and parses it as a non-negative
// base-10 integer. The token must parse in full (no trailing garbage) and
// must not be negative; a leading '+' is accepted, as is "-0".
func (c *Cursor) NextNonNegInt() (int, error) {
	token, err := c.NextString()
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(token)
	if err != nil || value < 0 {
		return 0, ErrExpectedNonNegativeInteger
	}
	return value, nil
}

// ExpectEmpty fails if anything remains, whitespace included. It does not
// itself strip leading whitespace — by the time a header line reaches a
// no-argument parser (Negate, StatsNegate, ...), the header dispatcher has
// already stripped the value's leading whitespace once, and there is
// nothing left to have consumed it since.
func (c *Cursor) ExpectEmpty() error {
	if c.rest != "" {
		return ErrSuperfluousArgument
	}
	return nil
}
