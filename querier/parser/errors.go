package parser

import "fmt"

// stackUnderflowError formats the exact message ParsedQuery.cc's
// stack_underflow helper produces, pluralizing "filter(s)" and "is/are"
// independently for the expected and actual counts.
func stackUnderflowError(expected, actual int) error {
	filterWord := "filters"
	if expected == 1 {
		filterWord = "filter"
	}
	verb := "are"
	if actual == 1 {
		verb = "is"
	}
	return fmt.Errorf(
		"cannot combine filters: expecting %d %s, but only %d %s on stack",
		expected, filterWord, actual, verb,
	)
}

// errUndefinedHeader is used verbatim for any header keyword not in the
// dispatch table.
var errUndefinedHeader = fmt.Errorf("undefined request header")
