package suite

import (
	"fmt"
	"strings"
)

// Call is one pseudo-function call from a directive list.
type Call struct {
	Raw          string // verbatim line
	FunctionName string // text before the first "("
}

// Inject is the grounding text handlers pass to sub-queries.
func (c Call) Inject() string {
	return fmt.Sprintf("The computer executes the function `%s`", c.Raw)
}

// SplitCalls splits a directive response into candidate calls, one per line.
// Empty lines are kept; filtering is left to ParseCall.
func SplitCalls(response string) []string {
	return strings.Split(response, "\n")
}

// ParseCall parses a candidate. Candidates without "(" are malformed and
// reported as not ok.
func ParseCall(candidate string) (Call, bool) {
	name, _, found := strings.Cut(candidate, "(")
	if !found {
		return Call{}, false
	}
	return Call{Raw: candidate, FunctionName: name}, true
}
