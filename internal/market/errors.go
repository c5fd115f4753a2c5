package market

import (
	"fmt"
	"strings"
)

// PayloadShapeError reports a payload whose expected fields were missing or
// malformed badly enough that nothing could be applied from it.
type PayloadShapeError struct {
	Source string   // "primary", "secondary", "market update", ...
	Fields []string // offending keys, when known
	Err    error
}

func (e *PayloadShapeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "malformed %s payload", e.Source)
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *PayloadShapeError) Unwrap() error {
	return e.Err
}
