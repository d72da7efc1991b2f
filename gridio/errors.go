package gridio

import "fmt"

// RecordError reports a malformed or misplaced record.
type RecordError struct {
	Line   int    // 1-based line in the input
	Record string // the offending text, if any
	Err    error
}

func (e *RecordError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Record, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
