package codec

import "fmt"

// ParseError reports a malformed row in a table file.
type ParseError struct {
	Table string
	Line  int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("table %s, line %d: %v", e.Table, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a text tree whose manifest does not match the
// compiled-in schema. It is fatal to the whole import.
type SchemaMismatchError struct {
	Detail string
}

func (e *SchemaMismatchError) Error() string {
	return "schema mismatch: " + e.Detail
}
