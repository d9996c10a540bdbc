package duckdb

import (
	"fmt"
	"strings"
)

// SourceError reports a data source that is missing, unreadable, or not a
// valid DuckDB database. It is fatal for the session: no query can run
// until the caller supplies a usable source.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// SchemaError reports a missing table, a missing or mistyped column, or an
// invalid table identifier. The offending object is named so the user can
// fix the source, not just see that a query failed.
type SchemaError struct {
	Table  string
	Column string
	Detail string
	Err    error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema error")
	if e.Table != "" {
		fmt.Fprintf(&b, ": table %q", e.Table)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ", column %q", e.Column)
	}
	if e.Detail != "" {
		b.WriteString(": " + e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// ClassifyQueryError maps an engine execution failure onto the domain
// taxonomy: catalog and binder failures mean the schema does not match
// what the query expects, everything else means the source itself broke.
func ClassifyQueryError(err error, path, table string) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "Catalog Error") || strings.Contains(msg, "Binder Error") {
		return &SchemaError{Table: table, Detail: "query does not match source schema", Err: err}
	}
	return &SourceError{Path: path, Err: err}
}
