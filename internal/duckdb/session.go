// Package duckdb owns the read-only session against the analytical
// database file: opening it once per source, validating the transaction
// table schema, and classifying engine failures into the domain error
// taxonomy.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	driver "github.com/marcboeker/go-duckdb/v2"
)

// identPattern is the only shape of table identifier accepted from user
// input. Anything else is rejected before it can reach query text.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateIdent rejects table identifiers that could not have come from
// the source schema's legal character set.
func ValidateIdent(name string) error {
	if !identPattern.MatchString(name) {
		return &SchemaError{Table: name, Detail: "invalid table identifier"}
	}
	return nil
}

// Session is a process-scoped handle on one DuckDB file, opened read-only
// exactly once per distinct source. The query layer receives it by
// explicit injection; there is no package-level connection.
type Session struct {
	db       *sql.DB
	path     string
	identity string
}

// Open opens the database file at path in read-only mode and verifies it
// is reachable. The returned session carries a source identity derived
// from the file's path, size and mtime, used as the memoization key
// prefix so a replaced file never serves stale cached results.
func Open(ctx context.Context, path string) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &SourceError{Path: abs, Err: err}
	}
	if info.IsDir() {
		return nil, &SourceError{Path: abs, Err: fmt.Errorf("is a directory, not a database file")}
	}

	connector, err := driver.NewConnector(abs+"?access_mode=read_only", nil)
	if err != nil {
		return nil, &SourceError{Path: abs, Err: err}
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &SourceError{Path: abs, Err: err}
	}

	return &Session{
		db:       db,
		path:     abs,
		identity: fmt.Sprintf("%s|%d|%d", abs, info.Size(), info.ModTime().UnixNano()),
	}, nil
}

// DB exposes the underlying handle for the query layer.
func (s *Session) DB() *sql.DB { return s.db }

// Path returns the absolute path of the open database file.
func (s *Session) Path() string { return s.path }

// Identity returns the cache-keying identity of this source.
func (s *Session) Identity() string { return s.identity }

// Close releases the database handle. The session is unusable afterwards.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WrapQueryError classifies an execution failure against this session.
func (s *Session) WrapQueryError(err error, table string) error {
	return ClassifyQueryError(err, s.path, table)
}

// requiredColumn pairs a column name with the predicate its engine type
// must satisfy.
type requiredColumn struct {
	name   string
	accept func(dataType string) bool
	want   string
}

var requiredColumns = []requiredColumn{
	{"account", isTextType, "VARCHAR"},
	{"type", isTextType, "VARCHAR"},
	{"date", isDateType, "DATE"},
	{"credit", isNumericType, "numeric"},
}

// ValidateTable checks that the named table exists and carries the four
// required columns with compatible types, naming the first offender.
func (s *Session) ValidateTable(ctx context.Context, table string) error {
	if err := ValidateIdent(table); err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, data_type FROM information_schema.columns WHERE table_name = ?`,
		table)
	if err != nil {
		return s.WrapQueryError(err, table)
	}
	defer rows.Close()

	types := make(map[string]string)
	for rows.Next() {
		var name, dataType string
		if err := rows.Scan(&name, &dataType); err != nil {
			return s.WrapQueryError(err, table)
		}
		types[strings.ToLower(name)] = strings.ToUpper(dataType)
	}
	if err := rows.Err(); err != nil {
		return s.WrapQueryError(err, table)
	}
	if len(types) == 0 {
		return &SchemaError{Table: table, Detail: "table not found"}
	}

	for _, col := range requiredColumns {
		dataType, ok := types[col.name]
		if !ok {
			return &SchemaError{Table: table, Column: col.name, Detail: "column missing"}
		}
		if !col.accept(dataType) {
			return &SchemaError{
				Table:  table,
				Column: col.name,
				Detail: fmt.Sprintf("has type %s, want %s", dataType, col.want),
			}
		}
	}
	return nil
}

func isTextType(t string) bool {
	return strings.HasPrefix(t, "VARCHAR") || t == "TEXT" || t == "STRING"
}

func isDateType(t string) bool {
	return t == "DATE" || strings.HasPrefix(t, "TIMESTAMP")
}

func isNumericType(t string) bool {
	switch {
	case strings.HasPrefix(t, "DECIMAL"), strings.HasPrefix(t, "NUMERIC"):
		return true
	case t == "DOUBLE", t == "FLOAT", t == "REAL":
		return true
	case t == "TINYINT", t == "SMALLINT", t == "INTEGER", t == "BIGINT", t == "HUGEINT":
		return true
	}
	return false
}
