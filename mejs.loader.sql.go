package mejs

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// SQL driver names
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQL statements; %s is the validated table name
const (
	sqlCreateTable = `CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		source TEXT NOT NULL
	)`
	sqlSelectAll  = `SELECT name, source FROM %s ORDER BY name`
	sqlUpsert     = `INSERT INTO %s (name, source) VALUES (%s, %s) ON CONFLICT (name) DO UPDATE SET source = excluded.source`
	sqlDeleteName = `DELETE FROM %s WHERE name = %s`
)

var reTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLLoader reads templates from a table with name and source columns.
// Patterns are matched against the stored names with doublestar syntax;
// an empty pattern selects every row.
type SQLLoader struct {
	DB     *sql.DB
	Table  string
	Driver string // DriverPostgres or DriverSQLite, selects the placeholder style
}

// NewSQLLoader wraps an open database. An empty table name selects
// "mejs_templates".
func NewSQLLoader(db *sql.DB, driver, table string) (*SQLLoader, error) {
	if table == "" {
		table = TableTemplates
	}
	if !reTableName.MatchString(table) {
		return nil, NewConfigValueError(LogFieldTable, table, ErrMsgInvalidTable)
	}
	return &SQLLoader{DB: db, Table: table, Driver: driver}, nil
}

// NewPostgresLoader connects to PostgreSQL and verifies the connection.
func NewPostgresLoader(ctx context.Context, dsn, table string) (*SQLLoader, error) {
	return openSQLLoader(ctx, DriverPostgres, dsn, table)
}

// NewSQLiteLoader opens an SQLite database file. Use ":memory:" for a
// private in-memory database.
func NewSQLiteLoader(ctx context.Context, path, table string) (*SQLLoader, error) {
	l, err := openSQLLoader(ctx, DriverSQLite, path, table)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" is a separate database
	l.DB.SetMaxOpenConns(1)
	return l, nil
}

func openSQLLoader(ctx context.Context, driver, dsn, table string) (*SQLLoader, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, NewLoaderError(ErrMsgLoadFailed, driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewLoaderError(ErrMsgLoadFailed, driver, err)
	}
	l, err := NewSQLLoader(db, driver, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLLoader) placeholder(n int) string {
	if l.Driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// EnsureSchema creates the template table if it does not exist
func (l *SQLLoader) EnsureSchema(ctx context.Context) error {
	if _, err := l.DB.ExecContext(ctx, fmt.Sprintf(sqlCreateTable, l.Table)); err != nil {
		return NewLoaderError(ErrMsgLoadFailed, l.Table, err)
	}
	return nil
}

// Save stores or replaces the source of a template
func (l *SQLLoader) Save(ctx context.Context, name, source string) error {
	query := fmt.Sprintf(sqlUpsert, l.Table, l.placeholder(1), l.placeholder(2))
	if _, err := l.DB.ExecContext(ctx, query, name, source); err != nil {
		return NewLoaderError(ErrMsgLoadFailed, name, err)
	}
	return nil
}

// Delete removes a template; deleting an unknown name is not an error
func (l *SQLLoader) Delete(ctx context.Context, name string) error {
	query := fmt.Sprintf(sqlDeleteName, l.Table, l.placeholder(1))
	if _, err := l.DB.ExecContext(ctx, query, name); err != nil {
		return NewLoaderError(ErrMsgLoadFailed, name, err)
	}
	return nil
}

// Load returns the stored templates whose names match pattern, sorted by name
func (l *SQLLoader) Load(ctx context.Context, pattern string) ([]File, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, NewLoaderError(ErrMsgLoadFailed, pattern, doublestar.ErrBadPattern)
	}

	rows, err := l.DB.QueryContext(ctx, fmt.Sprintf(sqlSelectAll, l.Table))
	if err != nil {
		return nil, NewLoaderError(ErrMsgLoadFailed, pattern, err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var name, source string
		if err := rows.Scan(&name, &source); err != nil {
			return nil, NewLoaderError(ErrMsgLoadFailed, pattern, err)
		}
		if pattern != "" {
			if ok, _ := doublestar.Match(pattern, name); !ok {
				continue
			}
		}
		files = append(files, File{Path: name, Contents: []byte(source)})
	}
	if err := rows.Err(); err != nil {
		return nil, NewLoaderError(ErrMsgLoadFailed, pattern, err)
	}
	if len(files) == 0 {
		return nil, NewNoMatchError(pattern)
	}
	return files, nil
}

// Close closes the database
func (l *SQLLoader) Close() error {
	return l.DB.Close()
}
