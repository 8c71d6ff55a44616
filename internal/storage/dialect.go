package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// DatabaseFile is the SQLite database name inside DataDir.
const DatabaseFile = "tally.db"

// timeLayout is fixed width so lexical order on the TEXT columns matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

// dialect captures what differs between the SQL engines.
type dialect struct {
	name        string
	driver      string
	goose       string
	migrations  string
	placeholder sq.PlaceholderFormat
	jsonField   func(field string) string
	bodyValue   func(body string) any
	unique      func(err error) bool
}

var sqliteDialect = dialect{
	name:        types.BackendSQLite,
	driver:      "sqlite",
	goose:       "sqlite3",
	migrations:  "migrations/sqlite",
	placeholder: sq.Question,
	jsonField: func(field string) string {
		return fmt.Sprintf("json_extract(body, '$.%s')", field)
	},
	bodyValue: func(body string) any { return body },
	unique: func(err error) bool {
		var se *sqlite.Error
		if !errors.As(err, &se) {
			return false
		}
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	},
}

var postgresDialect = dialect{
	name:        types.BackendPostgres,
	driver:      "pgx",
	goose:       "postgres",
	migrations:  "migrations/postgres",
	placeholder: sq.Dollar,
	jsonField: func(field string) string {
		return fmt.Sprintf("body->>'%s'", field)
	},
	bodyValue: func(body string) any { return sq.Expr("CAST(? AS JSONB)", body) },
	unique: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
	},
}

func dialectFor(backend string) (dialect, error) {
	switch backend {
	case types.BackendSQLite:
		return sqliteDialect, nil
	case types.BackendPostgres:
		return postgresDialect, nil
	}
	return dialect{}, types.ErrBackendUnknown
}

func (d dialect) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.placeholder)
}

// dsn returns the connection string for config.
func (d dialect) dsn(config types.Config) string {
	if d.name == types.BackendPostgres {
		return config.DSN
	}
	path := filepath.Join(config.DataDir, DatabaseFile)
	return "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)"
}
