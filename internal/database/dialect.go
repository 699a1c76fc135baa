package database

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Dialect covers what differs between the supported SQL engines
type Dialect interface {
	// DriverName is the name registered with database/sql
	DriverName() string

	DSN(config DialectConfig) string

	// RewriteQuery turns ? placeholders into the engine's own syntax
	RewriteQuery(query string) string

	// SupportsLastInsertId is false when inserts need a RETURNING clause
	SupportsLastInsertId() bool

	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir is the directory under the migrations path holding
	// this engine's SQL files
	MigrationsSubdir() string

	CreateMigrationsTableQuery() string

	// BoolValue renders a boolean literal
	BoolValue(b bool) string

	// ResetSequenceQuery realigns the id generator of table after rows were
	// inserted with explicit ids. Empty when the engine does it itself.
	ResetSequenceQuery(table string) string
}

var errForeignKeysOff = errors.New("foreign key enforcement is disabled")

// DialectConfig holds the connection target: a file path for SQLite, a URL
// for PostgreSQL and MySQL
type DialectConfig struct {
	Path string
	URL  string
}

// poolSettings sizes the connection pool
type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
}

var serverPool = poolSettings{maxOpen: 25, maxIdle: 5, maxLifetime: 5 * time.Minute, maxIdleTime: time.Minute}

func (p poolSettings) apply(db *sql.DB) {
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.maxLifetime)
	db.SetConnMaxIdleTime(p.maxIdleTime)
}

// withParams appends key=value query parameters to dsn unless the key is
// already set
func withParams(dsn string, params ...string) string {
	for _, param := range params {
		key := strings.SplitN(param, "=", 2)[0] + "="
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + param
		} else {
			dsn += "?" + param
		}
	}
	return dsn
}

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, ...
// Question marks inside string literals, quoted identifiers and line
// comments are left alone.
func rewritePlaceholdersToNumbered(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0

	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'' || c == '"':
			end := closingQuote(query, i)
			b.WriteString(query[i:end])
			i = end - 1
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				b.WriteString(query[i:])
				return b.String()
			}
			b.WriteString(query[i : i+end])
			i += end - 1
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// closingQuote returns the index just past the literal opened at start.
// A doubled quote character is an escaped quote. An unterminated literal
// runs to the end of the query.
func closingQuote(query string, start int) int {
	quote := query[start]
	for i := start + 1; i < len(query); i++ {
		if query[i] != quote {
			continue
		}
		if i+1 < len(query) && query[i+1] == quote {
			i++
			continue
		}
		return i + 1
	}
	return len(query)
}
