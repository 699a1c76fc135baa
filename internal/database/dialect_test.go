package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if result {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO users (name, email) VALUES (?, ?)",
			expected: "INSERT INTO users (name, email) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET name = ?, email = ? WHERE id = ?",
			expected: "UPDATE users SET name = ?, email = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	dialect := NewMySQLDialect()

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "bare DSN gets both params",
			url:      "quiz:secret@tcp(localhost:3306)/cardquiz",
			expected: "quiz:secret@tcp(localhost:3306)/cardquiz?parseTime=true&multiStatements=true",
		},
		{
			name:     "existing query string appended",
			url:      "quiz:secret@tcp(localhost:3306)/cardquiz?charset=utf8mb4",
			expected: "quiz:secret@tcp(localhost:3306)/cardquiz?charset=utf8mb4&parseTime=true&multiStatements=true",
		},
		{
			name:     "explicit setting kept",
			url:      "quiz@tcp(db)/cardquiz?parseTime=false",
			expected: "quiz@tcp(db)/cardquiz?parseTime=false&multiStatements=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dialect.DSN(DialectConfig{URL: tt.url}); got != tt.expected {
				t.Errorf("DSN() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBoolValue(t *testing.T) {
	if got := NewSQLiteDialect().BoolValue(true); got != "1" {
		t.Errorf("sqlite BoolValue(true) = %v, want 1", got)
	}
	if got := NewPostgresDialect().BoolValue(false); got != "FALSE" {
		t.Errorf("postgres BoolValue(false) = %v, want FALSE", got)
	}
}

func TestRewritePlaceholdersSkipsQuoted(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "string literal",
			query:    "INSERT INTO quiz_sessions (user_id, words_seen, mood) VALUES (?, '[]', '')",
			expected: "INSERT INTO quiz_sessions (user_id, words_seen, mood) VALUES ($1, '[]', '')",
		},
		{
			name:     "question mark in literal",
			query:    "SELECT id FROM questions WHERE prompt = 'What?' AND quiz_id = ?",
			expected: "SELECT id FROM questions WHERE prompt = 'What?' AND quiz_id = $1",
		},
		{
			name:     "escaped quote",
			query:    "SELECT 'it''s ?' , ?",
			expected: "SELECT 'it''s ?' , $1",
		},
		{
			name:     "quoted identifier",
			query:    `SELECT "odd?col" FROM t WHERE id = ?`,
			expected: `SELECT "odd?col" FROM t WHERE id = $1`,
		},
		{
			name:     "line comment",
			query:    "SELECT 1 -- why?\nWHERE a = ? AND b = ?",
			expected: "SELECT 1 -- why?\nWHERE a = $1 AND b = $2",
		},
		{
			name:     "unterminated literal",
			query:    "SELECT ? WHERE x = 'oops?",
			expected: "SELECT $1 WHERE x = 'oops?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewritePlaceholdersToNumbered(tt.query); got != tt.expected {
				t.Errorf("rewritePlaceholdersToNumbered() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/quiz.db"})
	want := "/tmp/quiz.db?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
	if got != want {
		t.Errorf("DSN() = %v, want %v", got, want)
	}

	got = NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/quiz.db?_busy_timeout=100"})
	want = "/tmp/quiz.db?_busy_timeout=100&_foreign_keys=on&_journal_mode=WAL"
	if got != want {
		t.Errorf("DSN() with timeout = %v, want %v", got, want)
	}
}

func TestResetSequenceQuery(t *testing.T) {
	if q := NewSQLiteDialect().ResetSequenceQuery("users"); q != "" {
		t.Errorf("sqlite ResetSequenceQuery() = %q, want empty", q)
	}
	if q := NewMySQLDialect().ResetSequenceQuery("users"); q != "" {
		t.Errorf("mysql ResetSequenceQuery() = %q, want empty", q)
	}
	q := NewPostgresDialect().ResetSequenceQuery("users")
	if !strings.Contains(q, "pg_get_serial_sequence('users', 'id')") || !strings.Contains(q, "FROM users") {
		t.Errorf("postgres ResetSequenceQuery() = %q", q)
	}
	if strings.Contains(NewPostgresDialect().RewriteQuery(q), "$") {
		t.Errorf("sequence query must not gain placeholders: %q", q)
	}
}
