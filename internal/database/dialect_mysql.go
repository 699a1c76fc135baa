package database

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN enables time parsing and multi-statement migrations when the URL
// does not already set them.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	return withParams(config.URL, "parseTime=true", "multiStatements=true")
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) SupportsLastInsertId() bool {
	return true
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	serverPool.apply(db)

	var checks int
	if err := db.QueryRow("SELECT @@foreign_key_checks").Scan(&checks); err != nil {
		return err
	}
	if checks != 1 {
		return errForeignKeysOff
	}
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) BoolValue(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// ResetSequenceQuery is empty: AUTO_INCREMENT already moves past explicit ids
func (d *MySQLDialect) ResetSequenceQuery(string) string {
	return ""
}
