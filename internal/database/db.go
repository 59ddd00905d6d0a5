package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Driver names accepted by Open.  They match the names the drivers register
// with database/sql.
const (
	SQLite   = "sqlite"
	MySQL    = "mysql"
	Postgres = "postgres"
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case SQLite:
		dsn = sqliteDSN(dsn)
	case MySQL:
		dsn = mysqlDSN(dsn)
	case Postgres:
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	if driver == SQLite {
		// a single writer; more connections only produce SQLITE_BUSY
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN enables foreign keys and a busy timeout, and asks the driver to
// store timestamps in SQLite's own text format.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// mysqlDSN makes RowsAffected count matched rows rather than changed ones,
// which is what the other drivers report, and makes DATETIME columns scan
// into time.Time.
func mysqlDSN(dsn string) string {
	for _, p := range []string{"clientFoundRows=true", "parseTime=true"} {
		key := p[:strings.Index(p, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p
		} else {
			dsn += "?" + p
		}
	}
	return dsn
}

// InsertID runs an INSERT written with ? placeholders and returns the new
// row id.  Postgres has no LastInsertId, so the statement gets RETURNING id
// there instead.
func InsertID(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (uint64, error) {
	if ext.DriverName() == Postgres {
		var id uint64
		err := sqlx.GetContext(ctx, ext, &id, ext.Rebind(query+" RETURNING id"), args...)
		return id, err
	}
	res, err := ext.ExecContext(ctx, ext.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
