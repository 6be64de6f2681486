package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
	mysqlp "github.com/bryanwahyu/chromaleap/internal/infra/db/mysql"
	"github.com/bryanwahyu/chromaleap/internal/infra/db/postgres"
)

// Drivers understood by Open.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS image_analyses (
  id              TEXT PRIMARY KEY,
  image_url       TEXT NOT NULL,
  analysis_result TEXT NOT NULL,
  created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_image_analyses_created ON image_analyses (created_at);`

func Connect(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer; the file is local and small
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx2); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects and returns the analysis repository for driver. SQLite gets
// its schema created on the fly; Postgres and MySQL use migrations/.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, domain.Repository, error) {
	switch driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := Connect(ctx, driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect: %w", driver, err)
	}

	switch driver {
	case DriverPostgres:
		return db, postgres.NewAnalysisRepository(db), nil
	case DriverSQLite:
		if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return db, mysqlp.NewAnalysisRepository(db), nil
}
