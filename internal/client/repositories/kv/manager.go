package kv

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/fieldsales/internal/client/migrations"
	"github.com/dmitrijs2005/fieldsales/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// gooseUp is a seam for testing migrations without a live database.
var gooseUp = func(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, dir)
}

type SQLiteManager struct{}

func (SQLiteManager) Repo(db dbx.DBTX) Repository { return NewSQLiteRepository(db) }
func (SQLiteManager) Driver() string              { return DriverSQLite }

func (SQLiteManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, db, "sqlite3", migrations.SQLiteDir)
}

type PostgresManager struct{}

func (PostgresManager) Repo(db dbx.DBTX) Repository { return NewPostgresRepository(db) }
func (PostgresManager) Driver() string              { return DriverPostgres }

func (PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return gooseUp(ctx, db, "pgx", migrations.PostgresDir)
}

// NewManager returns the Manager for driver ("sqlite" or "postgres").
func NewManager(driver string) (Manager, error) {
	switch driver {
	case "", DriverSQLite:
		return SQLiteManager{}, nil
	case DriverPostgres:
		return PostgresManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

// Open connects to the store, applies migrations and returns the handle with
// its Manager. The caller owns the returned *sql.DB.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, Manager, error) {
	m, err := NewManager(driver)
	if err != nil {
		return nil, nil, err
	}

	sqlDriver := "sqlite"
	if m.Driver() == DriverPostgres {
		sqlDriver = "pgx"
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", m.Driver(), err)
	}
	if m.Driver() == DriverSQLite {
		// one writer; avoids SQLITE_BUSY between the REPL and the auto-close timer
		db.SetMaxOpenConns(1)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s store: %w", m.Driver(), err)
	}
	return db, m, nil
}
