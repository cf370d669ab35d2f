package kv

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/rosterkeeper/internal/dbx"
	"github.com/dmitrijs2005/rosterkeeper/internal/filex"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// DB is a Store backed by a SQL database.
type DB struct {
	*SQLRepository
	db      *sql.DB
	dialect dbx.Dialect
}

// Open connects to dsn (see dbx.DialectFor) and brings the schema up to date.
func Open(ctx context.Context, dsn string) (*DB, error) {
	dialect := dbx.DialectFor(dsn)

	if path, ok := sqliteFile(dsn); dialect == dbx.SQLite && ok {
		if _, err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(dialect.Driver(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == dbx.SQLite {
		// one writer; also keeps every statement on the same :memory: database
		db.SetMaxOpenConns(1)
	}

	store, err := OpenDB(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenDB wraps an already opened database and runs the migrations for
// dialect against it. The returned DB owns db.
func OpenDB(ctx context.Context, db *sql.DB, dialect dbx.Dialect) (*DB, error) {
	if err := RunMigrations(ctx, db, dialect); err != nil {
		return nil, err
	}
	return &DB{
		SQLRepository: NewSQLRepository(db, dialect),
		db:            db,
		dialect:       dialect,
	}, nil
}

// RunMigrations applies the embedded migrations for dialect.
func RunMigrations(ctx context.Context, db *sql.DB, dialect dbx.Dialect) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	gooseDialect := "sqlite3"
	if dialect == dbx.Postgres {
		gooseDialect = "postgres"
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := gooseUpContext(ctx, db, "migrations/"+dialect.String()); err != nil {
		return fmt.Errorf("migrate %s database: %w", dialect, err)
	}
	return nil
}

// WithTx runs fn inside a database transaction.
func (d *DB) WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error {
	return dbx.WithTx(ctx, d.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, NewSQLRepository(tx, d.dialect))
	})
}

func (d *DB) Dialect() dbx.Dialect {
	return d.dialect
}

func (d *DB) Close() error {
	return d.db.Close()
}

// sqliteFile extracts the database file path from a sqlite DSN. In-memory
// databases have none.
func sqliteFile(dsn string) (string, bool) {
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return "", false
	}
	return path, true
}
