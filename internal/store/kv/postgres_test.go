package kv

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rosterkeeper/internal/dbx"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPostgres_GetUsesNumberedPlaceholders(t *testing.T) {
	db, mock := newMock(t)
	r := NewSQLRepository(db, dbx.Postgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM auth_store WHERE key = $1`)).
		WithArgs("yms_auth_users").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	v, err := r.Get(context.Background(), "yms_auth_users")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNoRows(t *testing.T) {
	db, mock := newMock(t)
	r := NewSQLRepository(db, dbx.Postgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM auth_store WHERE key = $1`)).
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SetUpserts(t *testing.T) {
	db, mock := newMock(t)
	r := NewSQLRepository(db, dbx.Postgres)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO auth_store (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = excluded.value`)).
		WithArgs("k", []byte("v")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteError(t *testing.T) {
	db, mock := newMock(t)
	r := NewSQLRepository(db, dbx.Postgres)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_store WHERE key = $1`)).
		WithArgs("k").
		WillReturnError(errors.New("connection reset"))

	err := r.Delete(context.Background(), "k")
	require.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_List(t *testing.T) {
	db, mock := newMock(t)
	r := NewSQLRepository(db, dbx.Postgres)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT key, value FROM auth_store`)).
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("a", []byte("1")).
			AddRow("b", []byte("2")))

	m, err := r.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDB_Postgres_RunsMigrationsFromDialectDir(t *testing.T) {
	db, mock := newMock(t)

	var gotDir string
	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	t.Cleanup(func() { gooseUpContext = orig })

	store, err := OpenDB(context.Background(), db, dbx.Postgres)
	require.NoError(t, err)
	assert.Equal(t, "migrations/postgres", gotDir)
	assert.Equal(t, dbx.Postgres, store.Dialect())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_store WHERE key = $1`)).
		WithArgs("k").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.WithTx(context.Background(), func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, "k")
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenDB_MigrationError(t *testing.T) {
	db, _ := newMock(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	t.Cleanup(func() { gooseUpContext = orig })

	_, err := OpenDB(context.Background(), db, dbx.Postgres)
	require.ErrorContains(t, err, "migrate postgres database")
}
