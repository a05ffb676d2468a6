package sqldb_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "pgx"), mock
}

type slugArg struct {
	Slug string `db:"slug"`
}

func TestNamedExecContextRows(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectExec(`UPDATE branches SET slug = \$1`).
		WithArgs("raia").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := sqldb.NamedExecContextRows(context.Background(), logger.Discard(), db, `UPDATE branches SET slug = :slug`, slugArg{Slug: "raia"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueViolationKeepsConstraint(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectExec(`INSERT INTO branches`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "branches_slug_key"})

	err := sqldb.NamedExecContext(context.Background(), logger.Discard(), db, `INSERT INTO branches (slug) VALUES (:slug)`, slugArg{Slug: "raia"})
	require.Error(t, err)
	assert.ErrorIs(t, err, sqldb.ErrDBDuplicatedEntry)

	var dup sqldb.DuplicatedEntry
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "branches_slug_key", dup.Column)
}

func TestUndefinedTable(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectExec(`INSERT INTO ghosts`).
		WillReturnError(&pgconn.PgError{Code: "42P01"})

	err := sqldb.ExecContext(context.Background(), logger.Discard(), db, `INSERT INTO ghosts DEFAULT VALUES`)
	assert.ErrorIs(t, err, sqldb.ErrUndefinedTable)
}

func TestNamedQueryStructNotFound(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectQuery(`SELECT slug FROM branches WHERE slug = \$1`).
		WithArgs("raia").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}))

	var dest slugArg
	err := sqldb.NamedQueryStruct(context.Background(), logger.Discard(), db, `SELECT slug FROM branches WHERE slug = :slug`, slugArg{Slug: "raia"}, &dest)
	assert.ErrorIs(t, err, sqldb.ErrDBNotFound)

	mock.ExpectQuery(`SELECT slug FROM branches WHERE slug = \$1`).
		WithArgs("raia").
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).AddRow("raia"))

	err = sqldb.NamedQueryStruct(context.Background(), logger.Discard(), db, `SELECT slug FROM branches WHERE slug = :slug`, slugArg{Slug: "raia"}, &dest)
	require.NoError(t, err)
	assert.Equal(t, "raia", dest.Slug)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionExtContext(t *testing.T) {
	db, mock := newDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM members`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	tx, err := sqldb.NewBeginner(db).Begin()
	require.NoError(t, err)

	ec, err := sqldb.GetExtContext(tx)
	require.NoError(t, err)

	require.NoError(t, sqldb.ExecContext(context.Background(), logger.Discard(), ec, `DELETE FROM members`))
	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}
