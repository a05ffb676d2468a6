package domaindb_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus/stores/domaindb"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*domaindb.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return domaindb.NewStore(logger.Discard(), sqlx.NewDb(db, "pgx")), mock
}

func TestCreateDuplicate(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(`INSERT INTO domains`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "domains_name_active_key"})

	err := store.Create(context.Background(), domainbus.Domain{
		ID:        uuid.New(),
		Name:      "natacao.com.br",
		BranchID:  uuid.New(),
		CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, domainbus.ErrUniqueName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyUnknown(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(`SET\s+verified = TRUE`).
		WithArgs(sqlmock.AnyArg(), "natacao.com.br").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Verify(context.Background(), uuid.New(), "natacao.com.br")
	assert.ErrorIs(t, err, domainbus.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryByName(t *testing.T) {
	store, mock := newStore(t)
	branchID := uuid.New()

	cols := []string{"domain_id", "name", "subdomain", "value", "verified", "branch_id", "added_by_id", "created_at"}
	mock.ExpectQuery(`FROM\s+active_domains\s+WHERE\s+name = \$1`).
		WithArgs("natacao.com.br").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(uuid.NewString(), "natacao.com.br", "_painel-swim", "abc", false, branchID.String(), nil, time.Now()))

	d, err := store.QueryByName(context.Background(), "natacao.com.br")
	require.NoError(t, err)
	assert.Equal(t, branchID, d.BranchID)
	assert.Equal(t, "_painel-swim", d.Subdomain)
	assert.False(t, d.Verified)
	assert.Equal(t, uuid.Nil, d.AddedByID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
