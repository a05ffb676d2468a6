package subscriptiondb_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus/stores/subscriptiondb"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tenantCols = []string{
	"branch_id", "id_branch", "name", "slug", "email", "telephone",
	"subscription_status", "subscription_plan", "trial_ends_at", "subscription_ends_at",
	"last_payment_at", "external_subscription_ref", "created_at", "updated_at",
}

func newStore(t *testing.T) (*subscriptiondb.Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return subscriptiondb.NewStore(logger.Discard(), sqlx.NewDb(db, "pgx")), mock
}

func TestApplyActivate(t *testing.T) {
	store, mock := newStore(t)

	id := uuid.New()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	endsAt := now.AddDate(0, 1, 0)
	ref := "sub_42"
	pro := plan.Pro

	rows := sqlmock.NewRows(tenantCols).
		AddRow(id.String(), int64(7), "Academia Azul", "academia-azul", nil, nil,
			"ACTIVE", "PRO", nil, endsAt, now, ref, now, now)

	mock.ExpectQuery(`UPDATE\s+branches\s+SET\s+subscription_status = \$1,\s+updated_at = \$2,\s+subscription_plan = \$3,\s+subscription_ends_at = \$4,\s+last_payment_at = \$5,\s+external_subscription_ref = \$6\s+WHERE\s+branch_id = \$7 AND deleted_at IS NULL`).
		WillReturnRows(rows)

	got, err := store.Apply(context.Background(), id, subscriptionbus.Change{
		Status:        substatus.Active,
		Plan:          &pro,
		EndsAt:        &endsAt,
		LastPaymentAt: &now,
		ExternalRef:   &ref,
		UpdatedAt:     now,
	})
	require.NoError(t, err)

	assert.Equal(t, id, got.BranchID)
	assert.Equal(t, int64(7), got.IDBranch)
	assert.Equal(t, substatus.Active, got.Subscription.Status)
	assert.Equal(t, plan.Pro, got.Subscription.Plan)
	assert.Nil(t, got.Subscription.TrialEndsAt)
	require.NotNil(t, got.Subscription.EndsAt)
	assert.True(t, endsAt.Equal(*got.Subscription.EndsAt))
	assert.Equal(t, ref, got.Subscription.ExternalRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyCancelClearsRef(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(`external_subscription_ref = NULL\s+WHERE`).
		WillReturnRows(sqlmock.NewRows(tenantCols))

	_, err := store.Apply(context.Background(), uuid.New(), subscriptionbus.Change{
		Status:           substatus.Cancelled,
		ClearExternalRef: true,
		UpdatedAt:        time.Now(),
	})
	assert.ErrorIs(t, err, subscriptionbus.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepStatements(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now()

	mock.ExpectExec(`UPDATE\s+branches\s+SET.+WHERE\s+subscription_status = \$\d\s+AND trial_ends_at < \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`UPDATE\s+branches\s+SET.+WHERE\s+subscription_status = \$\d\s+AND subscription_ends_at < \$\d`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := store.SuspendExpiredTrials(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = store.MarkPastDue(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentUnknownBranch(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(`INSERT INTO payment_history`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.CreatePayment(context.Background(), subscriptionbus.Payment{
		ID:       uuid.New(),
		BranchID: uuid.New(),
		Currency: "BRL",
		Status:   "paid",
	})
	assert.ErrorIs(t, err, subscriptionbus.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPayments(t *testing.T) {
	store, mock := newStore(t)
	branchID := uuid.New()
	now := time.Now()

	rows := sqlmock.NewRows([]string{"payment_id", "branch_id", "external_payment_id", "amount", "currency", "status", "description", "created_at"}).
		AddRow(uuid.NewString(), branchID.String(), "pay_1", "149.90", "BRL", "paid", nil, now)

	mock.ExpectQuery(`FROM\s+payment_history`).WillReturnRows(rows)

	got, err := store.QueryPayments(context.Background(), branchID, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "149.9", got[0].Amount.String())
	assert.Equal(t, "pay_1", got[0].ExternalPaymentID)
	assert.Empty(t, got[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}
