// Package subscriptiondb contains subscription related CRUD functionality.
package subscriptiondb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const tenantColumns = `
	branch_id, id_branch, name, slug, email, telephone,
	subscription_status, subscription_plan, trial_ends_at, subscription_ends_at,
	last_payment_at, external_subscription_ref, created_at, updated_at`

// Store manages the set of APIs for subscription database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db *sqlx.DB) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (subscriptionbus.Storer, error) {
	ec, err := sqldb.GetExtContext(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log: s.log,
		db:  ec,
	}

	return &store, nil
}

// Apply writes the change unconditionally and returns the updated row.
func (s *Store) Apply(ctx context.Context, branchID uuid.UUID, ch subscriptionbus.Change) (subscriptionbus.Tenant, error) {
	data := map[string]any{
		"branch_id":           branchID,
		"subscription_status": ch.Status.String(),
		"updated_at":          ch.UpdatedAt.UTC(),
	}

	buf := bytes.NewBufferString(`
	UPDATE
		branches
	SET
		subscription_status = :subscription_status,
		updated_at = :updated_at`)

	applyChange(ch, data, buf)

	buf.WriteString(`
	WHERE
		branch_id = :branch_id AND deleted_at IS NULL
	RETURNING` + tenantColumns)

	var dbTen tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &dbTen); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return subscriptionbus.Tenant{}, fmt.Errorf("db: %w", subscriptionbus.ErrNotFound)
		}
		return subscriptionbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbTen)
}

// SuspendExpiredTrials moves TRIAL branches whose trial ended before now.
func (s *Store) SuspendExpiredTrials(ctx context.Context, now time.Time) (int64, error) {
	data := map[string]any{
		"now":       now.UTC(),
		"from":      substatus.Trial.String(),
		"to":        substatus.Suspended.String(),
		"timestamp": now.UTC(),
	}

	const q = `
	UPDATE
		branches
	SET
		subscription_status = :to,
		updated_at = :timestamp
	WHERE
		subscription_status = :from
		AND trial_ends_at < :now
		AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n, nil
}

// MarkPastDue moves ACTIVE branches whose subscription ended before now.
func (s *Store) MarkPastDue(ctx context.Context, now time.Time) (int64, error) {
	data := map[string]any{
		"now":       now.UTC(),
		"from":      substatus.Active.String(),
		"to":        substatus.PastDue.String(),
		"timestamp": now.UTC(),
	}

	const q = `
	UPDATE
		branches
	SET
		subscription_status = :to,
		updated_at = :timestamp
	WHERE
		subscription_status = :from
		AND subscription_ends_at < :now
		AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return 0, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n, nil
}

// CreatePayment appends a payment history row.
func (s *Store) CreatePayment(ctx context.Context, p subscriptionbus.Payment) error {
	const q = `
	INSERT INTO payment_history
		(payment_id, branch_id, external_payment_id, amount, currency, status, description, created_at)
	SELECT
		:payment_id, :branch_id, :external_payment_id, :amount, :currency, :status, :description, :created_at
	WHERE
		EXISTS (SELECT 1 FROM active_branches WHERE branch_id = :branch_id)`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, toDBPayment(p))
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return subscriptionbus.ErrNotFound
	}

	return nil
}

// QueryPayments returns the latest payments of a branch.
func (s *Store) QueryPayments(ctx context.Context, branchID uuid.UUID, limit int) ([]subscriptionbus.Payment, error) {
	data := map[string]any{
		"branch_id": branchID,
		"limit":     limit,
	}

	const q = `
	SELECT
		payment_id, branch_id, external_payment_id, amount, currency, status, description, created_at
	FROM
		payment_history
	WHERE
		branch_id = :branch_id
	ORDER BY
		created_at DESC
	LIMIT :limit`

	var dbPays []paymentDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbPays); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPayments(dbPays), nil
}

// QueryAll lists every live branch, newest first.
func (s *Store) QueryAll(ctx context.Context) ([]subscriptionbus.Tenant, error) {
	const q = `
	SELECT` + tenantColumns + `
	FROM
		active_branches
	ORDER BY
		created_at DESC`

	var dbTens []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, struct{}{}, &dbTens); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTens)
}

// QueryExpired lists lapsed trials and subscriptions plus PAST_DUE branches.
func (s *Store) QueryExpired(ctx context.Context, now time.Time) ([]subscriptionbus.Tenant, error) {
	data := map[string]any{
		"now":      now.UTC(),
		"trial":    substatus.Trial.String(),
		"active":   substatus.Active.String(),
		"past_due": substatus.PastDue.String(),
	}

	const q = `
	SELECT` + tenantColumns + `
	FROM
		active_branches
	WHERE
		(subscription_status = :trial AND trial_ends_at < :now)
		OR (subscription_status = :active AND subscription_ends_at < :now)
		OR subscription_status = :past_due
	ORDER BY
		created_at DESC`

	var dbTens []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbTens); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTens)
}

// QueryByID gets the subscription of the specified branch.
func (s *Store) QueryByID(ctx context.Context, branchID uuid.UUID) (subscriptionbus.Tenant, error) {
	data := struct {
		ID string `db:"branch_id"`
	}{
		ID: branchID.String(),
	}

	const q = `
	SELECT` + tenantColumns + `
	FROM
		active_branches
	WHERE
		branch_id = :branch_id`

	var dbTen tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbTen); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return subscriptionbus.Tenant{}, fmt.Errorf("db: %w", subscriptionbus.ErrNotFound)
		}
		return subscriptionbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbTen)
}
