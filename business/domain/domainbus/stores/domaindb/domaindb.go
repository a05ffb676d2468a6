// Package domaindb contains domain related CRUD functionality.
package domaindb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Store manages the set of APIs for domain database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (domainbus.Storer, error) {
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

// Create inserts a new domain into the database.
func (s *Store) Create(ctx context.Context, d domainbus.Domain) error {
	const q = `
	INSERT INTO domains
		(domain_id, name, subdomain, value, verified, branch_id, added_by_id, created_at)
	VALUES
		(:domain_id, :name, :subdomain, :value, :verified, :branch_id, :added_by_id, :created_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBDomain(d)); err != nil {
		if errors.Is(err, sqldb.ErrDBDuplicatedEntry) {
			return fmt.Errorf("namedexeccontext: %w", domainbus.ErrUniqueName)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Verify flips the verified flag on and drops the pending record.
func (s *Store) Verify(ctx context.Context, branchID uuid.UUID, name string) error {
	data := struct {
		BranchID uuid.UUID `db:"branch_id"`
		Name     string    `db:"name"`
	}{
		BranchID: branchID,
		Name:     name,
	}

	const q = `
	UPDATE
		domains
	SET
		verified = TRUE,
		subdomain = NULL,
		value = NULL
	WHERE
		branch_id = :branch_id AND name = :name AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return domainbus.ErrNotFound
	}

	return nil
}

// Delete marks a domain of the branch as deleted.
func (s *Store) Delete(ctx context.Context, branchID uuid.UUID, name string, deletedAt time.Time) error {
	data := struct {
		BranchID  uuid.UUID `db:"branch_id"`
		Name      string    `db:"name"`
		DeletedAt time.Time `db:"deleted_at"`
	}{
		BranchID:  branchID,
		Name:      name,
		DeletedAt: deletedAt.UTC(),
	}

	const q = `
	UPDATE
		domains
	SET
		deleted_at = :deleted_at
	WHERE
		branch_id = :branch_id AND name = :name AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return domainbus.ErrNotFound
	}

	return nil
}

// QueryByBranch lists the live domains of a branch.
func (s *Store) QueryByBranch(ctx context.Context, branchID uuid.UUID) ([]domainbus.Domain, error) {
	data := struct {
		ID string `db:"branch_id"`
	}{
		ID: branchID.String(),
	}

	const q = `
	SELECT
		domain_id, name, subdomain, value, verified, branch_id, added_by_id, created_at
	FROM
		active_domains
	WHERE
		branch_id = :branch_id
	ORDER BY
		created_at`

	var dbDs []domainDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbDs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusDomains(dbDs), nil
}

// QueryByName gets a live domain by hostname.
func (s *Store) QueryByName(ctx context.Context, name string) (domainbus.Domain, error) {
	data := struct {
		Name string `db:"name"`
	}{
		Name: name,
	}

	const q = `
	SELECT
		domain_id, name, subdomain, value, verified, branch_id, added_by_id, created_at
	FROM
		active_domains
	WHERE
		name = :name`

	var dbD domainDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbD); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return domainbus.Domain{}, fmt.Errorf("db: %w", domainbus.ErrNotFound)
		}
		return domainbus.Domain{}, fmt.Errorf("db: %w", err)
	}

	return toBusDomain(dbD), nil
}
