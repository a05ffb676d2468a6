// Package branchdb contains branch related CRUD functionality.
package branchdb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/invitestatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const branchColumns = `
	b.branch_id, b.id_branch, b.slug, b.invite_code, b.branch_code, b.name,
	b.internal_name, b.cnpj, b.address, b.neighborhood, b.number, b.complement,
	b.city, b.state, b.state_short, b.zip_code, b.telephone, b.whatsapp, b.email,
	b.website, b.latitude, b.longitude, b.logo_url, b.opening_date,
	b.subscription_status, b.subscription_plan, b.trial_ends_at, b.subscription_ends_at,
	b.last_payment_at, b.external_subscription_ref, b.creator_id, b.created_at, b.updated_at`

// Store manages the set of APIs for branch database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (branchbus.Storer, error) {
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

// CountSlugPrefix counts every branch, deleted ones included, whose slug
// starts with the candidate.
func (s *Store) CountSlugPrefix(ctx context.Context, candidate string) (int, error) {
	data := struct {
		Pattern string `db:"pattern"`
	}{
		Pattern: escapeLike(candidate) + "%",
	}

	const q = `
	SELECT
		COUNT(*) AS count
	FROM
		branches
	WHERE
		slug LIKE :pattern ESCAPE '!'`

	var result struct {
		Count int `db:"count"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		return 0, fmt.Errorf("namedquerystruct: %w", err)
	}

	return result.Count, nil
}

// Create inserts a new branch and returns the sequence number it was given.
// A slug clash returns ErrUniqueSlug and a code clash ErrUniqueCode, neither
// aborting an enclosing transaction.
func (s *Store) Create(ctx context.Context, b branchbus.Branch) (int64, error) {
	const q = `
	INSERT INTO branches
		(branch_id, slug, invite_code, branch_code, name, internal_name, cnpj, address,
		neighborhood, number, complement, city, state, state_short, zip_code, telephone,
		whatsapp, email, website, latitude, longitude, logo_url, opening_date,
		subscription_status, subscription_plan, trial_ends_at, subscription_ends_at,
		last_payment_at, external_subscription_ref, creator_id, created_at, updated_at)
	VALUES
		(:branch_id, :slug, :invite_code, :branch_code, :name, :internal_name, :cnpj, :address,
		:neighborhood, :number, :complement, :city, :state, :state_short, :zip_code, :telephone,
		:whatsapp, :email, :website, :latitude, :longitude, :logo_url, :opening_date,
		:subscription_status, :subscription_plan, :trial_ends_at, :subscription_ends_at,
		:last_payment_at, :external_subscription_ref, :creator_id, :created_at, :updated_at)
	ON CONFLICT DO NOTHING
	RETURNING
		id_branch`

	var result struct {
		IDBranch int64 `db:"id_branch"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, toDBBranch(b), &result); err != nil {
		var dup sqldb.DuplicatedEntry
		switch {
		case errors.As(err, &dup):
			if strings.Contains(dup.Column, "slug") {
				return 0, fmt.Errorf("namedquerystruct: %w", branchbus.ErrUniqueSlug)
			}
			return 0, fmt.Errorf("namedquerystruct: %w", branchbus.ErrUniqueCode)

		case errors.Is(err, sqldb.ErrDBNotFound):
			taken, err := s.slugTaken(ctx, b.Slug)
			if err != nil {
				return 0, fmt.Errorf("slugtaken: %w", err)
			}
			if taken {
				return 0, branchbus.ErrUniqueSlug
			}
			return 0, branchbus.ErrUniqueCode
		}
		return 0, fmt.Errorf("namedquerystruct: %w", err)
	}

	return result.IDBranch, nil
}

// slugTaken reports whether any branch, deleted ones included, holds the slug.
func (s *Store) slugTaken(ctx context.Context, slug string) (bool, error) {
	data := struct {
		Slug string `db:"slug"`
	}{
		Slug: slug,
	}

	const q = `
	SELECT
		EXISTS (SELECT 1 FROM branches WHERE slug = :slug) AS found`

	var result struct {
		Found bool `db:"found"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		return false, fmt.Errorf("namedquerystruct: %w", err)
	}

	return result.Found, nil
}

// isLive reports whether the branch exists and is not deleted.
func (s *Store) isLive(ctx context.Context, branchID uuid.UUID) (bool, error) {
	data := struct {
		ID uuid.UUID `db:"branch_id"`
	}{
		ID: branchID,
	}

	const q = `
	SELECT
		EXISTS (SELECT 1 FROM branches WHERE branch_id = :branch_id AND deleted_at IS NULL) AS found`

	var result struct {
		Found bool `db:"found"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		return false, fmt.Errorf("namedquerystruct: %w", err)
	}

	return result.Found, nil
}

// Update replaces the name and profile of a branch.
func (s *Store) Update(ctx context.Context, b branchbus.Branch) error {
	const q = `
	UPDATE
		branches
	SET
		name = :name,
		internal_name = :internal_name,
		cnpj = :cnpj,
		address = :address,
		neighborhood = :neighborhood,
		number = :number,
		complement = :complement,
		city = :city,
		state = :state,
		state_short = :state_short,
		zip_code = :zip_code,
		telephone = :telephone,
		whatsapp = :whatsapp,
		email = :email,
		website = :website,
		latitude = :latitude,
		longitude = :longitude,
		logo_url = :logo_url,
		opening_date = :opening_date,
		updated_at = :updated_at
	WHERE
		branch_id = :branch_id AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, toDBBranch(b))
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return branchbus.ErrNotFound
	}

	return nil
}

// UpdateSlug moves the branch to a slug nobody holds, deleted branches
// included.
func (s *Store) UpdateSlug(ctx context.Context, b branchbus.Branch, slug string, updatedAt time.Time) error {
	data := struct {
		ID        uuid.UUID `db:"branch_id"`
		Slug      string    `db:"slug"`
		UpdatedAt time.Time `db:"updated_at"`
	}{
		ID:        b.ID,
		Slug:      slug,
		UpdatedAt: updatedAt.UTC(),
	}

	const q = `
	UPDATE
		branches
	SET
		slug = :slug,
		updated_at = :updated_at
	WHERE
		branch_id = :branch_id
		AND deleted_at IS NULL
		AND NOT EXISTS (SELECT 1 FROM branches WHERE slug = :slug)`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		if errors.Is(err, sqldb.ErrDBDuplicatedEntry) {
			return fmt.Errorf("namedexeccontext: %w", branchbus.ErrUniqueSlug)
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		live, err := s.isLive(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("islive: %w", err)
		}
		if !live {
			return branchbus.ErrNotFound
		}
		return branchbus.ErrUniqueSlug
	}

	return nil
}

// Delete marks the branch as deleted.
func (s *Store) Delete(ctx context.Context, b branchbus.Branch, deletedAt time.Time) error {
	data := struct {
		ID        uuid.UUID `db:"branch_id"`
		DeletedAt time.Time `db:"deleted_at"`
	}{
		ID:        b.ID,
		DeletedAt: deletedAt.UTC(),
	}

	const q = `
	UPDATE
		branches
	SET
		deleted_at = :deleted_at,
		updated_at = :deleted_at
	WHERE
		branch_id = :branch_id AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return branchbus.ErrNotFound
	}

	return nil
}

// QueryForMember gets the branch by slug for its creator or any member.
func (s *Store) QueryForMember(ctx context.Context, userID uuid.UUID, email string, slug string) (branchbus.Branch, error) {
	data := map[string]any{
		"user_id": userID,
		"email":   email,
		"slug":    slug,
	}

	const q = `
	SELECT` + branchColumns + `
	FROM
		active_branches AS b
	WHERE
		b.slug = :slug
		AND (
			b.creator_id = :user_id
			OR EXISTS (
				SELECT 1 FROM active_members AS m
				WHERE m.branch_id = b.branch_id AND m.email = :email
			)
		)`

	return s.queryOne(ctx, q, data)
}

// QueryOwned gets the branch by slug for its creator or an owner.
func (s *Store) QueryOwned(ctx context.Context, userID uuid.UUID, email string, slug string) (branchbus.Branch, error) {
	data := map[string]any{
		"user_id":   userID,
		"email":     email,
		"slug":      slug,
		"team_role": teamrole.Owner.String(),
	}

	const q = `
	SELECT` + branchColumns + `
	FROM
		active_branches AS b
	WHERE
		b.slug = :slug
		AND (
			b.creator_id = :user_id
			OR EXISTS (
				SELECT 1 FROM active_members AS m
				WHERE m.branch_id = b.branch_id AND m.email = :email AND m.team_role = :team_role
			)
		)`

	return s.queryOne(ctx, q, data)
}

// QueryByUser lists the branches created by the user or joined through an
// accepted membership.
func (s *Store) QueryByUser(ctx context.Context, userID uuid.UUID, email string) ([]branchbus.Branch, error) {
	data := map[string]any{
		"user_id": userID,
		"email":   email,
		"status":  invitestatus.Accepted.String(),
	}

	const q = `
	SELECT` + branchColumns + `
	FROM
		active_branches AS b
	WHERE
		b.creator_id = :user_id
		OR EXISTS (
			SELECT 1 FROM active_members AS m
			WHERE m.branch_id = b.branch_id AND m.email = :email AND m.status = :status
		)
	ORDER BY
		b.created_at DESC`

	var dbBs []branchDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbBs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusBranches(dbBs)
}

// QueryByID gets the specified branch from the database.
func (s *Store) QueryByID(ctx context.Context, branchID uuid.UUID) (branchbus.Branch, error) {
	data := struct {
		ID string `db:"branch_id"`
	}{
		ID: branchID.String(),
	}

	const q = `
	SELECT` + branchColumns + `
	FROM
		active_branches AS b
	WHERE
		b.branch_id = :branch_id`

	return s.queryOne(ctx, q, data)
}

// QueryByBranchCode gets the branch holding the join code.
func (s *Store) QueryByBranchCode(ctx context.Context, code string) (branchbus.Branch, error) {
	data := struct {
		Code string `db:"branch_code"`
	}{
		Code: code,
	}

	const q = `
	SELECT` + branchColumns + `
	FROM
		active_branches AS b
	WHERE
		b.branch_code = :branch_code`

	return s.queryOne(ctx, q, data)
}

// QueryByInviteCode gets the branch holding the invite code.
func (s *Store) QueryByInviteCode(ctx context.Context, code string) (branchbus.Branch, error) {
	data := struct {
		Code string `db:"invite_code"`
	}{
		Code: code,
	}

	const q = `
	SELECT` + branchColumns + `
	FROM
		active_branches AS b
	WHERE
		b.invite_code = :invite_code`

	return s.queryOne(ctx, q, data)
}

// QuerySite gets the public projection of a branch. A custom domain matches
// a slug too.
func (s *Store) QuerySite(ctx context.Context, identifier string, customDomain bool) (branchbus.Site, error) {
	data := struct {
		Identifier string `db:"identifier"`
	}{
		Identifier: identifier,
	}

	const base = `
	SELECT
		b.branch_id, b.name, b.slug, b.logo_url, b.telephone,
		b.subscription_status, b.subscription_plan, b.trial_ends_at,
		b.subscription_ends_at, b.last_payment_at,
		COALESCE((
			SELECT string_agg(d.name, ',' ORDER BY d.name)
			FROM active_domains AS d
			WHERE d.branch_id = b.branch_id AND d.verified
		), '') AS domains
	FROM
		active_branches AS b
	WHERE
		b.slug = :identifier`

	q := base
	if customDomain {
		q += `
		OR EXISTS (
			SELECT 1 FROM active_domains AS d
			WHERE d.branch_id = b.branch_id AND d.name = :identifier AND d.verified
		)`
	}
	q += `
	LIMIT 1`

	var dbSite siteDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbSite); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return branchbus.Site{}, fmt.Errorf("db: %w", branchbus.ErrNotFound)
		}
		return branchbus.Site{}, fmt.Errorf("db: %w", err)
	}

	return toBusSite(dbSite)
}

// QueryPaths lists every live slug and domain name.
func (s *Store) QueryPaths(ctx context.Context) ([]branchbus.Path, error) {
	const q = `
	SELECT slug AS site FROM active_branches
	UNION ALL
	SELECT name AS site FROM active_domains`

	var dbPaths []pathDB
	if err := sqldb.QuerySlice(ctx, s.log, s.db, q, &dbPaths); err != nil {
		return nil, fmt.Errorf("queryslice: %w", err)
	}

	return toBusPaths(dbPaths), nil
}

func (s *Store) queryOne(ctx context.Context, q string, data any) (branchbus.Branch, error) {
	var dbB branchDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbB); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return branchbus.Branch{}, fmt.Errorf("db: %w", branchbus.ErrNotFound)
		}
		return branchbus.Branch{}, fmt.Errorf("db: %w", err)
	}

	return toBusBranch(dbB)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)
	return r.Replace(s)
}
