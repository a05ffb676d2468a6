// Package memberdb contains team membership related CRUD functionality.
package memberdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/invitestatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
)

const memberColumns = `
	m.member_id, m.branch_id, m.email, u.name, m.team_role, m.status, m.inviter,
	m.joined_at, m.created_at, m.updated_at`

// Store manages the set of APIs for membership database access.
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
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (memberbus.Storer, error) {
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

const insertMember = `
	INSERT INTO members
		(member_id, branch_id, email, team_role, status, inviter, joined_at, created_at, updated_at)
	VALUES
		(:member_id, :branch_id, :email, :team_role, :status, :inviter, :joined_at, :created_at, :updated_at)`

// Create inserts a membership.
func (s *Store) Create(ctx context.Context, m memberbus.Member) error {
	if err := sqldb.NamedExecContext(ctx, s.log, s.db, insertMember, toDBMember(m)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// CreateInvites inserts pending memberships, skipping emails that already
// have a live row in the branch, and returns the rows that were inserted.
func (s *Store) CreateInvites(ctx context.Context, ms []memberbus.Member) ([]memberbus.Member, error) {
	const q = insertMember + `
	ON CONFLICT (branch_id, email) WHERE deleted_at IS NULL DO NOTHING`

	created := make([]memberbus.Member, 0, len(ms))

	for _, m := range ms {
		n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, toDBMember(m))
		if err != nil {
			return nil, fmt.Errorf("namedexeccontext: %w", err)
		}

		if n > 0 {
			created = append(created, m)
		}
	}

	return created, nil
}

// Upsert inserts an accepted membership or accepts the live one the email
// already has in the branch.
func (s *Store) Upsert(ctx context.Context, m memberbus.Member) error {
	const q = insertMember + `
	ON CONFLICT (branch_id, email) WHERE deleted_at IS NULL
	DO UPDATE SET
		status = EXCLUDED.status,
		joined_at = EXCLUDED.joined_at,
		updated_at = EXCLUDED.updated_at
	WHERE
		members.status <> EXCLUDED.status`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBMember(m)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Respond moves a pending invitation addressed to email to the given status.
// It reports false when no such invitation exists.
func (s *Store) Respond(ctx context.Context, memberID uuid.UUID, email string, to invitestatus.Status, now time.Time) (bool, error) {
	var joinedAt *time.Time
	if to.Equal(invitestatus.Accepted) {
		t := now.UTC()
		joinedAt = &t
	}

	data := map[string]any{
		"member_id":  memberID,
		"email":      email,
		"pending":    invitestatus.Pending.String(),
		"status":     to.String(),
		"joined_at":  joinedAt,
		"updated_at": now.UTC(),
	}

	const q = `
	UPDATE
		members
	SET
		status = :status,
		joined_at = COALESCE(CAST(:joined_at AS TIMESTAMPTZ), joined_at),
		updated_at = :updated_at
	WHERE
		member_id = :member_id
		AND email = :email
		AND status = :pending
		AND member_id IN (SELECT member_id FROM active_members)`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return false, fmt.Errorf("namedexeccontext: %w", err)
	}

	return n > 0, nil
}

// UpdateRole writes the member team role.
func (s *Store) UpdateRole(ctx context.Context, m memberbus.Member) error {
	const q = `
	UPDATE
		members
	SET
		team_role = :team_role,
		updated_at = :updated_at
	WHERE
		member_id = :member_id AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, toDBMember(m))
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return memberbus.ErrNotFound
	}

	return nil
}

// Delete marks the membership as deleted.
func (s *Store) Delete(ctx context.Context, m memberbus.Member, deletedAt time.Time) error {
	data := struct {
		ID        uuid.UUID `db:"member_id"`
		DeletedAt time.Time `db:"deleted_at"`
	}{
		ID:        m.ID,
		DeletedAt: deletedAt.UTC(),
	}

	const q = `
	UPDATE
		members
	SET
		deleted_at = :deleted_at,
		updated_at = :deleted_at
	WHERE
		member_id = :member_id AND deleted_at IS NULL`

	n, err := sqldb.NamedExecContextRows(ctx, s.log, s.db, q, data)
	if err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	if n == 0 {
		return memberbus.ErrNotFound
	}

	return nil
}

// IsOwnerOrCreator reports whether the actor created the branch or holds a
// live OWNER membership in it.
func (s *Store) IsOwnerOrCreator(ctx context.Context, branchID uuid.UUID, actor memberbus.Actor) (bool, error) {
	data := map[string]any{
		"branch_id": branchID,
		"user_id":   actor.UserID,
		"email":     actor.Email,
		"team_role": teamrole.Owner.String(),
	}

	const q = `
	SELECT
		EXISTS (
			SELECT 1 FROM active_branches
			WHERE branch_id = :branch_id AND creator_id = :user_id
		)
		OR EXISTS (
			SELECT 1 FROM active_members
			WHERE branch_id = :branch_id AND email = :email AND team_role = :team_role
		) AS allowed`

	var result struct {
		Allowed bool `db:"allowed"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		return false, fmt.Errorf("namedquerystruct: %w", err)
	}

	return result.Allowed, nil
}

// QueryByID gets a live membership.
func (s *Store) QueryByID(ctx context.Context, memberID uuid.UUID) (memberbus.Member, error) {
	data := struct {
		ID string `db:"member_id"`
	}{
		ID: memberID.String(),
	}

	const q = `
	SELECT` + memberColumns + `
	FROM
		active_members AS m
	LEFT JOIN
		users AS u ON u.email = m.email
	WHERE
		m.member_id = :member_id`

	var dbM memberDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbM); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return memberbus.Member{}, fmt.Errorf("db: %w", memberbus.ErrNotFound)
		}
		return memberbus.Member{}, fmt.Errorf("db: %w", err)
	}

	return toBusMember(dbM)
}

// QueryByBranch lists the live members of a branch.
func (s *Store) QueryByBranch(ctx context.Context, branchID uuid.UUID) ([]memberbus.Member, error) {
	data := struct {
		ID string `db:"branch_id"`
	}{
		ID: branchID.String(),
	}

	const q = `
	SELECT` + memberColumns + `
	FROM
		active_members AS m
	LEFT JOIN
		users AS u ON u.email = m.email
	WHERE
		m.branch_id = :branch_id
	ORDER BY
		m.created_at`

	var dbMs []memberDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbMs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusMembers(dbMs)
}

// QueryPendingByEmail lists the pending invitations for an email with the
// branch each one is for.
func (s *Store) QueryPendingByEmail(ctx context.Context, email string) ([]memberbus.Invitation, error) {
	data := struct {
		Email  string `db:"email"`
		Status string `db:"status"`
	}{
		Email:  email,
		Status: invitestatus.Pending.String(),
	}

	const q = `
	SELECT` + memberColumns + `,
		b.name AS branch_name, b.slug AS branch_slug, b.invite_code, b.branch_code,
		b.created_at AS branch_created_at, c.email AS creator_email, c.name AS creator_name
	FROM
		active_members AS m
	JOIN
		active_branches AS b ON b.branch_id = m.branch_id
	LEFT JOIN
		users AS u ON u.email = m.email
	LEFT JOIN
		users AS c ON c.user_id = b.creator_id
	WHERE
		m.email = :email AND m.status = :status
	ORDER BY
		m.created_at DESC`

	var dbInvs []invitationDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, q, data, &dbInvs); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusInvitations(dbInvs)
}
