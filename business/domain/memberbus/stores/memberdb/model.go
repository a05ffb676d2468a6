package memberdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/types/invitestatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
)

type memberDB struct {
	ID        uuid.UUID      `db:"member_id"`
	BranchID  uuid.UUID      `db:"branch_id"`
	Email     string         `db:"email"`
	Name      sql.NullString `db:"name"`
	TeamRole  string         `db:"team_role"`
	Status    string         `db:"status"`
	Inviter   sql.NullString `db:"inviter"`
	JoinedAt  sql.NullTime   `db:"joined_at"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toDBMember(bus memberbus.Member) memberDB {
	db := memberDB{
		ID:        bus.ID,
		BranchID:  bus.BranchID,
		Email:     bus.Email,
		TeamRole:  bus.TeamRole.String(),
		Status:    bus.Status.String(),
		Inviter:   sql.NullString{String: bus.Inviter, Valid: bus.Inviter != ""},
		CreatedAt: bus.CreatedAt.UTC(),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}

	if bus.JoinedAt != nil {
		db.JoinedAt = sql.NullTime{Time: bus.JoinedAt.UTC(), Valid: true}
	}

	return db
}

func toBusMember(db memberDB) (memberbus.Member, error) {
	role, err := teamrole.Parse(db.TeamRole)
	if err != nil {
		return memberbus.Member{}, fmt.Errorf("parse team role: %w", err)
	}

	status, err := invitestatus.Parse(db.Status)
	if err != nil {
		return memberbus.Member{}, fmt.Errorf("parse status: %w", err)
	}

	bus := memberbus.Member{
		ID:        db.ID,
		BranchID:  db.BranchID,
		Email:     db.Email,
		Name:      db.Name.String,
		TeamRole:  role,
		Status:    status,
		Inviter:   db.Inviter.String,
		CreatedAt: db.CreatedAt.In(time.Local),
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}

	if db.JoinedAt.Valid {
		t := db.JoinedAt.Time.In(time.Local)
		bus.JoinedAt = &t
	}

	return bus, nil
}

func toBusMembers(dbs []memberDB) ([]memberbus.Member, error) {
	bus := make([]memberbus.Member, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusMember(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}

// =============================================================================

type invitationDB struct {
	memberDB
	BranchName      string         `db:"branch_name"`
	BranchSlug      string         `db:"branch_slug"`
	InviteCode      string         `db:"invite_code"`
	BranchCode      string         `db:"branch_code"`
	BranchCreatedAt time.Time      `db:"branch_created_at"`
	CreatorEmail    sql.NullString `db:"creator_email"`
	CreatorName     sql.NullString `db:"creator_name"`
}

func toBusInvitations(dbs []invitationDB) ([]memberbus.Invitation, error) {
	bus := make([]memberbus.Invitation, len(dbs))

	for i, db := range dbs {
		m, err := toBusMember(db.memberDB)
		if err != nil {
			return nil, err
		}

		bus[i] = memberbus.Invitation{
			Member:          m,
			BranchName:      db.BranchName,
			BranchSlug:      db.BranchSlug,
			InviteCode:      db.InviteCode,
			BranchCode:      db.BranchCode,
			BranchCreatedAt: db.BranchCreatedAt.In(time.Local),
			CreatorEmail:    db.CreatorEmail.String,
			CreatorName:     db.CreatorName.String,
		}
	}

	return bus, nil
}
