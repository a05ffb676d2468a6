// Package memberbus provides business access to branch teams and
// invitations.
package memberbus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/invitestatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jcpaschoal/painel-swim/foundation/otel"
)

// Set of error variables for team operations.
var (
	ErrNotFound           = errors.New("member not found")
	ErrInvitationNotFound = errors.New("Convite não encontrado")
	ErrNotOwner           = errors.New("only owners can manage the team")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, m Member) error
	CreateInvites(ctx context.Context, ms []Member) ([]Member, error)
	Upsert(ctx context.Context, m Member) error
	Respond(ctx context.Context, memberID uuid.UUID, email string, to invitestatus.Status, now time.Time) (bool, error)
	UpdateRole(ctx context.Context, m Member) error
	Delete(ctx context.Context, m Member, deletedAt time.Time) error
	IsOwnerOrCreator(ctx context.Context, branchID uuid.UUID, actor Actor) (bool, error)
	QueryByID(ctx context.Context, memberID uuid.UUID) (Member, error)
	QueryByBranch(ctx context.Context, branchID uuid.UUID) ([]Member, error)
	QueryPendingByEmail(ctx context.Context, email string) ([]Invitation, error)
}

// Core manages the set of APIs for team access.
type Core struct {
	log     *logger.Logger
	userBus *userbus.Core
	storer  Storer
	now     func() time.Time
}

// NewCore constructs a team core API for use.
func NewCore(log *logger.Logger, userBus *userbus.Core, storer Storer) *Core {
	return &Core{
		log:     log,
		userBus: userBus,
		storer:  storer,
		now:     time.Now,
	}
}

// WithClock returns a copy of the core reading time from now.
func (c *Core) WithClock(now func() time.Time) *Core {
	cc := *c
	cc.now = now
	return &cc
}

// NewWithTx constructs a new Core value replacing the Storer
// value with a Storer value that is currently inside a transaction.
func (c *Core) NewWithTx(tx sqldb.CommitRollbacker) (*Core, error) {
	storer, err := c.storer.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newwithtx: %w", err)
	}

	userBus, err := c.userBus.NewWithTx(tx)
	if err != nil {
		return nil, fmt.Errorf("newwithtx: %w", err)
	}

	cc := *c
	cc.storer = storer
	cc.userBus = userBus
	return &cc, nil
}

// AddOwner makes the email an accepted owner of the branch. It runs right
// after the branch is created.
func (c *Core) AddOwner(ctx context.Context, branchID uuid.UUID, email string) (Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.addowner")
	defer span.End()

	now := c.now()

	m := Member{
		ID:        uuid.New(),
		BranchID:  branchID,
		Email:     normalize(email),
		TeamRole:  teamrole.Owner,
		Status:    invitestatus.Accepted,
		Inviter:   normalize(email),
		JoinedAt:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, m); err != nil {
		return Member{}, fmt.Errorf("create: %w", err)
	}

	return m, nil
}

// Invite adds pending memberships for every email and makes sure each one
// has a user row to claim later. Emails already on the team are skipped and
// left out of the result.
func (c *Core) Invite(ctx context.Context, branchID uuid.UUID, inviter string, invites []NewInvite) ([]Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.invite")
	defer span.End()

	if len(invites) == 0 {
		return nil, nil
	}

	now := c.now()
	seen := make(map[string]struct{}, len(invites))

	emails := make([]mail.Address, 0, len(invites))
	ms := make([]Member, 0, len(invites))

	for _, inv := range invites {
		email := normalize(inv.Email.Address)
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}

		emails = append(emails, mail.Address{Name: inv.Email.Name, Address: email})
		ms = append(ms, Member{
			ID:        uuid.New(),
			BranchID:  branchID,
			Email:     email,
			TeamRole:  inv.TeamRole,
			Status:    invitestatus.Pending,
			Inviter:   normalize(inviter),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if _, err := c.userBus.CreatePlaceholders(ctx, emails); err != nil {
		return nil, fmt.Errorf("createplaceholders: %w", err)
	}

	created, err := c.storer.CreateInvites(ctx, ms)
	if err != nil {
		return nil, fmt.Errorf("createinvites: %w", err)
	}

	c.log.Info(ctx, "team invite", "branchID", branchID, "requested", len(ms), "created", len(created))

	return created, nil
}

// Accept turns a pending invitation addressed to email into an accepted
// membership.
func (c *Core) Accept(ctx context.Context, memberID uuid.UUID, email string) error {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.accept")
	defer span.End()

	return c.respond(ctx, memberID, email, invitestatus.Accepted)
}

// Decline refuses a pending invitation addressed to email.
func (c *Core) Decline(ctx context.Context, memberID uuid.UUID, email string) error {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.decline")
	defer span.End()

	return c.respond(ctx, memberID, email, invitestatus.Declined)
}

// Remove soft deletes a membership. The actor must own the branch.
func (c *Core) Remove(ctx context.Context, actor Actor, memberID uuid.UUID) error {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.remove")
	defer span.End()

	m, err := c.authorize(ctx, actor, memberID)
	if err != nil {
		return err
	}

	if err := c.storer.Delete(ctx, m, c.now()); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// ToggleRole flips a member between OWNER and MEMBER. The actor must own the
// branch.
func (c *Core) ToggleRole(ctx context.Context, actor Actor, memberID uuid.UUID) (Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.togglerole")
	defer span.End()

	m, err := c.authorize(ctx, actor, memberID)
	if err != nil {
		return Member{}, err
	}

	m.TeamRole = m.TeamRole.Toggle()
	m.UpdatedAt = c.now()

	if err := c.storer.UpdateRole(ctx, m); err != nil {
		return Member{}, fmt.Errorf("updaterole: %w", err)
	}

	return m, nil
}

// Join accepts the email into the branch, keyed by branch and email. Joining
// again leaves a single row. It returns the join time.
func (c *Core) Join(ctx context.Context, branchID uuid.UUID, email string, inviter string) (time.Time, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.join")
	defer span.End()

	now := c.now()

	m := Member{
		ID:        uuid.New(),
		BranchID:  branchID,
		Email:     normalize(email),
		TeamRole:  teamrole.Member,
		Status:    invitestatus.Accepted,
		Inviter:   inviter,
		JoinedAt:  &now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Upsert(ctx, m); err != nil {
		return time.Time{}, fmt.Errorf("upsert: %w", err)
	}

	return now, nil
}

// QueryByBranch lists the live members of a branch.
func (c *Core) QueryByBranch(ctx context.Context, branchID uuid.UUID) ([]Member, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.querybybranch")
	defer span.End()

	ms, err := c.storer.QueryByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("query: branchID[%s]: %w", branchID, err)
	}

	return ms, nil
}

// QueryPendingByEmail lists the invitations waiting on the email.
func (c *Core) QueryPendingByEmail(ctx context.Context, email string) ([]Invitation, error) {
	ctx, span := otel.AddSpan(ctx, "business.memberbus.querypendingbyemail")
	defer span.End()

	invs, err := c.storer.QueryPendingByEmail(ctx, normalize(email))
	if err != nil {
		return nil, fmt.Errorf("query: email[%s]: %w", email, err)
	}

	return invs, nil
}

// IsBranchOwner reports whether email holds the OWNER role among members.
func IsBranchOwner(email string, members []Member) bool {
	email = normalize(email)

	for _, m := range members {
		if m.Email == email && m.TeamRole.Equal(teamrole.Owner) {
			return true
		}
	}

	return false
}

// =============================================================================

func (c *Core) respond(ctx context.Context, memberID uuid.UUID, email string, to invitestatus.Status) error {
	ok, err := c.storer.Respond(ctx, memberID, normalize(email), to, c.now())
	if err != nil {
		return fmt.Errorf("respond: memberID[%s]: %w", memberID, err)
	}

	if !ok {
		return fmt.Errorf("respond: memberID[%s]: %w", memberID, ErrInvitationNotFound)
	}

	return nil
}

func (c *Core) authorize(ctx context.Context, actor Actor, memberID uuid.UUID) (Member, error) {
	m, err := c.storer.QueryByID(ctx, memberID)
	if err != nil {
		return Member{}, fmt.Errorf("query: memberID[%s]: %w", memberID, err)
	}

	actor.Email = normalize(actor.Email)

	ok, err := c.storer.IsOwnerOrCreator(ctx, m.BranchID, actor)
	if err != nil {
		return Member{}, fmt.Errorf("isownerorcreator: %w", err)
	}

	if !ok {
		return Member{}, ErrNotOwner
	}

	return m, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
