package memberbus_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/invitestatus"
	"github.com/jcpaschoal/painel-swim/business/types/teamrole"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userStore struct {
	userbus.Storer
	placeholders []string
}

func (s *userStore) CreatePlaceholders(_ context.Context, usrs []userbus.User) (int64, error) {
	for _, u := range usrs {
		s.placeholders = append(s.placeholders, u.Email.Address)
	}
	return int64(len(usrs)), nil
}

// teamStore keeps memberships in memory and enforces one live row per
// branch and email like the partial unique index does.
type teamStore struct {
	members  map[uuid.UUID]memberbus.Member
	deleted  map[uuid.UUID]bool
	creators map[uuid.UUID]uuid.UUID
}

func newTeamStore() *teamStore {
	return &teamStore{
		members:  make(map[uuid.UUID]memberbus.Member),
		deleted:  make(map[uuid.UUID]bool),
		creators: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *teamStore) NewWithTx(sqldb.CommitRollbacker) (memberbus.Storer, error) {
	return s, nil
}

func (s *teamStore) live(branchID uuid.UUID, email string) (memberbus.Member, bool) {
	for id, m := range s.members {
		if !s.deleted[id] && m.BranchID == branchID && m.Email == email {
			return m, true
		}
	}
	return memberbus.Member{}, false
}

func (s *teamStore) Create(_ context.Context, m memberbus.Member) error {
	s.members[m.ID] = m
	return nil
}

func (s *teamStore) CreateInvites(_ context.Context, ms []memberbus.Member) ([]memberbus.Member, error) {
	var created []memberbus.Member
	for _, m := range ms {
		if _, ok := s.live(m.BranchID, m.Email); ok {
			continue
		}
		s.members[m.ID] = m
		created = append(created, m)
	}
	return created, nil
}

func (s *teamStore) Upsert(_ context.Context, m memberbus.Member) error {
	if cur, ok := s.live(m.BranchID, m.Email); ok {
		if !cur.Status.Equal(m.Status) {
			cur.Status = m.Status
			cur.JoinedAt = m.JoinedAt
			s.members[cur.ID] = cur
		}
		return nil
	}
	s.members[m.ID] = m
	return nil
}

func (s *teamStore) Respond(_ context.Context, memberID uuid.UUID, email string, to invitestatus.Status, now time.Time) (bool, error) {
	m, ok := s.members[memberID]
	if !ok || s.deleted[memberID] || m.Email != email || !m.Status.Equal(invitestatus.Pending) {
		return false, nil
	}
	m.Status = to
	s.members[memberID] = m
	return true, nil
}

func (s *teamStore) UpdateRole(_ context.Context, m memberbus.Member) error {
	s.members[m.ID] = m
	return nil
}

func (s *teamStore) Delete(_ context.Context, m memberbus.Member, _ time.Time) error {
	s.deleted[m.ID] = true
	return nil
}

func (s *teamStore) IsOwnerOrCreator(_ context.Context, branchID uuid.UUID, actor memberbus.Actor) (bool, error) {
	if s.creators[branchID] == actor.UserID {
		return true, nil
	}
	m, ok := s.live(branchID, actor.Email)
	return ok && m.TeamRole.Equal(teamrole.Owner), nil
}

func (s *teamStore) QueryByID(_ context.Context, memberID uuid.UUID) (memberbus.Member, error) {
	m, ok := s.members[memberID]
	if !ok || s.deleted[memberID] {
		return memberbus.Member{}, memberbus.ErrNotFound
	}
	return m, nil
}

func (s *teamStore) QueryByBranch(_ context.Context, branchID uuid.UUID) ([]memberbus.Member, error) {
	var out []memberbus.Member
	for id, m := range s.members {
		if !s.deleted[id] && m.BranchID == branchID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *teamStore) QueryPendingByEmail(_ context.Context, email string) ([]memberbus.Invitation, error) {
	var out []memberbus.Invitation
	for id, m := range s.members {
		if !s.deleted[id] && m.Email == email && m.Status.Equal(invitestatus.Pending) {
			out = append(out, memberbus.Invitation{Member: m})
		}
	}
	return out, nil
}

// =============================================================================

func newCore(store *teamStore, users *userStore) *memberbus.Core {
	return memberbus.NewCore(logger.Discard(), userbus.NewCore(users), store)
}

func invite(t *testing.T, core *memberbus.Core, branchID uuid.UUID, emails ...string) []memberbus.Member {
	t.Helper()

	invs := make([]memberbus.NewInvite, len(emails))
	for i, e := range emails {
		invs[i] = memberbus.NewInvite{Email: mail.Address{Address: e}, TeamRole: teamrole.Member}
	}

	ms, err := core.Invite(context.Background(), branchID, "owner@swim.com", invs)
	require.NoError(t, err)
	return ms
}

func TestInviteSkipsDuplicates(t *testing.T) {
	store := newTeamStore()
	users := userStore{}
	core := newCore(store, &users)
	branchID := uuid.New()

	ms := invite(t, core, branchID, "ana@swim.com", "Ana@Swim.com", "bia@swim.com")
	require.Len(t, ms, 2)
	assert.Equal(t, invitestatus.Pending, ms[0].Status)
	assert.Equal(t, "owner@swim.com", ms[0].Inviter)
	assert.Equal(t, []string{"ana@swim.com", "bia@swim.com"}, users.placeholders)

	ms = invite(t, core, branchID, "ana@swim.com")
	assert.Empty(t, ms)

	pending, err := core.QueryPendingByEmail(context.Background(), "ANA@swim.com")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestAcceptWithWrongEmail(t *testing.T) {
	store := newTeamStore()
	core := newCore(store, &userStore{})
	ctx := context.Background()

	m := invite(t, core, uuid.New(), "ana@swim.com")[0]

	err := core.Accept(ctx, m.ID, "intruso@swim.com")
	assert.ErrorIs(t, err, memberbus.ErrInvitationNotFound)
	assert.Equal(t, invitestatus.Pending, store.members[m.ID].Status)

	require.NoError(t, core.Accept(ctx, m.ID, "ana@swim.com"))
	assert.Equal(t, invitestatus.Accepted, store.members[m.ID].Status)

	err = core.Decline(ctx, m.ID, "ana@swim.com")
	assert.ErrorIs(t, err, memberbus.ErrInvitationNotFound)
}

func TestJoinTwice(t *testing.T) {
	store := newTeamStore()
	core := newCore(store, &userStore{})
	ctx := context.Background()
	branchID := uuid.New()

	_, err := core.Join(ctx, branchID, "aluno@swim.com", "creator")
	require.NoError(t, err)

	at, err := core.Join(ctx, branchID, "aluno@swim.com", "creator")
	require.NoError(t, err)
	assert.False(t, at.IsZero())

	ms, err := core.QueryByBranch(ctx, branchID)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, invitestatus.Accepted, ms[0].Status)
}

func TestJoinAcceptsPendingInvite(t *testing.T) {
	store := newTeamStore()
	core := newCore(store, &userStore{})
	ctx := context.Background()
	branchID := uuid.New()

	m := invite(t, core, branchID, "ana@swim.com")[0]

	_, err := core.Join(ctx, branchID, "ana@swim.com", "creator")
	require.NoError(t, err)

	ms, err := core.QueryByBranch(ctx, branchID)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, m.ID, ms[0].ID)
	assert.Equal(t, invitestatus.Accepted, ms[0].Status)
}

func TestTeamManagementRequiresOwner(t *testing.T) {
	store := newTeamStore()
	core := newCore(store, &userStore{})
	ctx := context.Background()

	branchID := uuid.New()
	creatorID := uuid.New()
	store.creators[branchID] = creatorID

	owner, err := core.AddOwner(ctx, branchID, "Dona@Swim.com")
	require.NoError(t, err)
	assert.Equal(t, "dona@swim.com", owner.Email)

	m := invite(t, core, branchID, "ana@swim.com")[0]

	_, err = core.ToggleRole(ctx, memberbus.Actor{UserID: uuid.New(), Email: "ana@swim.com"}, m.ID)
	assert.ErrorIs(t, err, memberbus.ErrNotOwner)

	got, err := core.ToggleRole(ctx, memberbus.Actor{UserID: uuid.New(), Email: "dona@swim.com"}, m.ID)
	require.NoError(t, err)
	assert.Equal(t, teamrole.Owner, got.TeamRole)

	require.NoError(t, core.Remove(ctx, memberbus.Actor{UserID: creatorID}, m.ID))

	err = core.Remove(ctx, memberbus.Actor{UserID: creatorID}, m.ID)
	assert.ErrorIs(t, err, memberbus.ErrNotFound)
}

func TestIsBranchOwner(t *testing.T) {
	members := []memberbus.Member{
		{Email: "dona@swim.com", TeamRole: teamrole.Owner},
		{Email: "ana@swim.com", TeamRole: teamrole.Member},
	}

	assert.True(t, memberbus.IsBranchOwner("DONA@swim.com", members))
	assert.False(t, memberbus.IsBranchOwner("ana@swim.com", members))
	assert.False(t, memberbus.IsBranchOwner("x@swim.com", nil))
}
