package branchbus_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slugStore implements only what slug assignment touches. taken simulates
// rows inserted by a concurrent request after the prefix count ran.
// codeClashes makes that many inserts fail on a generated code.
type slugStore struct {
	branchbus.Storer
	slugs       []string
	taken       map[string]bool
	codeClashes int
	gone        bool
	attempts    []string
	nextSeq     int64
	created     []branchbus.Branch
}

func (s *slugStore) NewWithTx(sqldb.CommitRollbacker) (branchbus.Storer, error) {
	return s, nil
}

func (s *slugStore) CountSlugPrefix(_ context.Context, candidate string) (int, error) {
	var n int
	for _, sl := range s.slugs {
		if strings.HasPrefix(sl, candidate) {
			n++
		}
	}
	return n, nil
}

func (s *slugStore) Create(_ context.Context, b branchbus.Branch) (int64, error) {
	s.attempts = append(s.attempts, b.Slug)

	if s.codeClashes > 0 {
		s.codeClashes--
		return 0, branchbus.ErrUniqueCode
	}
	if s.taken[b.Slug] {
		return 0, branchbus.ErrUniqueSlug
	}
	for _, sl := range s.slugs {
		if sl == b.Slug {
			return 0, branchbus.ErrUniqueSlug
		}
	}

	s.nextSeq++
	s.slugs = append(s.slugs, b.Slug)
	s.created = append(s.created, b)
	return s.nextSeq, nil
}

func (s *slugStore) UpdateSlug(_ context.Context, b branchbus.Branch, slug string, _ time.Time) error {
	if s.gone {
		return branchbus.ErrNotFound
	}
	if s.taken[slug] {
		return branchbus.ErrUniqueSlug
	}
	s.slugs = append(s.slugs, slug)
	return nil
}

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newCore(store *slugStore) *branchbus.Core {
	return branchbus.NewCore(logger.Discard(), store).WithClock(func() time.Time { return now })
}

func TestCreateStartsTrial(t *testing.T) {
	store := slugStore{}
	core := newCore(&store)
	creator := uuid.New()

	b, err := core.Create(context.Background(), branchbus.NewBranch{Name: "Academia Azul", CreatorID: creator})
	require.NoError(t, err)

	assert.Equal(t, "academia-azul", b.Slug)
	assert.Equal(t, int64(1), b.IDBranch)
	assert.Equal(t, creator, b.CreatorID)
	assert.Equal(t, substatus.Trial, b.Subscription.Status)
	assert.Equal(t, plan.Basic, b.Subscription.Plan)
	require.NotNil(t, b.Subscription.TrialEndsAt)
	assert.Equal(t, now.AddDate(0, 0, 14), *b.Subscription.TrialEndsAt)
	assert.Len(t, b.BranchCode, branchbus.BranchCodeLength)
	assert.Equal(t, strings.ToUpper(b.BranchCode), b.BranchCode)
	assert.NotEmpty(t, b.InviteCode)
}

func TestCreateSuffixesSlug(t *testing.T) {
	store := slugStore{slugs: []string{"academia-azul", "academia-azul-1"}}
	core := newCore(&store)

	b, err := core.Create(context.Background(), branchbus.NewBranch{Name: "Academia Azul"})
	require.NoError(t, err)
	assert.Equal(t, "academia-azul-2", b.Slug)
}

func TestCreateRetriesOnConflict(t *testing.T) {
	store := slugStore{
		slugs: []string{"raia-um"},
		taken: map[string]bool{"raia-um-1": true, "raia-um-2": true},
	}
	core := newCore(&store)

	b, err := core.Create(context.Background(), branchbus.NewBranch{Name: "Raia Um"})
	require.NoError(t, err)
	assert.Equal(t, "raia-um-3", b.Slug)
	assert.Len(t, store.created, 1)
}

func TestCreateGivesUp(t *testing.T) {
	taken := map[string]bool{"raia": true}
	for i := 1; i < 10; i++ {
		taken[fmt.Sprintf("raia-%d", i)] = true
	}

	core := newCore(&slugStore{taken: taken})

	_, err := core.Create(context.Background(), branchbus.NewBranch{Name: "Raia"})
	assert.ErrorIs(t, err, branchbus.ErrUniqueSlug)
}

func TestCreateRegeneratesCodesKeepingSlug(t *testing.T) {
	store := slugStore{codeClashes: 2}
	core := newCore(&store)

	b, err := core.Create(context.Background(), branchbus.NewBranch{Name: "Raia"})
	require.NoError(t, err)

	assert.Equal(t, "raia", b.Slug)
	assert.Equal(t, []string{"raia", "raia", "raia"}, store.attempts)
}

func TestCreateGivesUpOnCodes(t *testing.T) {
	core := newCore(&slugStore{codeClashes: 10})

	_, err := core.Create(context.Background(), branchbus.NewBranch{Name: "Raia"})
	assert.ErrorIs(t, err, branchbus.ErrUniqueCode)
}

func TestCreateRejectsEmptySlug(t *testing.T) {
	core := newCore(&slugStore{})

	_, err := core.Create(context.Background(), branchbus.NewBranch{Name: "!!!"})
	assert.ErrorIs(t, err, branchbus.ErrInvalidSlug)
}

func TestUpdateSlug(t *testing.T) {
	store := slugStore{slugs: []string{"academia-azul", "nova-raia"}}
	core := newCore(&store)
	b := branchbus.Branch{ID: uuid.New(), Slug: "academia-azul"}

	got, err := core.UpdateSlug(context.Background(), b, "Academia Azul")
	require.NoError(t, err)
	assert.Equal(t, "academia-azul", got.Slug)

	got, err = core.UpdateSlug(context.Background(), b, "Nova Raia")
	require.NoError(t, err)
	assert.Equal(t, "nova-raia-1", got.Slug)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestUpdateSlugDeletedBranch(t *testing.T) {
	core := newCore(&slugStore{gone: true})
	b := branchbus.Branch{ID: uuid.New(), Slug: "academia-azul"}

	_, err := core.UpdateSlug(context.Background(), b, "Nova Raia")
	assert.ErrorIs(t, err, branchbus.ErrNotFound)
	assert.NotErrorIs(t, err, branchbus.ErrUniqueSlug)
}

func TestIsCreator(t *testing.T) {
	id := uuid.New()
	b := branchbus.Branch{CreatorID: id}

	assert.True(t, branchbus.IsCreator(b, id))
	assert.False(t, branchbus.IsCreator(b, uuid.New()))
}
