package domainbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	domains   map[string]domainbus.Domain
	deletedAt time.Time
}

func (s *memStore) NewWithTx(sqldb.CommitRollbacker) (domainbus.Storer, error) {
	return s, nil
}

func (s *memStore) Create(_ context.Context, d domainbus.Domain) error {
	if _, ok := s.domains[d.Name]; ok {
		return domainbus.ErrUniqueName
	}
	s.domains[d.Name] = d
	return nil
}

func (s *memStore) Verify(_ context.Context, branchID uuid.UUID, name string) error {
	d, ok := s.domains[name]
	if !ok || d.BranchID != branchID {
		return domainbus.ErrNotFound
	}
	d.Verified = true
	d.Subdomain = ""
	d.Value = ""
	s.domains[name] = d
	return nil
}

func (s *memStore) Delete(_ context.Context, branchID uuid.UUID, name string, deletedAt time.Time) error {
	d, ok := s.domains[name]
	if !ok || d.BranchID != branchID {
		return domainbus.ErrNotFound
	}
	delete(s.domains, name)
	s.deletedAt = deletedAt
	return nil
}

func (s *memStore) QueryByBranch(_ context.Context, branchID uuid.UUID) ([]domainbus.Domain, error) {
	var out []domainbus.Domain
	for _, d := range s.domains {
		if d.BranchID == branchID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *memStore) QueryByName(_ context.Context, name string) (domainbus.Domain, error) {
	d, ok := s.domains[name]
	if !ok {
		return domainbus.Domain{}, domainbus.ErrNotFound
	}
	return d, nil
}

func TestDomainLifecycle(t *testing.T) {
	core := domainbus.NewCore(&memStore{domains: make(map[string]domainbus.Domain)})
	ctx := context.Background()
	branchID := uuid.New()

	res, err := core.Check(ctx, "natacao.com.br")
	require.NoError(t, err)
	assert.Equal(t, domainbus.CheckResult{}, res)
	assert.False(t, res.Verified)

	d, err := core.Create(ctx, domainbus.NewDomain{
		Name:     "WWW.Natacao.com.br.",
		ApexName: "natacao.com.br",
		BranchID: branchID,
	})
	require.NoError(t, err)
	assert.Equal(t, "www.natacao.com.br", d.Name)
	assert.Equal(t, "_painel-swim.www", d.Subdomain)
	assert.Len(t, d.Value, 32)

	_, err = core.Create(ctx, domainbus.NewDomain{Name: "www.natacao.com.br", BranchID: uuid.New()})
	assert.ErrorIs(t, err, domainbus.ErrUniqueName)

	require.NoError(t, core.Verify(ctx, branchID, "www.natacao.com.br"))

	res, err = core.Check(ctx, "www.natacao.com.br")
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Empty(t, res.Subdomain)

	err = core.Verify(ctx, uuid.New(), "www.natacao.com.br")
	assert.ErrorIs(t, err, domainbus.ErrNotFound)

	require.NoError(t, core.Delete(ctx, branchID, "www.natacao.com.br"))

	ds, err := core.QueryByBranch(ctx, branchID)
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestCreateKeepsProvidedRecord(t *testing.T) {
	core := domainbus.NewCore(&memStore{domains: make(map[string]domainbus.Domain)})

	d, err := core.Create(context.Background(), domainbus.NewDomain{
		Name:     "natacao.com.br",
		ApexName: "natacao.com.br",
		Verification: []domainbus.Verification{
			{Domain: "_vercel.natacao.com.br", Value: "vc-domain-verify=natacao.com.br,abc"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "_vercel", d.Subdomain)
	assert.Equal(t, "vc-domain-verify=natacao.com.br,abc", d.Value)

	v, err := core.Create(context.Background(), domainbus.NewDomain{Name: "verificado.com.br", Verified: true})
	require.NoError(t, err)
	assert.Empty(t, v.Subdomain)
	assert.Empty(t, v.Value)
}

func TestCoreUsesClock(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	store := memStore{domains: make(map[string]domainbus.Domain)}
	core := domainbus.NewCore(&store).WithClock(func() time.Time { return now })

	tx, err := core.NewWithTx(nil)
	require.NoError(t, err)

	branchID := uuid.New()

	d, err := tx.Create(context.Background(), domainbus.NewDomain{Name: "natacao.com.br", BranchID: branchID})
	require.NoError(t, err)
	assert.Equal(t, now, d.CreatedAt)

	require.NoError(t, tx.Delete(context.Background(), branchID, "natacao.com.br"))
	assert.Equal(t, now, store.deletedAt)
}
