package branchcache_test

import (
	"context"
	"testing"
	"time"

	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus/stores/branchcache"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type siteStore struct {
	branchbus.Storer
	sites map[string]branchbus.Site
	reads int
}

func (s *siteStore) QuerySite(_ context.Context, identifier string, _ bool) (branchbus.Site, error) {
	s.reads++
	site, ok := s.sites[identifier]
	if !ok {
		return branchbus.Site{}, branchbus.ErrNotFound
	}
	return site, nil
}

func (s *siteStore) Update(_ context.Context, b branchbus.Branch) error {
	site := s.sites[b.Slug]
	site.Name = b.Name
	s.sites[b.Slug] = site
	return nil
}

func (s *siteStore) UpdateSlug(_ context.Context, b branchbus.Branch, slug string, _ time.Time) error {
	site := s.sites[b.Slug]
	delete(s.sites, b.Slug)
	site.Slug = slug
	s.sites[slug] = site
	return nil
}

func TestQuerySiteIsCached(t *testing.T) {
	store := siteStore{sites: map[string]branchbus.Site{
		"academia-azul": {Name: "Academia Azul", Slug: "academia-azul"},
	}}
	cache := branchcache.NewStore(logger.Discard(), &store, time.Minute)
	ctx := context.Background()

	for range 3 {
		site, err := cache.QuerySite(ctx, "academia-azul", false)
		require.NoError(t, err)
		assert.Equal(t, "Academia Azul", site.Name)
	}
	assert.Equal(t, 1, store.reads)

	_, err := cache.QuerySite(ctx, "nope", false)
	assert.ErrorIs(t, err, branchbus.ErrNotFound)
	_, err = cache.QuerySite(ctx, "nope", false)
	assert.ErrorIs(t, err, branchbus.ErrNotFound)
	assert.Equal(t, 3, store.reads)
}

func TestWritesEvict(t *testing.T) {
	store := siteStore{sites: map[string]branchbus.Site{
		"academia-azul": {Name: "Academia Azul", Slug: "academia-azul"},
	}}
	cache := branchcache.NewStore(logger.Discard(), &store, time.Minute)
	ctx := context.Background()

	_, err := cache.QuerySite(ctx, "academia-azul", false)
	require.NoError(t, err)

	b := branchbus.Branch{Slug: "academia-azul", Name: "Academia Azul Centro"}
	require.NoError(t, cache.Update(ctx, b))

	site, err := cache.QuerySite(ctx, "academia-azul", false)
	require.NoError(t, err)
	assert.Equal(t, "Academia Azul Centro", site.Name)

	require.NoError(t, cache.UpdateSlug(ctx, b, "azul", time.Now()))

	_, err = cache.QuerySite(ctx, "academia-azul", false)
	assert.ErrorIs(t, err, branchbus.ErrNotFound)

	site, err = cache.QuerySite(ctx, "azul", false)
	require.NoError(t, err)
	assert.Equal(t, "azul", site.Slug)
}

func TestTransitionEvictsSlugAndDomains(t *testing.T) {
	site := branchbus.Site{Name: "Academia Azul", Slug: "academia-azul"}
	site.Subscription.Status = substatus.Active

	store := siteStore{sites: map[string]branchbus.Site{
		"academia-azul":      site,
		"natacaoazul.com.br": site,
	}}
	cache := branchcache.NewStore(logger.Discard(), &store, time.Minute)
	ctx := context.Background()

	_, err := cache.QuerySite(ctx, "academia-azul", false)
	require.NoError(t, err)
	_, err = cache.QuerySite(ctx, "natacaoazul.com.br", true)
	require.NoError(t, err)
	require.Equal(t, 2, store.reads)

	site.Subscription.Status = substatus.Suspended
	store.sites["academia-azul"] = site
	store.sites["natacaoazul.com.br"] = site

	var obs subscriptionbus.Observer = cache
	obs.Transition(ctx, subscriptionbus.Tenant{Slug: "academia-azul", Subscription: site.Subscription})

	got, err := cache.QuerySite(ctx, "academia-azul", false)
	require.NoError(t, err)
	assert.Equal(t, substatus.Suspended, got.Subscription.Status)

	got, err = cache.QuerySite(ctx, "natacaoazul.com.br", true)
	require.NoError(t, err)
	assert.Equal(t, substatus.Suspended, got.Subscription.Status)
	assert.Equal(t, 4, store.reads)
}

func TestSweptEvictsEverything(t *testing.T) {
	store := siteStore{sites: map[string]branchbus.Site{
		"academia-azul": {Slug: "academia-azul"},
		"raia-um":       {Slug: "raia-um"},
	}}
	cache := branchcache.NewStore(logger.Discard(), &store, time.Minute)
	ctx := context.Background()

	for _, slug := range []string{"academia-azul", "raia-um"} {
		_, err := cache.QuerySite(ctx, slug, false)
		require.NoError(t, err)
	}

	cache.Swept(ctx, subscriptionbus.SweepResult{})
	_, err := cache.QuerySite(ctx, "raia-um", false)
	require.NoError(t, err)
	assert.Equal(t, 2, store.reads, "a sweep that changed nothing keeps the cache")

	cache.Swept(ctx, subscriptionbus.SweepResult{Suspended: 1})
	for _, slug := range []string{"academia-azul", "raia-um"} {
		_, err := cache.QuerySite(ctx, slug, false)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, store.reads)
}
