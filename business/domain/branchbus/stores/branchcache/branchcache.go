// Package branchcache caches the public site projection of branches.
package branchcache

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for branch data and caching. Only site
// lookups are cached. It also observes subscription changes so a suspended
// branch stops being served from the cache.
type Store struct {
	log    *logger.Logger
	storer branchbus.Storer
	cache  *sturdyc.Client[branchbus.Site]
	state  *state
}

// state is shared by every copy of the store made for a transaction.
type state struct {
	generation atomic.Int64

	mu sync.Mutex

	// domains maps a slug to the custom domains its site was cached under.
	domains map[string]map[string]struct{}
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer branchbus.Storer, ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[branchbus.Site](capacity, numShards, ttl, evictionPercentage),
		state: &state{
			domains: make(map[string]map[string]struct{}),
		},
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (branchbus.Storer, error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	return &Store{
		log:    s.log,
		storer: storer,
		cache:  s.cache,
		state:  s.state,
	}, nil
}

// CountSlugPrefix counts slugs sharing the candidate prefix.
func (s *Store) CountSlugPrefix(ctx context.Context, candidate string) (int, error) {
	return s.storer.CountSlugPrefix(ctx, candidate)
}

// Create inserts a new branch into the database.
func (s *Store) Create(ctx context.Context, b branchbus.Branch) (int64, error) {
	return s.storer.Create(ctx, b)
}

// Update replaces a branch profile and drops its cached site.
func (s *Store) Update(ctx context.Context, b branchbus.Branch) error {
	if err := s.storer.Update(ctx, b); err != nil {
		return err
	}

	s.evict(b.Slug)

	return nil
}

// UpdateSlug moves the branch to a new slug and drops both cached entries.
func (s *Store) UpdateSlug(ctx context.Context, b branchbus.Branch, slug string, updatedAt time.Time) error {
	if err := s.storer.UpdateSlug(ctx, b, slug, updatedAt); err != nil {
		return err
	}

	s.evict(b.Slug)
	s.evict(slug)

	return nil
}

// Delete soft deletes the branch and drops its cached site.
func (s *Store) Delete(ctx context.Context, b branchbus.Branch, deletedAt time.Time) error {
	if err := s.storer.Delete(ctx, b, deletedAt); err != nil {
		return err
	}

	s.evict(b.Slug)

	return nil
}

// QueryForMember gets a branch visible to a member.
func (s *Store) QueryForMember(ctx context.Context, userID uuid.UUID, email string, slug string) (branchbus.Branch, error) {
	return s.storer.QueryForMember(ctx, userID, email, slug)
}

// QueryOwned gets a branch visible to an owner.
func (s *Store) QueryOwned(ctx context.Context, userID uuid.UUID, email string, slug string) (branchbus.Branch, error) {
	return s.storer.QueryOwned(ctx, userID, email, slug)
}

// QueryByUser lists the branches of a user.
func (s *Store) QueryByUser(ctx context.Context, userID uuid.UUID, email string) ([]branchbus.Branch, error) {
	return s.storer.QueryByUser(ctx, userID, email)
}

// QueryByID gets the specified branch from the database.
func (s *Store) QueryByID(ctx context.Context, branchID uuid.UUID) (branchbus.Branch, error) {
	return s.storer.QueryByID(ctx, branchID)
}

// QueryByBranchCode gets the branch holding the join code.
func (s *Store) QueryByBranchCode(ctx context.Context, code string) (branchbus.Branch, error) {
	return s.storer.QueryByBranchCode(ctx, code)
}

// QueryByInviteCode gets the branch holding the invite code.
func (s *Store) QueryByInviteCode(ctx context.Context, code string) (branchbus.Branch, error) {
	return s.storer.QueryByInviteCode(ctx, code)
}

// QuerySite gets the site projection, from the cache when possible.
func (s *Store) QuerySite(ctx context.Context, identifier string, customDomain bool) (branchbus.Site, error) {
	key := s.siteKey(identifier, customDomain)

	if site, ok := s.cache.Get(key); ok {
		return site, nil
	}

	site, err := s.storer.QuerySite(ctx, identifier, customDomain)
	if err != nil {
		return branchbus.Site{}, err
	}

	s.cache.Set(key, site)

	if customDomain {
		s.remember(site.Slug, identifier)
	}

	return site, nil
}

// QueryPaths lists every live slug and domain name.
func (s *Store) QueryPaths(ctx context.Context) ([]branchbus.Path, error) {
	return s.storer.QueryPaths(ctx)
}

// Transition drops the cached site of a branch whose subscription changed.
func (s *Store) Transition(ctx context.Context, t subscriptionbus.Tenant) {
	s.evict(t.Slug)
}

// Swept drops every cached site when a sweep changed any subscription. The
// sweep does not report which branches moved.
func (s *Store) Swept(ctx context.Context, res subscriptionbus.SweepResult) {
	if res.Suspended+res.PastDue == 0 {
		return
	}

	s.state.generation.Add(1)

	s.state.mu.Lock()
	clear(s.state.domains)
	s.state.mu.Unlock()
}

// =============================================================================

func (s *Store) remember(slug string, domain string) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	set, ok := s.state.domains[slug]
	if !ok {
		set = make(map[string]struct{})
		s.state.domains[slug] = set
	}
	set[domain] = struct{}{}
}

func (s *Store) evict(slug string) {
	s.cache.Delete(s.siteKey(slug, false))

	s.state.mu.Lock()
	domains := s.state.domains[slug]
	delete(s.state.domains, slug)
	s.state.mu.Unlock()

	for domain := range domains {
		s.cache.Delete(s.siteKey(domain, true))
	}
}

// siteKey carries the generation so a sweep invalidates every entry at once.
func (s *Store) siteKey(identifier string, customDomain bool) string {
	gen := strconv.FormatInt(s.state.generation.Load(), 10)
	return "site:" + gen + ":" + strconv.FormatBool(customDomain) + ":" + identifier
}
