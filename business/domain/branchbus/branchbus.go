// Package branchbus provides business access to branches, the tenants of the
// panel.
package branchbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/plan"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jcpaschoal/painel-swim/foundation/otel"
)

// maxSlugAttempts bounds the retries after a concurrent insert took the slug.
const maxSlugAttempts = 5

// maxCodeAttempts bounds the retries after a generated code collided.
const maxCodeAttempts = 3

// Set of error variables for CRUD operations.
var (
	ErrNotFound    = errors.New("tenant not found for this (id, email, slug) combination")
	ErrUniqueSlug  = errors.New("slug is not unique")
	ErrUniqueCode  = errors.New("invite or branch code is not unique")
	ErrInvalidSlug = errors.New("slug must contain letters or digits")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	CountSlugPrefix(ctx context.Context, candidate string) (int, error)
	Create(ctx context.Context, b Branch) (int64, error)
	Update(ctx context.Context, b Branch) error
	UpdateSlug(ctx context.Context, b Branch, slug string, updatedAt time.Time) error
	Delete(ctx context.Context, b Branch, deletedAt time.Time) error
	QueryForMember(ctx context.Context, userID uuid.UUID, email string, slug string) (Branch, error)
	QueryOwned(ctx context.Context, userID uuid.UUID, email string, slug string) (Branch, error)
	QueryByUser(ctx context.Context, userID uuid.UUID, email string) ([]Branch, error)
	QueryByID(ctx context.Context, branchID uuid.UUID) (Branch, error)
	QueryByBranchCode(ctx context.Context, code string) (Branch, error)
	QueryByInviteCode(ctx context.Context, code string) (Branch, error)
	QuerySite(ctx context.Context, identifier string, customDomain bool) (Site, error)
	QueryPaths(ctx context.Context) ([]Path, error)
}

// Core manages the set of APIs for branch access.
type Core struct {
	log    *logger.Logger
	storer Storer
	now    func() time.Time
}

// NewCore constructs a branch core API for use.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
		now:    time.Now,
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

	cc := *c
	cc.storer = storer
	return &cc, nil
}

// Create adds a new branch on a fourteen day trial. The slug is derived from
// the name and suffixed with the number of slugs already sharing it as a
// prefix. The owner membership is added by the caller in the same
// transaction.
func (c *Core) Create(ctx context.Context, nb NewBranch) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.create")
	defer span.End()

	candidate := slug.Make(nb.Name)
	if candidate == "" {
		return Branch{}, ErrInvalidSlug
	}

	count, err := c.storer.CountSlugPrefix(ctx, candidate)
	if err != nil {
		return Branch{}, fmt.Errorf("countslugprefix: %w", err)
	}

	now := c.now()
	trialEndsAt := now.AddDate(0, 0, subscriptionbus.TrialDays)

	b := Branch{
		ID:      uuid.New(),
		Name:    nb.Name,
		Profile: nb.Profile,
		Subscription: subscriptionbus.Subscription{
			Status:      substatus.Trial,
			Plan:        plan.Basic,
			TrialEndsAt: &trialEndsAt,
		},
		CreatorID: nb.CreatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var codeClashes int

	for attempt := 0; attempt < maxSlugAttempts; {
		b.Slug = suffixed(candidate, count+attempt)
		b.InviteCode = newInviteCode()

		b.BranchCode, err = newBranchCode()
		if err != nil {
			return Branch{}, fmt.Errorf("branchcode: %w", err)
		}

		idBranch, err := c.storer.Create(ctx, b)
		switch {
		case errors.Is(err, ErrUniqueCode):
			codeClashes++
			if codeClashes >= maxCodeAttempts {
				return Branch{}, fmt.Errorf("create: %w", err)
			}
			continue

		case errors.Is(err, ErrUniqueSlug):
			c.log.Info(ctx, "branch slug taken, retrying", "slug", b.Slug, "attempt", attempt+1)
			attempt++
			continue

		case err != nil:
			return Branch{}, fmt.Errorf("create: %w", err)
		}

		b.IDBranch = idBranch
		return b, nil
	}

	return Branch{}, fmt.Errorf("create: candidate[%s]: %w", candidate, ErrUniqueSlug)
}

// Update modifies the profile of a branch.
func (c *Core) Update(ctx context.Context, b Branch, ub UpdateBranch) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.update")
	defer span.End()

	applyUpdate(&b, ub)
	b.UpdatedAt = c.now()

	if err := c.storer.Update(ctx, b); err != nil {
		return Branch{}, fmt.Errorf("update: %w", err)
	}

	return b, nil
}

// UpdateName renames a branch. The slug is left as is.
func (c *Core) UpdateName(ctx context.Context, b Branch, name string) (Branch, error) {
	return c.Update(ctx, b, UpdateBranch{Name: &name})
}

// UpdateSlug gives the branch a new slug built from the requested value with
// the same suffix rule used on creation.
func (c *Core) UpdateSlug(ctx context.Context, b Branch, requested string) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.updateslug")
	defer span.End()

	candidate := slug.Make(requested)
	if candidate == "" {
		return Branch{}, ErrInvalidSlug
	}

	if candidate == b.Slug {
		return b, nil
	}

	count, err := c.storer.CountSlugPrefix(ctx, candidate)
	if err != nil {
		return Branch{}, fmt.Errorf("countslugprefix: %w", err)
	}

	now := c.now()

	for attempt := range maxSlugAttempts {
		next := suffixed(candidate, count+attempt)

		if err := c.storer.UpdateSlug(ctx, b, next, now); err != nil {
			if errors.Is(err, ErrUniqueSlug) {
				continue
			}
			return Branch{}, fmt.Errorf("updateslug: %w", err)
		}

		b.Slug = next
		b.UpdatedAt = now
		return b, nil
	}

	return Branch{}, fmt.Errorf("updateslug: candidate[%s]: %w", candidate, ErrUniqueSlug)
}

// Delete soft deletes the branch. Its domains and members stop being visible
// with it.
func (c *Core) Delete(ctx context.Context, b Branch) error {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, b, c.now()); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// QueryForMember finds the branch by slug when the user created it or holds
// any membership in it.
func (c *Core) QueryForMember(ctx context.Context, userID uuid.UUID, email string, slug string) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.queryformember")
	defer span.End()

	b, err := c.storer.QueryForMember(ctx, userID, email, slug)
	if err != nil {
		return Branch{}, fmt.Errorf("query: slug[%s]: %w", slug, err)
	}

	return b, nil
}

// QueryOwned finds the branch by slug when the user created it or is one of
// its owners.
func (c *Core) QueryOwned(ctx context.Context, userID uuid.UUID, email string, slug string) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.queryowned")
	defer span.End()

	b, err := c.storer.QueryOwned(ctx, userID, email, slug)
	if err != nil {
		return Branch{}, fmt.Errorf("query: slug[%s]: %w", slug, err)
	}

	return b, nil
}

// QueryByUser lists the branches the user created or joined.
func (c *Core) QueryByUser(ctx context.Context, userID uuid.UUID, email string) ([]Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.querybyuser")
	defer span.End()

	bs, err := c.storer.QueryByUser(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	return bs, nil
}

// QueryByID finds the branch by the specified ID.
func (c *Core) QueryByID(ctx context.Context, branchID uuid.UUID) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.querybyid")
	defer span.End()

	b, err := c.storer.QueryByID(ctx, branchID)
	if err != nil {
		return Branch{}, fmt.Errorf("query: branchID[%s]: %w", branchID, err)
	}

	return b, nil
}

// QueryByBranchCode finds the branch students join with.
func (c *Core) QueryByBranchCode(ctx context.Context, code string) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.querybybranchcode")
	defer span.End()

	b, err := c.storer.QueryByBranchCode(ctx, code)
	if err != nil {
		return Branch{}, fmt.Errorf("query: branchCode[%s]: %w", code, err)
	}

	return b, nil
}

// QueryByInviteCode finds the branch an invitation link points to.
func (c *Core) QueryByInviteCode(ctx context.Context, code string) (Branch, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.querybyinvitecode")
	defer span.End()

	b, err := c.storer.QueryByInviteCode(ctx, code)
	if err != nil {
		return Branch{}, fmt.Errorf("query: inviteCode[%s]: %w", code, err)
	}

	return b, nil
}

// QuerySite resolves a site identifier. A custom domain matches verified
// domains only.
func (c *Core) QuerySite(ctx context.Context, identifier string, customDomain bool) (Site, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.querysite")
	defer span.End()

	s, err := c.storer.QuerySite(ctx, identifier, customDomain)
	if err != nil {
		return Site{}, fmt.Errorf("query: site[%s]: %w", identifier, err)
	}

	return s, nil
}

// QueryPaths returns every slug and domain a site can be served under.
func (c *Core) QueryPaths(ctx context.Context) ([]Path, error) {
	ctx, span := otel.AddSpan(ctx, "business.branchbus.querypaths")
	defer span.End()

	paths, err := c.storer.QueryPaths(ctx)
	if err != nil {
		return nil, fmt.Errorf("querypaths: %w", err)
	}

	return paths, nil
}

// IsCreator reports whether the user created the branch.
func IsCreator(b Branch, userID uuid.UUID) bool {
	return b.CreatorID == userID
}
