// Package domainbus provides business access to branch custom domains.
package domainbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/foundation/otel"
)

// challengeSubdomain is the TXT record host used when no verification record
// came with the request.
const challengeSubdomain = "_painel-swim"

// Set of error variables for CRUD operations.
var (
	ErrNotFound   = errors.New("domain not found")
	ErrUniqueName = errors.New("Domínio já cadastrado")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	NewWithTx(tx sqldb.CommitRollbacker) (Storer, error)
	Create(ctx context.Context, d Domain) error
	Verify(ctx context.Context, branchID uuid.UUID, name string) error
	Delete(ctx context.Context, branchID uuid.UUID, name string, deletedAt time.Time) error
	QueryByBranch(ctx context.Context, branchID uuid.UUID) ([]Domain, error)
	QueryByName(ctx context.Context, name string) (Domain, error)
}

// Core manages the set of APIs for domain access.
type Core struct {
	storer Storer
	now    func() time.Time
}

// NewCore constructs a domain core API for use.
func NewCore(storer Storer) *Core {
	return &Core{
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
		return nil, err
	}

	cc := *c
	cc.storer = storer
	return &cc, nil
}

// Create adds a domain to a branch. A pending domain keeps the host and
// value of the record that proves ownership.
func (c *Core) Create(ctx context.Context, nd NewDomain) (Domain, error) {
	ctx, span := otel.AddSpan(ctx, "business.domainbus.create")
	defer span.End()

	d := Domain{
		ID:        uuid.New(),
		Name:      Normalize(nd.Name),
		Verified:  nd.Verified,
		BranchID:  nd.BranchID,
		AddedByID: nd.AddedByID,
		CreatedAt: c.now(),
	}

	if !d.Verified {
		d.Subdomain, d.Value = challenge(d.Name, nd.ApexName, nd.Verification)
	}

	if err := c.storer.Create(ctx, d); err != nil {
		return Domain{}, fmt.Errorf("create: %w", err)
	}

	return d, nil
}

// Verify marks the domain as verified. There is no way back to unverified.
func (c *Core) Verify(ctx context.Context, branchID uuid.UUID, name string) error {
	ctx, span := otel.AddSpan(ctx, "business.domainbus.verify")
	defer span.End()

	if err := c.storer.Verify(ctx, branchID, Normalize(name)); err != nil {
		return fmt.Errorf("verify: name[%s]: %w", name, err)
	}

	return nil
}

// Delete soft deletes a domain of the branch.
func (c *Core) Delete(ctx context.Context, branchID uuid.UUID, name string) error {
	ctx, span := otel.AddSpan(ctx, "business.domainbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, branchID, Normalize(name), c.now()); err != nil {
		return fmt.Errorf("delete: name[%s]: %w", name, err)
	}

	return nil
}

// QueryByBranch lists the live domains of a branch.
func (c *Core) QueryByBranch(ctx context.Context, branchID uuid.UUID) ([]Domain, error) {
	ctx, span := otel.AddSpan(ctx, "business.domainbus.querybybranch")
	defer span.End()

	ds, err := c.storer.QueryByBranch(ctx, branchID)
	if err != nil {
		return nil, fmt.Errorf("query: branchID[%s]: %w", branchID, err)
	}

	return ds, nil
}

// Check reports the verification state of a name. Unknown names are not an
// error.
func (c *Core) Check(ctx context.Context, name string) (CheckResult, error) {
	ctx, span := otel.AddSpan(ctx, "business.domainbus.check")
	defer span.End()

	d, err := c.storer.QueryByName(ctx, Normalize(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CheckResult{}, nil
		}
		return CheckResult{}, fmt.Errorf("query: name[%s]: %w", name, err)
	}

	return CheckResult{
		Name:      d.Name,
		Subdomain: d.Subdomain,
		Value:     d.Value,
		Verified:  d.Verified,
	}, nil
}

// Normalize lowercases a hostname and drops a trailing dot.
func Normalize(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

func challenge(name string, apex string, vs []Verification) (string, string) {
	if len(vs) > 0 {
		sub := vs[0].Domain
		if apex != "" {
			sub = strings.TrimSuffix(sub, "."+Normalize(apex))
		}
		return sub, vs[0].Value
	}

	sub := challengeSubdomain
	if apex = Normalize(apex); apex != "" && name != apex {
		sub += "." + strings.TrimSuffix(name, "."+apex)
	}

	return sub, strings.ReplaceAll(uuid.NewString(), "-", "")
}
