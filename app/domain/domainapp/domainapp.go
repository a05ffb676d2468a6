// Package domainapp maintains the app layer api for branch custom domains.
package domainapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

var errBranchNotFound = errors.New("Academia não encontrada")

type app struct {
	branchBus *branchbus.Core
	domainBus *domainbus.Core
}

func newApp(branchBus *branchbus.Core, domainBus *domainbus.Core) *app {
	return &app{
		branchBus: branchBus,
		domainBus: domainBus,
	}
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	b, resp := a.branch(ctx, r, a.branchBus.QueryForMember)
	if resp != nil {
		return resp
	}

	ds, err := a.domainBus.QueryByBranch(ctx, b.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "querybybranch: branchID[%s]: %s", b.ID, err)
	}

	return envelope.New(toAppDomains(ds))
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var req NewDomain
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.branch(ctx, r, a.branchBus.QueryOwned)
	if resp != nil {
		return resp
	}

	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	d, err := a.domainBus.Create(ctx, toBusNewDomain(req, b.ID, userID))
	if err != nil {
		if errors.Is(err, domainbus.ErrUniqueName) {
			return errs.New(errs.AlreadyExists, domainbus.ErrUniqueName)
		}
		return errs.Errorf(errs.Internal, "create: domain[%s]: %s", req.Domain, err)
	}

	return envelope.Created(DomainResult{Domain: toAppDomain(d)})
}

func (a *app) verify(ctx context.Context, r *http.Request) web.Encoder {
	var req DomainName
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.branch(ctx, r, a.branchBus.QueryOwned)
	if resp != nil {
		return resp
	}

	if err := a.domainBus.Verify(ctx, b.ID, req.Domain); err != nil {
		return mapDomainErr(err, "verify")
	}

	return envelope.New(VerifiedResult{Domain: domainbus.Normalize(req.Domain), Verified: true})
}

func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	var req DomainName
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.branch(ctx, r, a.branchBus.QueryOwned)
	if resp != nil {
		return resp
	}

	if err := a.domainBus.Delete(ctx, b.ID, req.Domain); err != nil {
		return mapDomainErr(err, "delete")
	}

	return envelope.New(DeletedResult{Domain: domainbus.Normalize(req.Domain)})
}

func (a *app) check(ctx context.Context, r *http.Request) web.Encoder {
	name := r.URL.Query().Get("domain")
	if name == "" {
		return errs.New(errs.InvalidArgument, errors.New("Domínio é obrigatório"))
	}

	res, err := a.domainBus.Check(ctx, name)
	if err != nil {
		return errs.Errorf(errs.Internal, "check: domain[%s]: %s", name, err)
	}

	return envelope.New(toAppCheck(name, res))
}

// =============================================================================

type branchLookup func(ctx context.Context, userID uuid.UUID, email string, slug string) (branchbus.Branch, error)

func (a *app) branch(ctx context.Context, r *http.Request, lookup branchLookup) (branchbus.Branch, web.Encoder) {
	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return branchbus.Branch{}, errs.New(errs.Unauthenticated, err)
	}

	b, err := lookup(ctx, userID, mid.GetEmail(ctx), web.Param(r, "slug"))
	if err != nil {
		if errors.Is(err, branchbus.ErrNotFound) {
			return branchbus.Branch{}, errs.New(errs.NotFound, errBranchNotFound)
		}
		return branchbus.Branch{}, errs.Errorf(errs.Internal, "branch: %s", err)
	}

	return b, nil
}

func mapDomainErr(err error, op string) *errs.Error {
	if errors.Is(err, domainbus.ErrNotFound) {
		return errs.New(errs.NotFound, errors.New("Domínio não encontrado"))
	}

	return errs.Errorf(errs.Internal, "%s: %s", op, err)
}
