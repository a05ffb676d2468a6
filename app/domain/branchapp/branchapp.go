// Package branchapp maintains the app layer api for branches and their teams.
package branchapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

// ErrBranchNotFound is what clients see when a branch lookup fails.
var ErrBranchNotFound = errors.New("Academia não encontrada")

type app struct {
	branchBus       *branchbus.Core
	memberBus       *memberbus.Core
	subscriptionBus *subscriptionbus.Core
}

func newApp(branchBus *branchbus.Core, memberBus *memberbus.Core, subscriptionBus *subscriptionbus.Core) *app {
	return &app{
		branchBus:       branchBus,
		memberBus:       memberBus,
		subscriptionBus: subscriptionBus,
	}
}

// create adds a branch and makes the caller its first owner inside one
// transaction.
func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var req NewBranch
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	userID, email, err := caller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	nb, err := toBusNewBranch(req, userID)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tx, err := mid.GetTran(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "gettran: %s", err)
	}

	branchBus, err := a.branchBus.NewWithTx(tx)
	if err != nil {
		return errs.Errorf(errs.Internal, "branch newwithtx: %s", err)
	}

	memberBus, err := a.memberBus.NewWithTx(tx)
	if err != nil {
		return errs.Errorf(errs.Internal, "member newwithtx: %s", err)
	}

	b, err := branchBus.Create(ctx, nb)
	if err != nil {
		switch {
		case errors.Is(err, branchbus.ErrInvalidSlug):
			return errs.NewFieldErrors("name", branchbus.ErrInvalidSlug)
		case errors.Is(err, branchbus.ErrUniqueSlug):
			return errs.New(errs.Aborted, branchbus.ErrUniqueSlug)
		}
		return errs.Errorf(errs.Internal, "create: name[%s]: %s", nb.Name, err)
	}

	if _, err := memberBus.AddOwner(ctx, b.ID, email); err != nil {
		return errs.Errorf(errs.Internal, "addowner: branchID[%s]: %s", b.ID, err)
	}

	return envelope.New(CreatedBranch{ID: b.ID.String(), Name: b.Name, Slug: b.Slug})
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	userID, email, err := caller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	bs, err := a.branchBus.QueryByUser(ctx, userID, email)
	if err != nil {
		return errs.Errorf(errs.Internal, "querybyuser: %s", err)
	}

	return envelope.New(BranchesResult{Branches: toAppBranches(bs)})
}

func (a *app) queryBySlug(ctx context.Context, r *http.Request) web.Encoder {
	b, resp := a.memberBranch(ctx, r)
	if resp != nil {
		return resp
	}

	return envelope.New(BranchResult{Branch: toAppBranch(b)})
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var req UpdateBranch
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ub, err := toBusUpdateBranch(req)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.ownedBranch(ctx, r)
	if resp != nil {
		return resp
	}

	b, err = a.branchBus.Update(ctx, b, ub)
	if err != nil {
		return a.mapBranchErr(err, "update")
	}

	return envelope.NewWithMessage(BranchResult{Branch: toAppBranch(b)}, "Academia atualizada com sucesso")
}

func (a *app) updateName(ctx context.Context, r *http.Request) web.Encoder {
	var req UpdateName
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.ownedBranch(ctx, r)
	if resp != nil {
		return resp
	}

	b, err := a.branchBus.UpdateName(ctx, b, req.Name)
	if err != nil {
		return a.mapBranchErr(err, "updatename")
	}

	return envelope.New(NameResult{Name: b.Name})
}

func (a *app) updateSlug(ctx context.Context, r *http.Request) web.Encoder {
	var req UpdateSlug
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.ownedBranch(ctx, r)
	if resp != nil {
		return resp
	}

	b, err := a.branchBus.UpdateSlug(ctx, b, req.Slug)
	if err != nil {
		return a.mapBranchErr(err, "updateslug")
	}

	return envelope.New(SlugResult{Slug: b.Slug})
}

// delete soft deletes the branch. Only its creator may do it.
func (a *app) delete(ctx context.Context, r *http.Request) web.Encoder {
	b, resp := a.ownedBranch(ctx, r)
	if resp != nil {
		return resp
	}

	userID, _, err := caller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if !branchbus.IsCreator(b, userID) {
		return errs.New(errs.PermissionDenied, errors.New("Apenas o criador pode excluir a academia"))
	}

	if err := a.branchBus.Delete(ctx, b); err != nil {
		return a.mapBranchErr(err, "delete")
	}

	return envelope.New(DeletedResult{Slug: b.Slug})
}

func (a *app) subscription(ctx context.Context, r *http.Request) web.Encoder {
	b, resp := a.memberBranch(ctx, r)
	if resp != nil {
		return resp
	}

	return envelope.New(toAppSubscription(b.Subscription, a.subscriptionBus.Now()))
}

func (a *app) queryMembers(ctx context.Context, r *http.Request) web.Encoder {
	b, resp := a.memberBranch(ctx, r)
	if resp != nil {
		return resp
	}

	members, err := a.memberBus.QueryByBranch(ctx, b.ID)
	if err != nil {
		return errs.Errorf(errs.Internal, "querybybranch: branchID[%s]: %s", b.ID, err)
	}

	return envelope.New(MembersResult{Members: toAppMembers(members)})
}

func (a *app) invite(ctx context.Context, r *http.Request) web.Encoder {
	var req NewInvites
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	invites, err := toBusNewInvites(req)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, resp := a.ownedBranch(ctx, r)
	if resp != nil {
		return resp
	}

	_, email, err := caller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	members, err := a.memberBus.Invite(ctx, b.ID, email, invites)
	if err != nil {
		return errs.Errorf(errs.Internal, "invite: branchID[%s]: %s", b.ID, err)
	}

	return envelope.New(InvitedResult{Members: toAppMembers(members)})
}

func (a *app) queryInvitations(ctx context.Context, r *http.Request) web.Encoder {
	_, email, err := caller(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	invs, err := a.memberBus.QueryPendingByEmail(ctx, email)
	if err != nil {
		return errs.Errorf(errs.Internal, "querypendingbyemail: %s", err)
	}

	return envelope.New(InvitationsResult{Invitations: toAppInvitations(invs)})
}

func (a *app) queryByInviteCode(ctx context.Context, r *http.Request) web.Encoder {
	b, err := a.branchBus.QueryByInviteCode(ctx, web.Param(r, "invite_code"))
	if err != nil {
		if errors.Is(err, branchbus.ErrNotFound) {
			return errs.New(errs.NotFound, errors.New("Convite não encontrado"))
		}
		return errs.Errorf(errs.Internal, "querybyinvitecode: %s", err)
	}

	return envelope.New(toAppInviteLink(b))
}

// =============================================================================

// memberBranch loads the branch in the path when the caller created it or
// belongs to its team.
func (a *app) memberBranch(ctx context.Context, r *http.Request) (branchbus.Branch, web.Encoder) {
	userID, email, err := caller(ctx)
	if err != nil {
		return branchbus.Branch{}, errs.New(errs.Unauthenticated, err)
	}

	b, err := a.branchBus.QueryForMember(ctx, userID, email, web.Param(r, "slug"))
	if err != nil {
		return branchbus.Branch{}, a.mapBranchErr(err, "queryformember")
	}

	return b, nil
}

// ownedBranch loads the branch in the path when the caller created it or is
// one of its owners.
func (a *app) ownedBranch(ctx context.Context, r *http.Request) (branchbus.Branch, web.Encoder) {
	userID, email, err := caller(ctx)
	if err != nil {
		return branchbus.Branch{}, errs.New(errs.Unauthenticated, err)
	}

	b, err := a.branchBus.QueryOwned(ctx, userID, email, web.Param(r, "slug"))
	if err != nil {
		return branchbus.Branch{}, a.mapBranchErr(err, "queryowned")
	}

	return b, nil
}

func (a *app) mapBranchErr(err error, op string) *errs.Error {
	switch {
	case errors.Is(err, branchbus.ErrNotFound):
		return errs.New(errs.NotFound, ErrBranchNotFound)
	case errors.Is(err, branchbus.ErrInvalidSlug):
		return errs.NewFieldErrors("slug", branchbus.ErrInvalidSlug)
	case errors.Is(err, branchbus.ErrUniqueSlug):
		return errs.New(errs.Aborted, branchbus.ErrUniqueSlug)
	}

	return errs.Errorf(errs.Internal, "%s: %s", op, err)
}

func caller(ctx context.Context) (uuid.UUID, string, error) {
	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return uuid.Nil, "", err
	}

	return userID, mid.GetEmail(ctx), nil
}
