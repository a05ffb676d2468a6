// Package teamapp maintains the app layer api for invitations and team
// membership.
package teamapp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

type app struct {
	branchBus *branchbus.Core
	memberBus *memberbus.Core
	userBus   *userbus.Core
}

func newApp(branchBus *branchbus.Core, memberBus *memberbus.Core, userBus *userbus.Core) *app {
	return &app{
		branchBus: branchBus,
		memberBus: memberBus,
		userBus:   userBus,
	}
}

func (a *app) accept(ctx context.Context, r *http.Request) web.Encoder {
	var req MemberID
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if err := a.memberBus.Accept(ctx, req.id(), mid.GetEmail(ctx)); err != nil {
		return mapMemberErr(err, "accept")
	}

	return envelope.New(Accepted{Accepted: true})
}

func (a *app) decline(ctx context.Context, r *http.Request) web.Encoder {
	var req MemberID
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if err := a.memberBus.Decline(ctx, req.id(), mid.GetEmail(ctx)); err != nil {
		return mapMemberErr(err, "decline")
	}

	return envelope.New(Declined{Declined: true})
}

func (a *app) remove(ctx context.Context, r *http.Request) web.Encoder {
	var req MemberID
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := actorFrom(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	if err := a.memberBus.Remove(ctx, actor, req.id()); err != nil {
		return mapMemberErr(err, "remove")
	}

	return envelope.New(Removed{Removed: true})
}

func (a *app) toggleRole(ctx context.Context, r *http.Request) web.Encoder {
	var req MemberID
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	actor, err := actorFrom(ctx)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	m, err := a.memberBus.ToggleRole(ctx, actor, req.id())
	if err != nil {
		return mapMemberErr(err, "togglerole")
	}

	return envelope.New(RoleUpdated{Updated: true, TeamRole: m.TeamRole.String()})
}

// join lets the caller into the branch holding the code. The creator is
// recorded as the inviter.
func (a *app) join(ctx context.Context, r *http.Request) web.Encoder {
	var req JoinBranch
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	b, err := a.branchBus.QueryByBranchCode(ctx, req.BranchCode)
	if err != nil {
		if errors.Is(err, branchbus.ErrNotFound) {
			return errs.New(errs.FailedPrecondition, errors.New("Academia não encontrada"))
		}
		return errs.Errorf(errs.Internal, "querybybranchcode: %s", err)
	}

	creator, err := a.userBus.QueryByID(ctx, b.CreatorID)
	if err != nil {
		return errs.Errorf(errs.Internal, "creator: userID[%s]: %s", b.CreatorID, err)
	}

	joinedAt, err := a.memberBus.Join(ctx, b.ID, mid.GetEmail(ctx), creator.Email.Address)
	if err != nil {
		return errs.New(errs.FailedPrecondition, errors.New("Erro ao entrar na academia"))
	}

	return envelope.New(Joined{Joined: true, Slug: b.Slug, JoinedAt: joinedAt.Format(time.RFC3339)})
}

func actorFrom(ctx context.Context) (memberbus.Actor, error) {
	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return memberbus.Actor{}, err
	}

	return memberbus.Actor{UserID: userID, Email: mid.GetEmail(ctx)}, nil
}

func mapMemberErr(err error, op string) *errs.Error {
	switch {
	case errors.Is(err, memberbus.ErrInvitationNotFound):
		return errs.New(errs.NotFound, memberbus.ErrInvitationNotFound)
	case errors.Is(err, memberbus.ErrNotFound):
		return errs.New(errs.NotFound, errors.New("Membro não encontrado"))
	case errors.Is(err, memberbus.ErrNotOwner):
		return errs.New(errs.PermissionDenied, errors.New("Apenas proprietários podem gerenciar a equipe"))
	}

	return errs.Errorf(errs.Internal, "%s: %s", op, err)
}
