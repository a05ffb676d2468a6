// Package userapp maintains the app layer api for user accounts.
package userapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

type app struct {
	userBus *userbus.Core
}

func newApp(userBus *userbus.Core) *app {
	return &app{
		userBus: userBus,
	}
}

// queryMe returns the account of the caller.
func (a *app) queryMe(ctx context.Context, _ *http.Request) web.Encoder {
	usr, resp := a.caller(ctx)
	if resp != nil {
		return resp
	}

	return envelope.New(toAppUser(usr))
}

// updateMe changes the name or password of the caller.
func (a *app) updateMe(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, resp := a.caller(ctx)
	if resp != nil {
		return resp
	}

	updUsr, err := a.userBus.Update(ctx, usr, toBusUpdateUser(app))
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "update: userID[%s]: %s", usr.ID, err)
	}

	return envelope.NewWithMessage(toAppUser(updUsr), "Conta atualizada com sucesso")
}

// updateRole lets platform staff change the role of a user or disable the
// account.
func (a *app) updateRole(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateUserRole
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.NewFieldErrors("user_id", err)
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userbus.ErrNotFound) {
			return errs.New(errs.NotFound, errors.New("Usuário não encontrado"))
		}
		return errs.Errorf(errs.InternalOnlyLog, "querybyid: %s", err)
	}

	uu, err := toBusUpdateUserRole(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	updUsr, err := a.userBus.Update(ctx, usr, uu)
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "updaterole: userID[%s]: %s", usr.ID, err)
	}

	return envelope.New(toAppUser(updUsr))
}

func (a *app) caller(ctx context.Context) (userbus.User, web.Encoder) {
	userID, err := mid.GetUserID(ctx)
	if err != nil {
		return userbus.User{}, errs.New(errs.Unauthenticated, err)
	}

	usr, err := a.userBus.QueryByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userbus.ErrNotFound) {
			return userbus.User{}, errs.New(errs.Unauthenticated, errors.New("Não autorizado"))
		}
		return userbus.User{}, errs.Errorf(errs.Internal, "querybyid: userID[%s]: %s", userID, err)
	}

	return usr, nil
}
