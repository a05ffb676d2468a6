// Package authapp maintains the app layer api for registration and login.
package authapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

type app struct {
	auth    *auth.Auth
	userBus *userbus.Core
}

func newApp(auth *auth.Auth, userBus *userbus.Core) *app {
	return &app{
		auth:    auth,
		userBus: userBus,
	}
}

func (a *app) register(ctx context.Context, r *http.Request) web.Encoder {
	var req Register
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	nu, err := toBusNewUser(req)
	if err != nil {
		return errs.NewFieldErrors("email", err)
	}

	usr, err := a.userBus.Create(ctx, nu)
	if err != nil {
		if errors.Is(err, userbus.ErrUniqueEmail) {
			return errs.New(errs.AlreadyExists, userbus.ErrUniqueEmail)
		}
		return errs.Errorf(errs.Internal, "create: email[%s]: %s", nu.Email.Address, err)
	}

	return envelope.Created(toAppUser(usr)).WithMessage("Conta criada com sucesso")
}

func (a *app) login(ctx context.Context, r *http.Request) web.Encoder {
	var req Login
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	addr, err := parseEmail(req.Email)
	if err != nil {
		return errs.NewFieldErrors("email", err)
	}

	usr, err := a.auth.Login(ctx, addr, req.Password)
	if err != nil {
		return errs.New(errs.Unauthenticated, errors.New("Email ou senha inválidos"))
	}

	token, err := a.auth.GenerateToken(usr)
	if err != nil {
		return errs.Errorf(errs.Internal, "generatetoken: userID[%s]: %s", usr.ID, err)
	}

	return envelope.New(Token{Token: token, User: toAppUser(usr)})
}
