package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/actions"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
)

var errAdminOnly = errors.New("Acesso negado. Apenas administradores.")

// Authorize checks the platform role of the authenticated user against the
// policy for the resource. The action comes from the HTTP method.
func Authorize(a *auth.Auth, res resource.Resource) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			claims := GetClaims(ctx)
			if claims.Subject == "" {
				return errs.New(errs.Unauthenticated, errors.New("Não autorizado"))
			}

			act, err := actions.FromMethod(r.Method)
			if err != nil {
				return errs.New(errs.FailedPrecondition, err)
			}

			if err := a.Authorize(ctx, claims, res, act); err != nil {
				if res.Equal(resource.Platform) {
					return errs.New(errs.PermissionDenied, errAdminOnly)
				}
				return errs.New(errs.PermissionDenied, err)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
