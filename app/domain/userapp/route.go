package userapp

import (
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth    *auth.Auth
	UserBus *userbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	admin := mid.Authorize(cfg.Auth, resource.Platform)

	api := newApp(cfg.UserBus)

	app.HandlerFunc(http.MethodGet, version, "/me", api.queryMe, authen)
	app.HandlerFunc(http.MethodPut, version, "/me", api.updateMe, authen)
	app.HandlerFunc(http.MethodPut, version, "/admin/users/{user_id}", api.updateRole, authen, admin)
}
