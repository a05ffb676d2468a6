package subscriptionapp

import (
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth            *auth.Auth
	SubscriptionBus *subscriptionbus.Core
	BranchBus       *branchbus.Core
	Sweeper         Sweeper
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	admin := mid.Authorize(cfg.Auth, resource.Platform)

	api := newApp(cfg.SubscriptionBus, cfg.BranchBus, cfg.Sweeper)

	app.HandlerFunc(http.MethodGet, version, "/admin/branches", api.query, authen, admin)
	app.HandlerFunc(http.MethodGet, version, "/admin/branches/expired", api.queryExpired, authen, admin)
	app.HandlerFunc(http.MethodGet, version, "/admin/branches/{branch_id}/subscription", api.queryDetail, authen, admin)
	app.HandlerFunc(http.MethodPut, version, "/admin/branches/{branch_id}/subscription", api.execute, authen, admin)
	app.HandlerFunc(http.MethodPost, version, "/admin/branches/{branch_id}/payments", api.recordPayment, authen, admin)
	app.HandlerFunc(http.MethodPost, version, "/admin/sweep", api.sweep, authen, admin)
	app.HandlerFunc(http.MethodGet, version, "/admin/sites/paths", api.queryPaths, authen, admin)
}
