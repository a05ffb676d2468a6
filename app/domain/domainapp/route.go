package domainapp

import (
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth      *auth.Auth
	BranchBus *branchbus.Core
	DomainBus *domainbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	ruleDomain := mid.Authorize(cfg.Auth, resource.Domain)

	api := newApp(cfg.BranchBus, cfg.DomainBus)

	app.HandlerFunc(http.MethodGet, version, "/branches/{slug}/domains", api.query, authen, ruleDomain)
	app.HandlerFunc(http.MethodPost, version, "/branches/{slug}/domains", api.create, authen, ruleDomain)
	app.HandlerFunc(http.MethodPut, version, "/branches/{slug}/domains", api.verify, authen, ruleDomain)
	app.HandlerFunc(http.MethodDelete, version, "/branches/{slug}/domains", api.delete, authen, ruleDomain)
	app.HandlerFunc(http.MethodGet, version, "/domains/check", api.check, authen, ruleDomain)
}
