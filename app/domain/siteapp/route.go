package siteapp

import (
	"net/http"
	"time"

	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	BranchBus       *branchbus.Core
	SubscriptionBus *subscriptionbus.Core
	MaxAge          time.Duration
}

// Routes adds specific routes for this group. The paths match the rewrite
// target of the site resolver.
func Routes(app *web.App, cfg Config) {
	const group = "_sites"

	api := newApp(cfg.BranchBus, cfg.SubscriptionBus, cfg.MaxAge)

	app.HandlerFunc(http.MethodGet, group, "/{site}", api.query)
	app.HandlerFunc(http.MethodGet, group, "/{site}/{path...}", api.query)
}
