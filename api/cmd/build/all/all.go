// Package all binds all the routes into the specified app.
package all

import (
	"time"

	"github.com/jcpaschoal/painel-swim/app/domain/authapp"
	"github.com/jcpaschoal/painel-swim/app/domain/branchapp"
	"github.com/jcpaschoal/painel-swim/app/domain/checkapp"
	"github.com/jcpaschoal/painel-swim/app/domain/domainapp"
	"github.com/jcpaschoal/painel-swim/app/domain/siteapp"
	"github.com/jcpaschoal/painel-swim/app/domain/subscriptionapp"
	"github.com/jcpaschoal/painel-swim/app/domain/teamapp"
	"github.com/jcpaschoal/painel-swim/app/domain/userapp"
	"github.com/jcpaschoal/painel-swim/app/sdk/metrics"
	"github.com/jcpaschoal/painel-swim/app/sdk/mux"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus"
	"github.com/jcpaschoal/painel-swim/business/domain/domainbus/stores/domaindb"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus/stores/memberdb"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus/stores/subscriptiondb"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouterAdder interface.
func (add) Add(app *web.App, cfg mux.Config) {

	// Construct the business domain packages we need here so we are using the
	// sames instances for the different set of domain apis.
	userBus := userbus.NewCore(usercache.NewStore(cfg.Log, userdb.NewStore(cfg.Log, cfg.DB), 5*time.Minute))
	branchBus := branchbus.NewCore(cfg.Log, cfg.SiteConfig.Cache)
	memberBus := memberbus.NewCore(cfg.Log, userBus, memberdb.NewStore(cfg.Log, cfg.DB))
	domainBus := domainbus.NewCore(domaindb.NewStore(cfg.Log, cfg.DB))
	subscriptionBus := subscriptionbus.NewCore(cfg.Log, subscriptiondb.NewStore(cfg.Log, cfg.DB), metrics.Subscriptions{}, cfg.SiteConfig.Cache)

	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
	})

	authapp.Routes(app, authapp.Config{
		Auth:    cfg.AuthConfig.Auth,
		UserBus: userBus,
	})

	userapp.Routes(app, userapp.Config{
		Auth:    cfg.AuthConfig.Auth,
		UserBus: userBus,
	})

	branchapp.Routes(app, branchapp.Config{
		Log:             cfg.Log,
		DB:              cfg.DB,
		Auth:            cfg.AuthConfig.Auth,
		BranchBus:       branchBus,
		MemberBus:       memberBus,
		SubscriptionBus: subscriptionBus,
	})

	domainapp.Routes(app, domainapp.Config{
		Auth:      cfg.AuthConfig.Auth,
		BranchBus: branchBus,
		DomainBus: domainBus,
	})

	teamapp.Routes(app, teamapp.Config{
		Auth:      cfg.AuthConfig.Auth,
		BranchBus: branchBus,
		MemberBus: memberBus,
		UserBus:   userBus,
	})

	subscriptionapp.Routes(app, subscriptionapp.Config{
		Auth:            cfg.AuthConfig.Auth,
		SubscriptionBus: subscriptionBus,
		BranchBus:       branchBus,
		Sweeper:         cfg.SweepConfig.Scheduler,
	})

	siteapp.Routes(app, siteapp.Config{
		BranchBus:       branchBus,
		SubscriptionBus: subscriptionBus,
		MaxAge:          cfg.SiteConfig.MaxAge,
	})
}
