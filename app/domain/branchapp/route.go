package branchapp

import (
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log             *logger.Logger
	DB              *sqlx.DB
	Auth            *auth.Auth
	BranchBus       *branchbus.Core
	MemberBus       *memberbus.Core
	SubscriptionBus *subscriptionbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	branch := mid.Authorize(cfg.Auth, resource.Branch)
	team := mid.Authorize(cfg.Auth, resource.Team)
	sub := mid.Authorize(cfg.Auth, resource.Subscription)
	transaction := mid.BeginCommitRollback(cfg.Log, sqldb.NewBeginner(cfg.DB))

	api := newApp(cfg.BranchBus, cfg.MemberBus, cfg.SubscriptionBus)

	app.HandlerFunc(http.MethodPost, version, "/branches", api.create, authen, branch, transaction)
	app.HandlerFunc(http.MethodGet, version, "/branches", api.query, authen, branch)
	app.HandlerFunc(http.MethodGet, version, "/branches/invitations", api.queryInvitations, authen, team)
	app.HandlerFunc(http.MethodGet, version, "/invitations/{invite_code}", api.queryByInviteCode, authen, team)

	app.HandlerFunc(http.MethodGet, version, "/branches/{slug}", api.queryBySlug, authen, branch)
	app.HandlerFunc(http.MethodPut, version, "/branches/{slug}", api.update, authen, branch)
	app.HandlerFunc(http.MethodDelete, version, "/branches/{slug}", api.delete, authen, branch)
	app.HandlerFunc(http.MethodPut, version, "/branches/{slug}/name", api.updateName, authen, branch)
	app.HandlerFunc(http.MethodPut, version, "/branches/{slug}/slug", api.updateSlug, authen, branch)
	app.HandlerFunc(http.MethodGet, version, "/branches/{slug}/subscription", api.subscription, authen, sub)

	app.HandlerFunc(http.MethodGet, version, "/branches/{slug}/members", api.queryMembers, authen, team)
	app.HandlerFunc(http.MethodPost, version, "/branches/{slug}/members", api.invite, authen, team)
}
