package teamapp

import (
	"net/http"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth      *auth.Auth
	BranchBus *branchbus.Core
	MemberBus *memberbus.Core
	UserBus   *userbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	ruleTeam := mid.Authorize(cfg.Auth, resource.Team)

	api := newApp(cfg.BranchBus, cfg.MemberBus, cfg.UserBus)

	app.HandlerFunc(http.MethodPut, version, "/team/accept", api.accept, authen, ruleTeam)
	app.HandlerFunc(http.MethodPut, version, "/team/decline", api.decline, authen, ruleTeam)
	app.HandlerFunc(http.MethodDelete, version, "/team/member", api.remove, authen, ruleTeam)
	app.HandlerFunc(http.MethodPut, version, "/team/role", api.toggleRole, authen, ruleTeam)
	app.HandlerFunc(http.MethodPost, version, "/team/join", api.join, authen, ruleTeam)
}
