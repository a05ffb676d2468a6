package auth

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/jcpaschoal/painel-swim/business/types/actions"
	"github.com/jcpaschoal/painel-swim/business/types/resource"
	"github.com/jcpaschoal/painel-swim/business/types/role"
)

// Admins pass every check. Everyone else needs an explicit policy line.
const casbinModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == "ADMIN" || (r.sub == p.sub && r.obj == p.obj && r.act == p.act)
`

// userResources are the resources a signed in user may touch. Ownership of a
// particular branch is checked by the business layer.
var userResources = []resource.Resource{
	resource.Branch,
	resource.Team,
	resource.Domain,
}

func newEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(casbinModel)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	for _, res := range userResources {
		for _, act := range actions.All() {
			if _, err := e.AddPolicy(role.User.String(), res.String(), act.String()); err != nil {
				return nil, fmt.Errorf("add policy %s %s: %w", res, act, err)
			}
		}
	}

	// A user may read the subscription state of the branches they see.
	if _, err := e.AddPolicy(role.User.String(), resource.Subscription.String(), actions.Get.String()); err != nil {
		return nil, fmt.Errorf("add policy subscription: %w", err)
	}

	return e, nil
}
