// Package siteapp serves the public site of a branch. Requests reach it after
// the site resolver rewrote the hostname into the path.
package siteapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/app/sdk/siteresolver"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
)

// DefaultMaxAge is how long clients may reuse a site response.
const DefaultMaxAge = 10 * time.Second

var errSiteNotFound = errors.New("Academia não encontrada")

type app struct {
	branchBus       *branchbus.Core
	subscriptionBus *subscriptionbus.Core
	maxAge          time.Duration
}

func newApp(branchBus *branchbus.Core, subscriptionBus *subscriptionbus.Core, maxAge time.Duration) *app {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	return &app{
		branchBus:       branchBus,
		subscriptionBus: subscriptionBus,
		maxAge:          maxAge,
	}
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	site := web.Param(r, "site")

	s, err := a.branchBus.QuerySite(ctx, site, siteresolver.IsCustomDomain(site))
	if err != nil {
		if errors.Is(err, branchbus.ErrNotFound) {
			return errs.New(errs.NotFound, errSiteNotFound)
		}
		return errs.Errorf(errs.Internal, "querysite: site[%s]: %s", site, err)
	}

	if w := web.GetWriter(ctx); w != nil {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(a.maxAge.Seconds())))
	}

	return envelope.New(toAppSite(s, web.Param(r, "path"), a.subscriptionBus))
}
