// Package mux provides support to bind domain level routes
// to the application mux.
package mux

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/app/sdk/mid"
	"github.com/jcpaschoal/painel-swim/app/sdk/siteresolver"
	"github.com/jcpaschoal/painel-swim/app/sdk/sweep"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus/stores/branchcache"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/trace"
)

// Options represent optional parameters.
type Options struct {
	corsOrigin []string
	rateLimit  int
	rateWindow time.Duration
	resolver   *siteresolver.Resolver
}

// WithCORS provides configuration options for CORS.
func WithCORS(origins []string) func(opts *Options) {
	return func(opts *Options) {
		opts.corsOrigin = origins
	}
}

// WithRateLimit limits each client IP to requests per window.
func WithRateLimit(requests int, window time.Duration) func(opts *Options) {
	return func(opts *Options) {
		opts.rateLimit = requests
		opts.rateWindow = window
	}
}

// WithSiteResolver rewrites tenant hostnames onto the site route before
// routing.
func WithSiteResolver(r *siteresolver.Resolver) func(opts *Options) {
	return func(opts *Options) {
		opts.resolver = r
	}
}

// AuthConfig contains auth service specific config.
type AuthConfig struct {
	Auth *auth.Auth
}

// SiteConfig contains what the site handlers need. Cache is shared with the
// sweep so subscription changes reach it.
type SiteConfig struct {
	Cache  *branchcache.Store
	MaxAge time.Duration
}

// SweepConfig contains the scheduler that runs sweeps on demand.
type SweepConfig struct {
	Scheduler *sweep.Scheduler
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build       string
	Log         *logger.Logger
	DB          *sqlx.DB
	Tracer      trace.Tracer
	AuthConfig  AuthConfig
	SiteConfig  SiteConfig
	SweepConfig SweepConfig
}

// RouteAdder defines behavior that sets the routes to bind for an instance
// of the service.
type RouteAdder interface {
	Add(app *web.App, cfg Config)
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config, routeAdder RouteAdder, options ...func(opts *Options)) http.Handler {
	app := web.NewApp(
		cfg.Log.Info,
		cfg.Tracer,
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	var opts Options
	for _, option := range options {
		option(&opts)
	}

	if len(opts.corsOrigin) > 0 {
		app.EnableCORS(opts.corsOrigin)
	}

	routeAdder.Add(app, cfg)

	var h http.Handler = app

	if opts.rateLimit > 0 {
		limited := func(w http.ResponseWriter, r *http.Request) {
			resp := errs.New(errs.ResourceExhausted, errors.New("Muitas requisições. Tente novamente em instantes."))
			if err := web.Respond(r.Context(), w, resp); err != nil {
				cfg.Log.Error(r.Context(), "ratelimit: respond", "err", err)
			}
		}

		h = httprate.Limit(
			opts.rateLimit,
			opts.rateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(limited),
		)(h)
	}

	if opts.resolver != nil {
		h = opts.resolver.Handler(h)
	}

	return h
}
