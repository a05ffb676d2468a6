// Package siteresolver classifies inbound requests by hostname and rewrites
// tenant traffic onto the internal site route. It never touches the store; the
// site handler decides whether the identifier exists.
package siteresolver

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/jcpaschoal/painel-swim/app/sdk/errs"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
)

// Kind is the classification of a request.
type Kind int

// The set of classifications.
const (
	KindPassThrough Kind = iota + 1
	KindFirstParty
	KindTenant
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindPassThrough:
		return "pass-through"
	case KindFirstParty:
		return "first-party"
	case KindTenant:
		return "tenant"
	case KindRejected:
		return "rejected"
	}
	return "unknown"
}

// Config holds the hosts the resolver treats as first party.
type Config struct {
	MainHost           string
	RootDomain         string
	PlatformHosts      []string
	PlatformSuffixes   []string
	ReservedSubdomains []string
	SitesPrefix        string
	APIPrefix          string
}

// Decision is the outcome of resolving one request.
type Decision struct {
	Kind   Kind
	Site   string
	Path   string
	Status int
}

// Resolver applies the hostname rules.
type Resolver struct {
	log                *logger.Logger
	mainHost           string
	rootDomain         string
	platformHosts      map[string]struct{}
	platformSuffixes   []string
	reservedSubdomains map[string]struct{}
	sitesPrefix        string
	apiPrefix          string
}

// New constructs a resolver. RootDomain falls back to MainHost.
func New(log *logger.Logger, cfg Config) *Resolver {
	r := Resolver{
		log:                log,
		mainHost:           strings.ToLower(cfg.MainHost),
		rootDomain:         strings.ToLower(cfg.RootDomain),
		platformHosts:      make(map[string]struct{}),
		reservedSubdomains: make(map[string]struct{}),
		sitesPrefix:        cfg.SitesPrefix,
		apiPrefix:          cfg.APIPrefix,
	}

	if r.rootDomain == "" {
		r.rootDomain = r.mainHost
	}

	if r.sitesPrefix == "" {
		r.sitesPrefix = "/_sites"
	}

	for _, h := range cfg.PlatformHosts {
		r.platformHosts[strings.ToLower(h)] = struct{}{}
	}

	for _, s := range cfg.PlatformSuffixes {
		r.platformSuffixes = append(r.platformSuffixes, strings.TrimPrefix(strings.ToLower(s), "."))
	}

	for _, s := range cfg.ReservedSubdomains {
		r.reservedSubdomains[strings.ToLower(s)] = struct{}{}
	}

	return &r
}

// Resolve classifies a request from its Host header and path.
func (r *Resolver) Resolve(host string, path string) Decision {
	host = strings.ToLower(strings.TrimSpace(host))

	switch {
	case host == "":
		return Decision{Kind: KindRejected, Status: http.StatusBadRequest}

	case hasPrefix(path, r.sitesPrefix):
		return Decision{Kind: KindRejected, Status: http.StatusNotFound}

	case strings.Contains(path, "."), r.apiPrefix != "" && hasPrefix(path, r.apiPrefix):
		return Decision{Kind: KindPassThrough, Path: path}

	case r.firstParty(host):
		return Decision{Kind: KindFirstParty, Path: path}
	}

	site := r.site(host)

	return Decision{
		Kind: KindTenant,
		Site: site,
		Path: r.sitesPrefix + "/" + site + path,
	}
}

// Handler wraps next, rewriting tenant requests onto the sites route.
func (r *Resolver) Handler(next http.Handler) http.Handler {
	h := func(w http.ResponseWriter, req *http.Request) {
		d := r.Resolve(req.Host, req.URL.Path)

		switch d.Kind {
		case KindRejected:
			ctx := req.Context()

			var resp *errs.Error
			switch d.Status {
			case http.StatusBadRequest:
				resp = errs.New(errs.InvalidArgument, errors.New("missing host header"))
			default:
				resp = errs.New(errs.NotFound, errors.New("not found"))
			}

			if err := web.Respond(ctx, w, resp); err != nil {
				r.log.Error(ctx, "siteresolver: respond", "err", err)
			}
			return

		case KindTenant:
			r.log.Debug(req.Context(), "siteresolver: rewrite", "host", req.Host, "path", req.URL.Path, "site", d.Site)

			req2 := req.Clone(req.Context())
			req2.URL.Path = d.Path
			req2.URL.RawPath = ""
			req = req2
		}

		next.ServeHTTP(w, req)
	}

	return http.HandlerFunc(h)
}

// IsCustomDomain reports whether a site identifier is a full hostname rather
// than a slug. Slugs never contain a dot.
func IsCustomDomain(site string) bool {
	return strings.Contains(site, ".")
}

// Hostname returns the host without its port.
func Hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// =============================================================================

func (r *Resolver) firstParty(host string) bool {
	if r.sameHost(host, r.mainHost) {
		return true
	}

	for h := range r.platformHosts {
		if r.sameHost(host, h) {
			return true
		}
	}

	name := Hostname(host)
	for _, s := range r.platformSuffixes {
		if name == s || strings.HasSuffix(name, "."+s) {
			return true
		}
	}

	// Reserved labels are checked before any subdomain is stripped.
	if label, ok := r.subdomain(host); ok {
		if _, reserved := r.reservedSubdomains[label]; reserved {
			return true
		}
	}

	return false
}

// site returns the slug for a first-party subdomain or the full hostname for
// a custom domain.
func (r *Resolver) site(host string) string {
	if label, ok := r.subdomain(host); ok {
		return label
	}

	return Hostname(host)
}

// subdomain strips the root domain from host. Ports are compared only when
// the root domain carries one.
func (r *Resolver) subdomain(host string) (string, bool) {
	if r.rootDomain == "" {
		return "", false
	}

	h := host
	if !hasPort(r.rootDomain) {
		h = Hostname(host)
	}

	label, found := strings.CutSuffix(h, "."+r.rootDomain)
	if !found || label == "" {
		return "", false
	}

	return label, true
}

func (r *Resolver) sameHost(host string, configured string) bool {
	if configured == "" {
		return false
	}

	if hasPort(configured) {
		return host == configured
	}

	return Hostname(host) == configured
}

func hasPort(host string) bool {
	_, _, err := net.SplitHostPort(host)
	return err == nil
}

func hasPrefix(path string, prefix string) bool {
	if prefix == "" {
		return false
	}

	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
