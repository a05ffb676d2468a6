package siteresolver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jcpaschoal/painel-swim/app/sdk/siteresolver"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
)

func newResolver() *siteresolver.Resolver {
	return siteresolver.New(logger.Discard(), siteresolver.Config{
		MainHost:           "painelswim.com.br",
		PlatformHosts:      []string{"localhost:3000"},
		PlatformSuffixes:   []string{"vercel.app"},
		ReservedSubdomains: []string{"app", "www"},
		SitesPrefix:        "/_sites",
		APIPrefix:          "/v1",
	})
}

func TestResolve(t *testing.T) {
	r := newResolver()

	tests := []struct {
		name string
		host string
		path string
		kind siteresolver.Kind
		site string
		dest string
	}{
		{"main host", "painelswim.com.br", "/dashboard", siteresolver.KindFirstParty, "", "/dashboard"},
		{"main host with port", "painelswim.com.br:443", "/", siteresolver.KindFirstParty, "", "/"},
		{"platform host", "localhost:3000", "/", siteresolver.KindFirstParty, "", "/"},
		{"platform suffix", "painel-git-main.vercel.app", "/", siteresolver.KindFirstParty, "", "/"},
		{"reserved subdomain", "app.painelswim.com.br", "/login", siteresolver.KindFirstParty, "", "/login"},
		{"reserved is case insensitive", "WWW.painelswim.com.br", "/", siteresolver.KindFirstParty, "", "/"},
		{"slug subdomain", "academia-azul.painelswim.com.br", "/", siteresolver.KindTenant, "academia-azul", "/_sites/academia-azul/"},
		{"slug with path", "academia-azul.painelswim.com.br", "/horarios", siteresolver.KindTenant, "academia-azul", "/_sites/academia-azul/horarios"},
		{"custom domain", "www.natacaoazul.com.br", "/", siteresolver.KindTenant, "www.natacaoazul.com.br", "/_sites/www.natacaoazul.com.br/"},
		{"custom domain drops port", "natacaoazul.com.br:8080", "/", siteresolver.KindTenant, "natacaoazul.com.br", "/_sites/natacaoazul.com.br/"},
		{"static asset", "academia-azul.painelswim.com.br", "/logo.png", siteresolver.KindPassThrough, "", "/logo.png"},
		{"api", "academia-azul.painelswim.com.br", "/v1/branches", siteresolver.KindPassThrough, "", "/v1/branches"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Resolve(tt.host, tt.path)

			assert.Equal(t, tt.kind, d.Kind, d.Kind.String())
			assert.Equal(t, tt.site, d.Site)
			assert.Equal(t, tt.dest, d.Path)
		})
	}
}

func TestResolveRejects(t *testing.T) {
	r := newResolver()

	d := r.Resolve("", "/")
	assert.Equal(t, siteresolver.KindRejected, d.Kind)
	assert.Equal(t, http.StatusBadRequest, d.Status)

	d = r.Resolve("academia-azul.painelswim.com.br", "/_sites/outra")
	assert.Equal(t, siteresolver.KindRejected, d.Kind)
	assert.Equal(t, http.StatusNotFound, d.Status)

	d = r.Resolve("painelswim.com.br", "/_sites")
	assert.Equal(t, http.StatusNotFound, d.Status)
}

func TestRootDomainWithPort(t *testing.T) {
	r := siteresolver.New(logger.Discard(), siteresolver.Config{
		MainHost: "localhost:3000",
	})

	d := r.Resolve("academia.localhost:3000", "/")
	assert.Equal(t, siteresolver.KindTenant, d.Kind)
	assert.Equal(t, "academia", d.Site)

	d = r.Resolve("localhost:3000", "/")
	assert.Equal(t, siteresolver.KindFirstParty, d.Kind)
}

func TestHandlerRewrites(t *testing.T) {
	r := newResolver()

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seen = req.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	h := r.Handler(next)

	req := httptest.NewRequest(http.MethodGet, "/sobre", nil)
	req.Host = "academia-azul.painelswim.com.br"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/_sites/academia-azul/sobre", seen)

	seen = ""
	req = httptest.NewRequest(http.MethodGet, "/_sites/academia-azul", nil)
	req.Host = "painelswim.com.br"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, seen)
	assert.JSONEq(t, `{"error":"not found"}`, w.Body.String())
}

func TestIsCustomDomain(t *testing.T) {
	assert.False(t, siteresolver.IsCustomDomain("academia-azul"))
	assert.True(t, siteresolver.IsCustomDomain("natacaoazul.com.br"))
}
