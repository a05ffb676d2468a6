package siteapp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/painel-swim/app/domain/siteapp"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/business/types/phone"
	"github.com/jcpaschoal/painel-swim/business/types/substatus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// siteStore answers site lookups from memory.
type siteStore struct {
	branchbus.Storer
	bySlug   map[string]branchbus.Site
	byDomain map[string]branchbus.Site
}

func (s *siteStore) QuerySite(_ context.Context, identifier string, customDomain bool) (branchbus.Site, error) {
	src := s.bySlug
	if customDomain {
		src = s.byDomain
	}

	site, ok := src[identifier]
	if !ok {
		return branchbus.Site{}, branchbus.ErrNotFound
	}

	return site, nil
}

func newHandler(t *testing.T, now time.Time) http.Handler {
	t.Helper()

	trialEnd := now.Add(48 * time.Hour)

	centro := branchbus.Site{
		BranchID:  uuid.New(),
		Name:      "Unidade Centro",
		Slug:      "centro",
		Telephone: phone.MustParseNull("(11) 98888-7777"),
		Subscription: subscriptionbus.Subscription{
			Status:      substatus.Trial,
			TrialEndsAt: &trialEnd,
		},
	}

	sul := branchbus.Site{
		BranchID:     uuid.New(),
		Name:         "Unidade Sul",
		Slug:         "sul",
		Subscription: subscriptionbus.Subscription{Status: substatus.Suspended},
	}

	store := siteStore{
		bySlug:   map[string]branchbus.Site{"centro": centro, "sul": sul},
		byDomain: map[string]branchbus.Site{"natacaocentro.com.br": centro},
	}

	log := logger.Discard()
	subBus := subscriptionbus.NewCore(log, nil, nil).WithClock(func() time.Time { return now })

	app := web.NewApp(log.Info, noop.NewTracerProvider().Tracer(""))
	siteapp.Routes(app, siteapp.Config{
		BranchBus:       branchbus.NewCore(log, &store),
		SubscriptionBus: subBus,
	})

	return app
}

type siteBody struct {
	Data struct {
		Site struct {
			Name      string `json:"name"`
			Slug      string `json:"slug"`
			Telephone string `json:"telephone"`
			Dial      string `json:"dial"`
			Path      string `json:"path"`
			HasAccess bool   `json:"hasAccess"`
			Status    struct {
				Category string `json:"category"`
			} `json:"status"`
		} `json:"site"`
	} `json:"data"`
	Error string `json:"error"`
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, siteBody) {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body siteBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return w, body
}

func TestSiteBySlug(t *testing.T) {
	h := newHandler(t, time.Now())

	w, body := get(t, h, "/_sites/centro/aulas")
	require.Equal(t, http.StatusOK, w.Code)

	site := body.Data.Site
	assert.Equal(t, "Unidade Centro", site.Name)
	assert.Equal(t, "/aulas", site.Path)
	assert.Equal(t, "11988887777", site.Dial)
	assert.True(t, site.HasAccess)
	assert.Equal(t, subscriptionbus.CategoryTrial, site.Status.Category)
	assert.Equal(t, "public, max-age=10", w.Header().Get("Cache-Control"))
}

func TestSiteByCustomDomain(t *testing.T) {
	h := newHandler(t, time.Now())

	w, body := get(t, h, "/_sites/natacaocentro.com.br")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "centro", body.Data.Site.Slug)
	assert.Equal(t, "/", body.Data.Site.Path)
}

func TestSiteBlocked(t *testing.T) {
	h := newHandler(t, time.Now())

	w, body := get(t, h, "/_sites/sul")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, body.Data.Site.HasAccess)
	assert.Equal(t, subscriptionbus.CategoryBlocked, body.Data.Site.Status.Category)
}

func TestSiteNotFound(t *testing.T) {
	h := newHandler(t, time.Now())

	w, body := get(t, h, "/_sites/desconhecida")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Academia não encontrada", body.Error)

	w, _ = get(t, h, "/_sites/centro.example.org")
	assert.Equal(t, http.StatusNotFound, w.Code, "unverified custom domain")
}
