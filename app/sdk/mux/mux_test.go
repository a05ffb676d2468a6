package mux_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/envelope"
	"github.com/jcpaschoal/painel-swim/app/sdk/mux"
	"github.com/jcpaschoal/painel-swim/app/sdk/siteresolver"
	"github.com/jcpaschoal/painel-swim/business/sdk/web"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type echo struct {
	Site string `json:"site"`
	Path string `json:"path"`
}

type routes struct{}

func (routes) Add(app *web.App, cfg mux.Config) {
	app.HandlerFunc(http.MethodGet, "v1", "/ping", func(ctx context.Context, r *http.Request) web.Encoder {
		return envelope.New(echo{})
	})

	app.HandlerFunc(http.MethodGet, "_sites", "/{site}/{path...}", func(ctx context.Context, r *http.Request) web.Encoder {
		return envelope.New(echo{Site: web.Param(r, "site"), Path: web.Param(r, "path")})
	})
}

func newAPI(options ...func(opts *mux.Options)) http.Handler {
	cfg := mux.Config{
		Log:    logger.Discard(),
		Tracer: noop.NewTracerProvider().Tracer(""),
	}

	return mux.WebAPI(cfg, routes{}, options...)
}

func get(t *testing.T, h http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))

	return w
}

func TestRateLimit(t *testing.T) {
	h := newAPI(mux.WithRateLimit(2, time.Minute))

	for range 2 {
		assert.Equal(t, http.StatusOK, get(t, h, "http://painel.com.br/v1/ping").Code)
	}

	w := get(t, h, "http://painel.com.br/v1/ping")
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "Muitas requisições. Tente novamente em instantes.", body.Error)
}

func TestSiteResolverRewritesTenants(t *testing.T) {
	resolver := siteresolver.New(logger.Discard(), siteresolver.Config{
		MainHost:  "painel.com.br",
		APIPrefix: "/v1/",
	})

	h := newAPI(mux.WithSiteResolver(resolver))

	w := get(t, h, "http://centro.painel.com.br/aulas")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data echo `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, echo{Site: "centro", Path: "aulas"}, body.Data)

	assert.Equal(t, http.StatusOK, get(t, h, "http://painel.com.br/v1/ping").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "http://painel.com.br/_sites/centro/aulas").Code)
}
