package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jcpaschoal/painel-swim/api/cmd/build/all"
	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/debug"
	"github.com/jcpaschoal/painel-swim/app/sdk/metrics"
	"github.com/jcpaschoal/painel-swim/app/sdk/mux"
	"github.com/jcpaschoal/painel-swim/app/sdk/siteresolver"
	"github.com/jcpaschoal/painel-swim/app/sdk/sweep"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus/stores/branchcache"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus/stores/branchdb"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus/stores/subscriptiondb"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus/stores/usercache"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/foundation/keystore"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jcpaschoal/painel-swim/foundation/otel"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var build = "develop"

type Config struct {
	Version struct {
		Build string `json:"build"`
		Desc  string `json:"desc"`
	} `json:"version"`

	Web struct {
		ReadTimeout        time.Duration `envconfig:"WEB_READ_TIMEOUT" default:"5s"`
		WriteTimeout       time.Duration `envconfig:"WEB_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout        time.Duration `envconfig:"WEB_IDLE_TIMEOUT" default:"120s"`
		ShutdownTimeout    time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"20s"`
		APIHost            string        `envconfig:"WEB_API_HOST" default:"0.0.0.0:3000"`
		DebugHost          string        `envconfig:"WEB_DEBUG_HOST" default:"0.0.0.0:3010"`
		CORSAllowedOrigins []string      `envconfig:"WEB_CORS_ALLOWED_ORIGINS" default:"*"`
		RateLimit          int           `envconfig:"WEB_RATE_LIMIT" default:"100"`
		RateWindow         time.Duration `envconfig:"WEB_RATE_WINDOW" default:"1m"`
	}
	Auth struct {
		KeysFolder string `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
		ActiveKID  string `envconfig:"AUTH_ACTIVE_KID" default:"54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"`
		Issuer     string `envconfig:"AUTH_ISSUER" default:"painel-swim"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres" json:"-"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"painel"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Tempo struct {
		Host        string  `envconfig:"TEMPO_HOST" default:"tempo:4317"`
		ServiceName string  `envconfig:"TEMPO_SERVICE_NAME" default:"PAINEL-SWIM"`
		Probability float64 `envconfig:"TEMPO_PROBABILITY" default:"0.05"`
		Enabled     bool    `envconfig:"TEMPO_ENABLED" default:"false"`
	}
	Sites struct {
		AppURL             string        `envconfig:"APP_URL" default:"http://localhost:3000"`
		RootDomain         string        `envconfig:"SITES_ROOT_DOMAIN"`
		PlatformHosts      []string      `envconfig:"SITES_PLATFORM_HOSTS"`
		PlatformSuffixes   []string      `envconfig:"SITES_PLATFORM_SUFFIXES" default:"vercel.app"`
		ReservedSubdomains []string      `envconfig:"SITES_RESERVED_SUBDOMAINS" default:"app,www,api"`
		CacheTTL           time.Duration `envconfig:"SITES_CACHE_TTL" default:"1m"`
		MaxAge             time.Duration `envconfig:"SITES_MAX_AGE" default:"10s"`
	}
	Sweep struct {
		Enabled bool          `envconfig:"SWEEP_ENABLED" default:"true"`
		Spec    string        `envconfig:"SWEEP_SPEC" default:"@every 1h"`
		LockKey string        `envconfig:"SWEEP_LOCK_KEY" default:"painel:sweep"`
		LockTTL time.Duration `envconfig:"SWEEP_LOCK_TTL" default:"1m"`
		Timeout time.Duration `envconfig:"SWEEP_TIMEOUT" default:"30s"`
	}
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD" json:"-"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}
}

func main() {
	var log *logger.Logger

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "PAINEL-SWIM", otel.GetTraceID, events)

	// -------------------------------------------------------------------------

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config

	cfg.Version.Build = build
	cfg.Version.Desc = "PAINEL-SWIM"

	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	// -------------------------------------------------------------------------
	// App Starting

	log.Info(ctx, "starting service", "version", cfg.Version.Build)
	defer log.Info(ctx, "shutdown complete")

	log.Info(ctx, "startup", "config", sanitizeConfig(cfg))

	log.BuildInfo(ctx)

	expvar.NewString("build").Set(cfg.Version.Build)

	// -------------------------------------------------------------------------
	// Database Support

	log.Info(ctx, "startup", "status", "initializing database support", "hostport", cfg.DB.Host)

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}

	defer db.Close()

	// -------------------------------------------------------------------------
	// Auth Support

	log.Info(ctx, "startup", "status", "initializing authentication support")

	ks := keystore.New()

	n, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder))
	if err != nil {
		return fmt.Errorf("loading keys: %w", err)
	}

	if n == 0 {
		return errors.New("no keys exist")
	}

	userBus := userbus.NewCore(usercache.NewStore(log, userdb.NewStore(log, db), 5*time.Minute))

	authClient, err := auth.New(auth.Config{
		Log:       log,
		UserBus:   userBus,
		KeyLookup: ks,
		Issuer:    cfg.Auth.Issuer,
		ActiveKID: cfg.Auth.ActiveKID,
	})
	if err != nil {
		return fmt.Errorf("constructing auth: %w", err)
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
		Probability: cfg.Tempo.Probability,
		Enabled:     cfg.Tempo.Enabled,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer teardown(context.Background())

	tracer := traceProvider.Tracer(cfg.Tempo.ServiceName)

	// -------------------------------------------------------------------------
	// Subscription Sweep

	log.Info(ctx, "startup", "status", "initializing subscription sweep")

	var locker sweep.Locker

	if cfg.Redis.Addr != "" {
		client, err := sweep.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}

		defer func(client *redis.Client) {
			client.Close()
		}(client)

		locker = sweep.NewRedisLock(client)
	}

	siteCache := branchcache.NewStore(log, branchdb.NewStore(log, db), cfg.Sites.CacheTTL)

	subscriptionBus := subscriptionbus.NewCore(log, subscriptiondb.NewStore(log, db), metrics.Subscriptions{}, siteCache)

	scheduler, err := sweep.New(log, subscriptionBus, locker, sweep.Config{
		Spec:    cfg.Sweep.Spec,
		LockKey: cfg.Sweep.LockKey,
		LockTTL: cfg.Sweep.LockTTL,
		Timeout: cfg.Sweep.Timeout,
	})
	if err != nil {
		return fmt.Errorf("constructing sweep: %w", err)
	}

	if cfg.Sweep.Enabled {
		scheduler.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Sweep.Timeout)
			defer cancel()
			scheduler.Stop(ctx)
		}()
	}

	// -------------------------------------------------------------------------
	// Start Debug Service

	go func() {
		log.Info(ctx, "startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

		if err := http.ListenAndServe(cfg.Web.DebugHost, debug.Mux()); err != nil {
			log.Error(ctx, "shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "msg", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing V1 API support")

	mainHost, err := hostOf(cfg.Sites.AppURL)
	if err != nil {
		return fmt.Errorf("parsing app url: %w", err)
	}

	resolver := siteresolver.New(log, siteresolver.Config{
		MainHost:           mainHost,
		RootDomain:         cfg.Sites.RootDomain,
		PlatformHosts:      cfg.Sites.PlatformHosts,
		PlatformSuffixes:   cfg.Sites.PlatformSuffixes,
		ReservedSubdomains: cfg.Sites.ReservedSubdomains,
		APIPrefix:          "/v1/",
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	cfgMux := mux.Config{
		Build:  cfg.Version.Build,
		Log:    log,
		DB:     db,
		Tracer: tracer,
		AuthConfig: mux.AuthConfig{
			Auth: authClient,
		},
		SiteConfig: mux.SiteConfig{
			Cache:  siteCache,
			MaxAge: cfg.Sites.MaxAge,
		},
		SweepConfig: mux.SweepConfig{
			Scheduler: scheduler,
		},
	}

	webAPI := mux.WebAPI(cfgMux,
		all.Routes(),
		mux.WithCORS(cfg.Web.CORSAllowedOrigins),
		mux.WithRateLimit(cfg.Web.RateLimit, cfg.Web.RateWindow),
		mux.WithSiteResolver(resolver),
	)

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      webAPI,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// hostOf returns the host, with any port, of the public app URL.
func hostOf(appURL string) (string, error) {
	u, err := url.Parse(appURL)
	if err != nil {
		return "", err
	}

	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", appURL)
	}

	return u.Host, nil
}

func sanitizeConfig(cfg Config) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg.Version)
	}
	return string(data)
}
