// This program performs administrative tasks for the panel service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/jcpaschoal/painel-swim/app/sdk/auth"
	"github.com/jcpaschoal/painel-swim/app/sdk/sweep"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus"
	"github.com/jcpaschoal/painel-swim/business/domain/branchbus/stores/branchdb"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus"
	"github.com/jcpaschoal/painel-swim/business/domain/memberbus/stores/memberdb"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus/stores/subscriptiondb"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus"
	"github.com/jcpaschoal/painel-swim/business/domain/userbus/stores/userdb"
	"github.com/jcpaschoal/painel-swim/business/sdk/migrate"
	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jcpaschoal/painel-swim/business/types/role"
	"github.com/jcpaschoal/painel-swim/foundation/keystore"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config replicates the parts of the service configuration the tool needs.
type Config struct {
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"painel"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Auth struct {
		KeysFolder string `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys/"`
		ActiveKID  string `envconfig:"AUTH_ACTIVE_KID" default:"54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"`
		Issuer     string `envconfig:"AUTH_ISSUER" default:"painel-swim"`
	}
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}
}

const usage = `Usage: admin <command> [args]

Commands:
  migrate [up|down|status|redo|reset]
  seed
  create-user -email -password -name [-role]
  gen-token -email
  sweep`

func main() {
	log := logger.New(os.Stdout, logger.LevelInfo, "ADMIN-TOOL", nil)
	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "admin", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		return nil
	}

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

	userBus := userbus.NewCore(userdb.NewStore(log, db))

	switch os.Args[1] {
	case "migrate":
		return runMigrate(ctx, db, os.Args[2:])
	case "seed":
		return runSeed(ctx, log, db, userBus)
	case "create-user":
		return runCreateUser(ctx, userBus, os.Args[2:])
	case "gen-token":
		return runGenToken(ctx, log, cfg, userBus, os.Args[2:])
	case "sweep":
		return runSweep(ctx, log, cfg, db)
	default:
		fmt.Println(usage)
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

func runMigrate(ctx context.Context, db *sqlx.DB, args []string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	if len(args) == 0 || args[0] == "up" {
		if err := migrate.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Println("migrations complete")
		return nil
	}

	return migrate.Run(ctx, db, args[0], args[1:]...)
}

// runSeed creates a platform admin and a demo branch on trial.
func runSeed(ctx context.Context, log *logger.Logger, db *sqlx.DB, userBus *userbus.Core) error {
	admin, err := userBus.Create(ctx, userbus.NewUser{
		Name:     "Administrador",
		Email:    mail.Address{Address: "admin@painelswim.com.br"},
		Role:     role.Admin,
		Password: "admin123",
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	tx, err := sqldb.NewBeginner(db).Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	branchBus, err := branchbus.NewCore(log, branchdb.NewStore(log, db)).NewWithTx(tx)
	if err != nil {
		return err
	}

	memberBus, err := memberbus.NewCore(log, userBus, memberdb.NewStore(log, db)).NewWithTx(tx)
	if err != nil {
		return err
	}

	b, err := branchBus.Create(ctx, branchbus.NewBranch{
		Name:      "Academia Demonstração",
		CreatorID: admin.ID,
	})
	if err != nil {
		return fmt.Errorf("create branch: %w", err)
	}

	if _, err := memberBus.AddOwner(ctx, b.ID, admin.Email.Address); err != nil {
		return fmt.Errorf("add owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	fmt.Printf("seed complete\nadmin: %s\nbranch: %s (%s)\n", admin.Email.Address, b.Name, b.Slug)
	return nil
}

func runCreateUser(ctx context.Context, ub *userbus.Core, args []string) error {
	cmd := flag.NewFlagSet("create-user", flag.ExitOnError)
	emailStr := cmd.String("email", "", "User email (Required)")
	passStr := cmd.String("password", "", "User password (Required)")
	nameStr := cmd.String("name", "", "User full name (Required)")
	roleStr := cmd.String("role", "USER", "User role (ADMIN, USER)")
	cmd.Parse(args)

	if *emailStr == "" || *passStr == "" || *nameStr == "" {
		cmd.PrintDefaults()
		return errors.New("missing required fields")
	}

	addr, err := mail.ParseAddress(*emailStr)
	if err != nil {
		return fmt.Errorf("invalid email: %w", err)
	}

	r, err := role.Parse(strings.ToUpper(*roleStr))
	if err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}

	usr, err := ub.Create(ctx, userbus.NewUser{
		Name:     *nameStr,
		Email:    mail.Address{Address: strings.ToLower(addr.Address)},
		Role:     r,
		Password: *passStr,
	})
	if err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}

	fmt.Printf("\nSUCCESS: User created!\nID: %s\nEmail: %s\nRole: %s\n", usr.ID, usr.Email.Address, usr.Role)
	return nil
}

func runGenToken(ctx context.Context, log *logger.Logger, cfg Config, ub *userbus.Core, args []string) error {
	cmd := flag.NewFlagSet("gen-token", flag.ExitOnError)
	emailStr := cmd.String("email", "", "User email (Required)")
	cmd.Parse(args)

	if *emailStr == "" {
		cmd.PrintDefaults()
		return errors.New("missing email")
	}

	ks := keystore.New()
	if _, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder)); err != nil {
		return fmt.Errorf("loading keys: %w", err)
	}

	a, err := auth.New(auth.Config{
		Log:       log,
		UserBus:   ub,
		KeyLookup: ks,
		Issuer:    cfg.Auth.Issuer,
		ActiveKID: cfg.Auth.ActiveKID,
	})
	if err != nil {
		return fmt.Errorf("constructing auth: %w", err)
	}

	usr, err := ub.QueryByEmail(ctx, mail.Address{Address: strings.ToLower(*emailStr)})
	if err != nil {
		return fmt.Errorf("query user: %w", err)
	}

	token, err := a.GenerateToken(usr)
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	fmt.Printf("-----BEGIN TOKEN-----\n%s\n-----END TOKEN-----\n", token)
	return nil
}

// runSweep performs one sweep, honouring the shared lock when Redis is set.
func runSweep(ctx context.Context, log *logger.Logger, cfg Config, db *sqlx.DB) error {
	var locker sweep.Locker

	if cfg.Redis.Addr != "" {
		client, err := sweep.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer client.Close()

		locker = sweep.NewRedisLock(client)
	}

	subscriptionBus := subscriptionbus.NewCore(log, subscriptiondb.NewStore(log, db), nil)

	s, err := sweep.New(log, subscriptionBus, locker, sweep.Config{Spec: "@hourly"})
	if err != nil {
		return err
	}

	res, ran, err := s.Run(ctx)
	if err != nil {
		return err
	}

	if !ran {
		fmt.Println("sweep skipped: lock held by another instance")
		return nil
	}

	fmt.Printf("sweep complete\nsuspended: %d\npast due: %d\n", res.Suspended, res.PastDue)
	return nil
}
