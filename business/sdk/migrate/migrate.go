// Package migrate contains the database schema, migrations and the helpers
// that apply them.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jcpaschoal/painel-swim/business/sdk/sqldb"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

const dir = "sql"

//go:embed sql/*.sql
var migrations embed.FS

// ErrUnknownCommand is returned by Run for commands goose does not support.
var ErrUnknownCommand = errors.New("unknown migrate command")

func setup() error {
	goose.SetBaseFS(migrations)
	goose.SetTableName("goose_db_version")

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	return nil
}

// Migrate attempts to bring the database up to date with the migrations
// defined in this package.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	if err := setup(); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	return nil
}

// Run executes an arbitrary goose command such as status, down or redo.
func Run(ctx context.Context, db *sqlx.DB, command string, args ...string) error {
	switch command {
	case "up", "down", "status", "version", "redo", "reset", "up-to", "down-to":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	if err := setup(); err != nil {
		return err
	}

	if err := goose.RunContext(ctx, command, db.DB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	return nil
}
