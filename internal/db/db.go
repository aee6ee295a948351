package db

import (
	"context"
	"database/sql"
	"embed"
	"io"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers itself as "sqlite"; sqlx only knows "sqlite3" by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the store and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, errors.New("database url is required")
	}
	if driver == "" {
		driver = DriverPostgres
	}

	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		// one connection: ":memory:" databases are per connection and
		// sqlite serialises writers anyway
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(10)
		conn.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "ping %s", driver)
	}

	if err := Migrate(ctx, conn.DB, driver, "up"); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

// Migrate runs a goose command ("up", "down", "status") over the embedded migrations.
func Migrate(ctx context.Context, db *sql.DB, driver, command string) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(log.New(io.Discard, "", 0))
	if command == "status" {
		goose.SetLogger(log.Default())
	}
	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		return errors.Wrap(err, "goose dialect")
	}

	var err error
	switch command {
	case "up":
		err = goose.UpContext(ctx, db, "migrations")
	case "down":
		err = goose.DownContext(ctx, db, "migrations")
	case "status":
		err = goose.StatusContext(ctx, db, "migrations")
	default:
		return errors.Errorf("unknown migrate command %q", command)
	}
	return errors.Wrapf(err, "migrate %s", command)
}

func gooseDialect(driver string) string {
	if driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}
