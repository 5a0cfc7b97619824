package db

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/config"
	"github.com/sksmith/go-commerce/core"
)

const (
	migrationsSource = "file:db/migrations"

	maxConnLifetime   = time.Hour
	maxConnIdleTime   = 30 * time.Minute
	healthCheckPeriod = time.Minute
)

// ConnectDb runs pending migrations when configured to and opens the pgx pool. It
// keeps retrying the connection until ctx is cancelled.
func ConnectDb(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	dbc := cfg.Db
	log.Info().
		Str("host", dbc.Host.Value).
		Str("name", dbc.Name.Value).
		Msg("connecting to the database")

	if dbc.Migrate.Value {
		if err := RunMigrations(migrationsSource, migrationUrl(dbc), dbc.Clean.Value); err != nil {
			log.Warn().Err(err).Msg("error executing migrations")
		}
	}

	poolConfig, err := pgxpool.ParseConfig(fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		dbc.Host.Value, dbc.Port.Value, dbc.User.Value, dbc.Pass.Value, dbc.Name.Value))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	poolConfig.MinConns = int32(dbc.Pool.MinSize.Value)
	poolConfig.MaxConns = int32(dbc.Pool.MaxSize.Value)
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.Logger = logger{}

	for {
		pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
		if err == nil {
			return pool, nil
		}
		log.Error().Err(err).Msg("failed to create connection pool, retrying")
		select {
		case <-ctx.Done():
			return nil, errors.WithStack(ctx.Err())
		case <-time.After(time.Second):
		}
	}
}

func migrationUrl(dbc config.DbConfig) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbc.User.Value, dbc.Pass.Value, dbc.Host.Value, dbc.Port.Value, dbc.Name.Value)
}

type logger struct {
}

func (l logger) Log(ctx context.Context, level pgx.LogLevel, msg string, data map[string]interface{}) {
	evt := log.WithLevel(pgxLevels[level])
	for k, v := range data {
		evt.Interface(k, v)
	}
	evt.Str("source", "pgx").Msg(msg)
}

var pgxLevels = map[pgx.LogLevel]zerolog.Level{
	pgx.LogLevelTrace: zerolog.TraceLevel,
	pgx.LogLevelDebug: zerolog.DebugLevel,
	pgx.LogLevelInfo:  zerolog.InfoLevel,
	pgx.LogLevelWarn:  zerolog.WarnLevel,
	pgx.LogLevelError: zerolog.ErrorLevel,
	pgx.LogLevelNone:  zerolog.NoLevel,
}

// RunMigrations applies every pending migration from source. With clean set the
// schema is torn down first.
func RunMigrations(source, dbUrl string, clean bool) error {
	m, err := migrate.New(source, dbUrl)
	if err != nil {
		return errors.WithStack(err)
	}
	defer m.Close()

	if clean {
		log.Warn().Msg("dropping schema before migrating")
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return errors.WithStack(err)
		}
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Msg("schema is up to date")
	case err != nil:
		return errors.WithStack(err)
	default:
		log.Info().Msg("migrations applied")
	}
	return nil
}

// GetQueryOptions picks the connection a query should run on. A transaction in the
// options wins over the repository's pool.
func GetQueryOptions(cn core.Conn, options ...core.QueryOptions) (conn core.Conn, forUpdate string) {
	conn = cn
	forUpdate = ""
	if len(options) > 0 {
		if tx, ok := options[0].Tx.(core.Conn); ok {
			conn = tx
		}

		if options[0].ForUpdate {
			forUpdate = "FOR UPDATE"
		}
	}

	return conn, forUpdate
}

func GetUpdateOptions(cn core.Conn, options ...core.UpdateOptions) (conn core.Conn) {
	conn = cn
	if len(options) > 0 {
		if tx, ok := options[0].Tx.(core.Conn); ok {
			conn = tx
		}
	}

	return conn
}

// Begin starts a transaction on the pool. Repositories sharing a pool can join each
// other's transactions.
func Begin(ctx context.Context, conn core.Conn) (core.Transaction, error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return tx, nil
}

// uniqueViolation is the postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, core.ErrNotFound)
}
