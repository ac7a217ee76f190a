// Package testutil connects integration tests to the local Postgres and Redis
// instances, skipping when they are not running.
package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/url"
	"time"

	env "github.com/caarlos0/env/v11"
	// Import pgx driver for database/sql compatibility in tests.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/target/dns-manager-ui/config"
	"github.com/target/dns-manager-ui/internal/migrate"
)

// TestingTB is the subset of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Skipf(format string, args ...any)
	Fatalf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

// Infra describes where the test Postgres and Redis live. The defaults match
// the docker-compose test profile.
type Infra struct {
	DBHost     string `env:"TEST_DB_HOST"     envDefault:"localhost"`
	DBPort     int    `env:"TEST_DB_PORT"     envDefault:"55432"`
	DBUser     string `env:"TEST_DB_USER"     envDefault:"dnsmanager"`
	DBPassword string `env:"TEST_DB_PASSWORD" envDefault:"dnsmanager"`
	DBName     string `env:"TEST_DB_NAME"     envDefault:"dnsmanager"`
	DBSSLMode  string `env:"DB_SSL_MODE"      envDefault:"disable"`
	// Ephemeral gives every test its own schema, dropped on cleanup.
	Ephemeral bool `env:"TEST_DB_EPHEMERAL"`

	RedisAddr string `env:"TEST_REDIS_ADDR" envDefault:"localhost:56379"`
	RedisDB   int    `env:"TEST_REDIS_DB"   envDefault:"1"`

	// RequireDB and RequireRedis turn a skip into a failure (CI).
	RequireDB    bool `env:"TEST_REQUIRE_DB"`
	RequireRedis bool `env:"TEST_REQUIRE_REDIS"`
	RequireInfra bool `env:"TEST_REQUIRE_INFRA"`
}

// LoadInfra reads Infra from the environment.
func LoadInfra(t TestingTB) Infra {
	t.Helper()
	var in Infra
	if err := env.Parse(&in); err != nil {
		t.Fatalf("parse test infrastructure env: %v", err)
	}
	return in
}

// DB returns the Postgres settings as the application config type.
func (in Infra) DB() config.DBConfig {
	return config.DBConfig{
		Host:     in.DBHost,
		Port:     in.DBPort,
		User:     in.DBUser,
		Password: in.DBPassword,
		Name:     in.DBName,
		SSLMode:  in.DBSSLMode,
	}
}

func (in Infra) unavailable(t TestingTB, required bool, what string, err error) {
	t.Helper()
	if required || in.RequireInfra {
		t.Fatalf("%s not available: %v", what, err)
	}
	t.Skipf("%s not available: %v", what, err)
}

// SkipIfNoTestDB skips the test if the test database does not answer.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()
	in := LoadInfra(t)
	db, err := sql.Open("pgx", in.DB().DSN())
	if err == nil {
		err = ping(db)
		closeAndLog(t, "probe DB", db)
	}
	if err != nil {
		in.unavailable(t, in.RequireDB, "test database", err)
	}
}

// WithAutoDB runs fn against a migrated database whose users table starts empty.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	SkipIfNoTestDB(t)
	in := LoadInfra(t)

	dsn := in.DB().DSN()
	if in.Ephemeral {
		dsn = ephemeralSchema(t, dsn)
	}
	db := openDB(t, dsn)
	t.Cleanup(func() { closeAndLog(t, "test DB", db) })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := migrate.Run(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	truncateUsers(t, db)
	defer truncateUsers(t, db)
	fn(db)
}

// ephemeralSchema creates a throwaway schema and returns dsn pointed at it.
func ephemeralSchema(t TestingTB, dsn string) string {
	t.Helper()
	admin := openDB(t, dsn)
	schema := schemaName()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		closeAndLog(t, "admin DB", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}
	t.Logf("using ephemeral schema %s", schema)
	// Registered before the test DB's cleanup, so it runs after the pool is closed.
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("warning: drop schema %s: %v", schema, err)
		}
		closeAndLog(t, "admin DB", admin)
	})

	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse DSN: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()
	return u.String()
}

func truncateUsers(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "DELETE FROM users"); err != nil {
		t.Fatalf("clean users table: %v", err)
	}
}

func openDB(t TestingTB, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := ping(db); err != nil {
		closeAndLog(t, "test DB", db)
		t.Fatalf("connect to test database (is docker-compose up?): %v", err)
	}
	return db
}

func ping(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// SetupTestRedis connects to the test Redis and flushes the selected database.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()
	in := LoadInfra(t)
	client := redis.NewClient(&redis.Options{Addr: in.RedisAddr, DB: in.RedisDB})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		in.unavailable(t, in.RequireRedis, "redis at "+in.RedisAddr, err)
		return nil
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Logf("warning: flush redis test db: %v", err)
	}
	t.Cleanup(func() { closeAndLog(t, "redis client", client) })
	return client
}

func schemaName() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "t_" + hex.EncodeToString(b)
}

func closeAndLog(t TestingTB, name string, closer interface{ Close() error }) {
	if err := closer.Close(); err != nil {
		t.Logf("warning: close %s: %v", name, err)
	}
}
