package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"streakwatch/config"
	"streakwatch/pkg/storage/postgres"
)

// testConfig points at a local server. Tests needing a live database are skipped
// unless POSTGRES_TEST_HOST is set.
func testConfig(t *testing.T) config.PostgresConfig {
	t.Helper()
	host := os.Getenv("POSTGRES_TEST_HOST")
	if host == "" {
		t.Skip("POSTGRES_TEST_HOST not set")
	}
	password := os.Getenv("POSTGRES_TEST_PASSWORD")
	return config.PostgresConfig{
		Host:     host,
		Port:     5432,
		User:     "postgres",
		Password: password,
		DBName:   "streakwatch_test",
		SSLMode:  "disable",
		TimeZone: "UTC",
		CreateDB: true,

		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	}
}

// go test -v --run ^TestPostgresInvalidDSN$
func TestPostgresInvalidDSN(t *testing.T) {
	invalidDSN := "host=invalid.invalid port=5432 user=fail password=fail dbname=fail sslmode=disable connect_timeout=2"

	_, err := postgres.NewClient(invalidDSN)
	if err == nil {
		t.Fatal("expected error for invalid DSN, got nil")
	}
}

// go test -v --run ^TestPostgresClientWithConfig$
func TestPostgresClientWithConfig(t *testing.T) {
	cfg := testConfig(t)

	client, err := postgres.InitializeAndMigrateAlertRecord(cfg, "dev")
	if err != nil {
		t.Fatalf("failed to create Postgres client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if !client.IsHealthy(ctx) {
		t.Fatal("expected healthy DB connection")
	}
}
