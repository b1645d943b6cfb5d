package postgres_test

import (
	"testing"

	"streakwatch/pkg/storage/postgres"
)

// go test -v --run TestCreateDatabase
func TestCreateDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBName = "streakwatch_create_test"

	if err := postgres.CreateDatabase(cfg, "dev"); err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	// second call is a no-op
	if err := postgres.CreateDatabase(cfg, "dev"); err != nil {
		t.Fatalf("failed on existing database: %v", err)
	}
}
