package main

import (
	"context"
	"path/filepath"
	"testing"

	"esnafdefter/backend/internal/config"
	"esnafdefter/backend/internal/store/memory"
	sqlitestore "esnafdefter/backend/internal/store/sqlite"
)

func validConfig() config.Config {
	return config.Config{
		StorageDriver:         config.DriverSQLite,
		SQLitePath:            "esnaf_defter.db",
		IdempotencyTTLSeconds: 60,
		KafkaTopic:            "esnaf-defter-events",
	}
}

func TestValidateConfigRejectsBadValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"unknown driver":          func(c *config.Config) { c.StorageDriver = "mongo" },
		"postgres without url":    func(c *config.Config) { c.StorageDriver = config.DriverPostgres },
		"sqlite without path":     func(c *config.Config) { c.SQLitePath = " " },
		"non-positive replay ttl": func(c *config.Config) { c.IdempotencyTTLSeconds = 0 },
		"brokers without topic": func(c *config.Config) {
			c.KafkaBrokers = []string{"localhost:9092"}
			c.KafkaTopic = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			if err := validateConfig(cfg); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestValidateConfigAcceptsDrivers(t *testing.T) {
	for _, cfg := range []config.Config{
		validConfig(),
		{StorageDriver: config.DriverMemory, IdempotencyTTLSeconds: 1},
		{StorageDriver: config.DriverPostgres, DatabaseURL: "postgres://localhost/esnaf", IdempotencyTTLSeconds: 1},
	} {
		if err := validateConfig(cfg); err != nil {
			t.Fatalf("expected %s config to pass, got %v", cfg.StorageDriver, err)
		}
	}
}

func TestOpenRepositoryPicksDriver(t *testing.T) {
	ctx := context.Background()

	repo, closeFn, err := openRepository(ctx, config.Config{StorageDriver: config.DriverMemory})
	if err != nil || closeFn != nil {
		t.Fatalf("memory repository: err=%v closer=%v", err, closeFn != nil)
	}
	if _, ok := repo.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", repo)
	}

	path := filepath.Join(t.TempDir(), "defter.db")
	repo, closeFn, err = openRepository(ctx, config.Config{StorageDriver: config.DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("sqlite repository: %v", err)
	}
	defer func() { _ = closeFn() }()
	if _, ok := repo.(*sqlitestore.Store); !ok {
		t.Fatalf("expected sqlite store, got %T", repo)
	}
	if _, err := repo.ListCustomers(ctx); err != nil {
		t.Fatalf("expected migrated schema, got %v", err)
	}
}
