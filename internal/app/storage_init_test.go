package app

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestInitStorage_Memory(t *testing.T) {
	t.Parallel()

	repos, err := initStorage(context.Background(), Config{StorageDriver: StorageDriverMemory}, log.WithField("test", "memory-storage"))
	if err != nil {
		t.Fatalf("initStorage(memory) failed: %v", err)
	}
	if repos.clients == nil || repos.articles == nil || repos.orders == nil {
		t.Fatal("repositories should not be nil for memory storage")
	}
	if repos.storageChecker != nil {
		t.Error("memory storage has nothing to ping")
	}
}

func TestInitStorage_EmptyDriverFallsBackToMemory(t *testing.T) {
	t.Parallel()

	repos, err := initStorage(context.Background(), Config{}, log.WithField("test", "default-storage"))
	if err != nil {
		t.Fatalf("initStorage(default) failed: %v", err)
	}
	if repos.orders == nil {
		t.Fatal("expected memory repositories")
	}
}

func TestInitStorage_SQLite(t *testing.T) {
	repos, err := initStorage(context.Background(), Config{
		StorageDriver: StorageDriverSQLite,
		GormDSN:       "file:" + t.Name() + "?mode=memory&cache=shared",
	}, log.WithField("test", "sqlite-storage"))
	if err != nil {
		t.Fatalf("initStorage(sqlite) failed: %v", err)
	}
	defer func() { _ = repos.closeFn() }()

	if repos.storageChecker == nil {
		t.Fatal("expected storage checker for sqlite")
	}
	if check := repos.storageChecker.Check(context.Background()); check.Status != "healthy" {
		t.Fatalf("expected healthy sqlite, got %+v", check)
	}
}

func TestInitStorage_RequiresDSN(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{StorageDriverPostgres, StorageDriverMySQL} {
		cfg := Config{StorageDriver: driver}
		if driver == StorageDriverMySQL {
			cfg.GormDSN = "  "
		}
		if _, err := initStorage(context.Background(), cfg, log.WithField("test", "missing-dsn")); err == nil {
			t.Fatalf("expected error when %s driver is selected without DSN", driver)
		}
	}
}

func TestInitStorage_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := initStorage(context.Background(), Config{StorageDriver: "oracle"}, log.WithField("test", "unsupported-driver"))
	if !errors.Is(err, errUnsupportedDriver) {
		t.Fatalf("expected unsupported storage driver error, got %v", err)
	}
}

func TestNewRuntime_WiresServices(t *testing.T) {
	t.Parallel()

	runtime, err := NewRuntime(context.Background(), DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	defer func() { _ = runtime.Close() }()

	if runtime.Clients == nil || runtime.Articles == nil || runtime.Orders == nil {
		t.Fatal("services should be wired")
	}
	total, err := runtime.Orders.TotalValidatedAmount(context.Background())
	if err != nil || !total.IsZero() {
		t.Fatalf("expected zero validated total on empty store, got %s, %v", total, err)
	}
}
