package postgres

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

// openPostgresStoreForIntegrationTest возвращает хранилище с применённой схемой и пустыми таблицами.
func openPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	store := openRawPostgresStoreForIntegrationTest(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if _, err := store.DB().ExecContext(ctx, `TRUNCATE TABLE orders, articles, clients CASCADE`); err != nil {
		t.Fatalf("truncate integration tables: %v", err)
	}
	return store
}

// openRawPostgresStoreForIntegrationTest пропускает тест, если ORDERDESK_POSTGRES_TEST_DSN не задан
// или база недоступна.
func openRawPostgresStoreForIntegrationTest(t *testing.T) *Store {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("ORDERDESK_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("ORDERDESK_POSTGRES_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	store, err := Open(ctx, dsn)
	if err != nil {
		t.Skipf("postgres is not available for integration tests: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
