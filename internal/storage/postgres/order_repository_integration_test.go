package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

func seedIntegrationData(t *testing.T, store *Store, stock int) domain.Order {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Round(time.Microsecond)

	client := domain.Client{ID: "client-1", Name: "Durand", FirstName: "Alice", Sex: domain.SexFemale, Type: domain.ClientTypeBusiness, CreatedAt: now, Active: true}
	if err := store.Clients().Create(ctx, client); err != nil {
		t.Fatalf("create client: %v", err)
	}
	article := domain.Article{ID: "article-1", Designation: "Stapler", Category: "office", Price: decimal.RequireFromString("10.00"), Stock: stock, StockMinimum: 2, CreatedAt: now, ModifiedAt: now, Active: true}
	if err := store.Articles().Create(ctx, article); err != nil {
		t.Fatalf("create article: %v", err)
	}

	order := domain.NewOrder("order-1", client.ID, article.ID, 4, article.Price, "first order", now)
	if err := store.Orders().Create(ctx, order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func TestOrderRepository_PostgresCreateGetListUpdate(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	order := seedIntegrationData(t, store, 10)

	if err := store.Orders().Create(ctx, order); !errors.Is(err, domain.ErrDuplicateID) {
		t.Fatalf("expected duplicate id, got %v", err)
	}

	view, err := store.Orders().Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if view.ClientName != "Durand" || view.ArticleDesignation != "Stapler" {
		t.Fatalf("unexpected joined fields: %+v", view)
	}
	if !view.Total().Equal(decimal.RequireFromString("40")) {
		t.Fatalf("unexpected total: %s", view.Total())
	}

	second := domain.NewOrder("order-2", "client-1", "article-1", 1, decimal.RequireFromString("10.00"), "", order.CreatedAt.Add(time.Minute))
	if err := store.Orders().Create(ctx, second); err != nil {
		t.Fatalf("create second order: %v", err)
	}
	listed, err := store.Orders().List(ctx, domain.OrderFilter{ClientID: "client-1"})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "order-2" {
		t.Fatalf("expected newest first, got %+v", listed)
	}

	updated := view.Order
	updated.SetQuantity(6)
	updated.Notes = "bigger"
	if err := store.Orders().UpdateInProgress(ctx, updated); err != nil {
		t.Fatalf("update order: %v", err)
	}
	view, _ = store.Orders().Get(ctx, order.ID)
	if view.Quantity() != 6 || !view.Total().Equal(decimal.RequireFromString("60")) || view.Notes != "bigger" {
		t.Fatalf("unexpected order after update: qty=%d total=%s notes=%q", view.Quantity(), view.Total(), view.Notes)
	}

	missing := updated
	missing.ID = "missing"
	if err := store.Orders().UpdateInProgress(ctx, missing); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}

func TestOrderRepository_PostgresCommitValidation(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	order := seedIntegrationData(t, store, 10)

	order.MarkValidated(time.Now().UTC())
	if err := store.Orders().CommitValidation(ctx, order); err != nil {
		t.Fatalf("commit validation: %v", err)
	}
	if err := store.Orders().CommitValidation(ctx, order); !errors.Is(err, domain.ErrAlreadyValidated) {
		t.Fatalf("expected already validated, got %v", err)
	}

	article, err := store.Articles().Get(ctx, "article-1")
	if err != nil {
		t.Fatalf("get article: %v", err)
	}
	if article.Stock != 6 {
		t.Fatalf("expected stock 6, got %d", article.Stock)
	}

	total, err := store.Orders().ValidatedTotal(ctx)
	if err != nil {
		t.Fatalf("validated total: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected validated total 40, got %s", total)
	}

	stats, err := store.Orders().Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Processed != 1 || stats.Pending != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestOrderRepository_PostgresCommitValidationInsufficientStock(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	order := seedIntegrationData(t, store, 3)

	order.MarkValidated(time.Now().UTC())
	if err := store.Orders().CommitValidation(ctx, order); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	view, _ := store.Orders().Get(ctx, order.ID)
	if !view.IsInProgress() || view.ValidatedAt != nil {
		t.Fatalf("order must stay in progress: %+v", view)
	}
	article, _ := store.Articles().Get(ctx, "article-1")
	if article.Stock != 3 {
		t.Fatalf("stock must be untouched, got %d", article.Stock)
	}
}

func TestArticleRepository_PostgresConcurrentDecrement(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	seedIntegrationData(t, store, 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Articles().DecrementStockIfEnough(ctx, "article-1", 1, time.Now().UTC())
			if err != nil {
				t.Errorf("decrement: %v", err)
				return
			}
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != 5 {
		t.Fatalf("expected 5 successful decrements, got %d", granted)
	}

	low, err := store.Articles().List(ctx, domain.ArticleFilter{LowStockOnly: true})
	if err != nil {
		t.Fatalf("list low stock: %v", err)
	}
	if len(low) != 1 || low[0].Stock != 0 {
		t.Fatalf("expected drained article in low-stock listing, got %+v", low)
	}
}

func TestClientRepository_PostgresSearchAndActivity(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	seedIntegrationData(t, store, 1)

	found, err := store.Clients().List(ctx, domain.ClientFilter{Search: "ALI"})
	if err != nil {
		t.Fatalf("search clients: %v", err)
	}
	if len(found) != 1 || found[0].ID != "client-1" {
		t.Fatalf("unexpected search result: %+v", found)
	}

	if err := store.Clients().SetActive(ctx, "client-1", false); err != nil {
		t.Fatalf("deactivate client: %v", err)
	}
	active, _ := store.Clients().List(ctx, domain.ClientFilter{ActiveOnly: true})
	if len(active) != 0 {
		t.Fatalf("expected no active clients, got %+v", active)
	}
	if err := store.Clients().SetActive(ctx, "missing", true); !errors.Is(err, domain.ErrClientNotFound) {
		t.Fatalf("expected client not found, got %v", err)
	}
}

func TestOrderRepository_PostgresConditionalWrites(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	ctx := context.Background()
	order := seedIntegrationData(t, store, 10)

	stale := order
	stale.SetQuantity(5)

	validated := order
	validated.MarkValidated(time.Now().UTC())
	if err := store.Orders().CommitValidation(ctx, validated); err != nil {
		t.Fatalf("commit validation: %v", err)
	}

	if err := store.Orders().UpdateInProgress(ctx, stale); !errors.Is(err, domain.ErrAlreadyValidated) {
		t.Fatalf("expected already validated, got %v", err)
	}
	view, _ := store.Orders().Get(ctx, order.ID)
	if !view.IsValidated() || view.Quantity() != 4 {
		t.Fatalf("stale update must not touch a validated order: %+v", view)
	}

	if err := store.Orders().MarkDelivered(ctx, order.ID); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if err := store.Orders().MarkDelivered(ctx, order.ID); !errors.Is(err, domain.ErrNotDeliverable) {
		t.Fatalf("expected not deliverable, got %v", err)
	}

	if err := store.Orders().MarkCancelled(ctx, order.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := store.Orders().MarkCancelled(ctx, order.ID); !errors.Is(err, domain.ErrAlreadyCancelled) {
		t.Fatalf("expected already cancelled, got %v", err)
	}
	if err := store.Orders().UpdateInProgress(ctx, stale); !errors.Is(err, domain.ErrOrderCancelled) {
		t.Fatalf("expected order cancelled, got %v", err)
	}
	if err := store.Orders().MarkCancelled(ctx, "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order not found, got %v", err)
	}
}
