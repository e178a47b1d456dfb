package articles_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

func loggerForTests(out io.Writer) *log.Entry {
	logger := log.New()
	logger.SetOutput(out)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	return logger.WithField("component", "articles-test")
}

func newService(t *testing.T, out io.Writer) *articles.Service {
	t.Helper()
	return articles.NewService(memory.NewStore().Articles(), loggerForTests(out))
}

func stapler() articles.CreateInput {
	return articles.CreateInput{
		Designation:  "Stapler",
		Category:     "office",
		Price:        decimal.RequireFromString("12.90"),
		Stock:        10,
		StockMinimum: 2,
	}
}

func TestService_Create(t *testing.T) {
	svc := newService(t, io.Discard)

	article, err := svc.Create(context.Background(), stapler())
	require.NoError(t, err)
	require.NotEmpty(t, article.ID)
	require.True(t, article.Active)
	require.Equal(t, article.CreatedAt, article.ModifiedAt)

	in := stapler()
	in.Price = decimal.NewFromInt(-1)
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrNegativePrice)

	in = stapler()
	in.Price = decimal.RequireFromString("10.125")
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrPriceScale)
	require.Equal(t, domain.ErrInvalidArgument, domain.Kind(err))

	in = stapler()
	in.Price = decimal.RequireFromString("10.12")
	_, err = svc.Create(context.Background(), in)
	require.NoError(t, err)

	in = stapler()
	in.Stock = -5
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	in = stapler()
	in.Designation = ""
	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestService_UpdatePartialRefreshesModifiedAt(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := articles.NewService(memory.NewStore().Articles(), loggerForTests(io.Discard),
		articles.WithClock(func() time.Time { return current }))

	article, err := svc.Create(ctx, stapler())
	require.NoError(t, err)

	current = current.Add(time.Hour)
	price := decimal.RequireFromString("15.00")
	updated, err := svc.Update(ctx, article.ID, articles.UpdateInput{Price: &price})
	require.NoError(t, err)
	require.True(t, updated.Price.Equal(price))
	require.Equal(t, "Stapler", updated.Designation)
	require.Equal(t, 10, updated.Stock)
	require.Equal(t, current, updated.ModifiedAt)

	negative := -1
	_, err = svc.Update(ctx, article.ID, articles.UpdateInput{StockMinimum: &negative})
	require.ErrorIs(t, err, domain.ErrNegativeStockMin)

	subCent := decimal.RequireFromString("15.005")
	_, err = svc.Update(ctx, article.ID, articles.UpdateInput{Price: &subCent})
	require.ErrorIs(t, err, domain.ErrPriceScale)
	stored, err := svc.Get(ctx, article.ID)
	require.NoError(t, err)
	require.True(t, stored.Price.Equal(price), "rejected price must not be stored")

	_, err = svc.Update(ctx, "missing", articles.UpdateInput{Price: &price})
	require.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestService_SetStock(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	svc := newService(t, &buf)

	article, err := svc.Create(ctx, stapler())
	require.NoError(t, err)

	_, err = svc.SetStock(ctx, article.ID, -1)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	updated, err := svc.SetStock(ctx, article.ID, 1)
	require.NoError(t, err)
	require.Equal(t, 1, updated.Stock)
	require.Contains(t, buf.String(), "article stock is low")

	low, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)

	_, err = svc.SetStock(ctx, "missing", 3)
	require.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestService_CheckAndDecrementStock(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, io.Discard)

	article, err := svc.Create(ctx, stapler())
	require.NoError(t, err)

	ok, err := svc.CheckAndDecrementStock(ctx, article.ID, 4)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.CheckAndDecrementStock(ctx, article.ID, 7)
	require.NoError(t, err)
	require.False(t, ok)

	stored, err := svc.Get(ctx, article.ID)
	require.NoError(t, err)
	require.Equal(t, 6, stored.Stock)

	ok, err = svc.CheckAndDecrementStock(ctx, "missing", 1)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, svc.SetActive(ctx, article.ID, false))
	ok, err = svc.CheckAndDecrementStock(ctx, article.ID, 1)
	require.NoError(t, err)
	require.False(t, ok, "inactive article must not be decremented")

	_, err = svc.CheckAndDecrementStock(ctx, article.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestService_CheckAndDecrementStockConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, io.Discard)

	in := stapler()
	in.Stock = 20
	article, err := svc.Create(ctx, in)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.CheckAndDecrementStock(ctx, article.ID, 1)
			if err != nil || !ok {
				return
			}
			mu.Lock()
			granted++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 20, granted)
	stored, err := svc.Get(ctx, article.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.Stock)
}

func TestService_ListingAndSearch(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, io.Discard)

	first, err := svc.Create(ctx, stapler())
	require.NoError(t, err)
	in := stapler()
	in.Designation, in.Category = "Desk", "furniture"
	_, err = svc.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, svc.SetActive(ctx, first.ID, false))

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	found, err := svc.Search(ctx, "FURN")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Desk", found[0].Designation)

	_, err = svc.Search(ctx, "")
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}
