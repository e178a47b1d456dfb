package orders_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
)

func loggerForTests() *log.Entry {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "orders-test")
}

// fixture собирает три сервиса поверх одного in-memory хранилища.
type fixture struct {
	store    *memory.Store
	clients  *clients.Service
	articles *articles.Service
	orders   *orders.Service
	clock    time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store: memory.NewStore(),
		clock: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	now := func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	logger := loggerForTests()
	f.clients = clients.NewService(f.store.Clients(), logger, clients.WithClock(now))
	f.articles = articles.NewService(f.store.Articles(), logger, articles.WithClock(now))
	f.orders = orders.NewService(f.store.Orders(), f.clients, f.articles, logger,
		orders.WithClock(now), orders.WithLowStockNotifier(f.articles))
	return f
}

func (f *fixture) client(t *testing.T, name string) domain.Client {
	t.Helper()
	client, err := f.clients.Create(context.Background(), clients.CreateInput{
		Name: name, FirstName: "Test", Sex: "M", Type: "business",
	})
	require.NoError(t, err)
	return client
}

func (f *fixture) article(t *testing.T, designation string, price string, stock, minimum int) domain.Article {
	t.Helper()
	article, err := f.articles.Create(context.Background(), articles.CreateInput{
		Designation:  designation,
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		StockMinimum: minimum,
	})
	require.NoError(t, err)
	return article
}

func (f *fixture) stock(t *testing.T, articleID string) int {
	t.Helper()
	article, err := f.articles.Get(context.Background(), articleID)
	require.NoError(t, err)
	return article.Stock
}

func articlesUpdatePrice(price decimal.Decimal) articles.UpdateInput {
	return articles.UpdateInput{Price: &price}
}
