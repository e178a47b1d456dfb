package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orderdesk/internal/health"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/articles"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/clients"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/orders"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/gormstore"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/memory"
	"github.com/vladislavdragonenkov/orderdesk/internal/storage/postgres"
)

var errUnsupportedDriver = errors.New("unsupported storage driver")

// repositories: выбранное хранилище и его служебные хуки.
type repositories struct {
	clients        domain.ClientRepository
	articles       domain.ArticleRepository
	orders         domain.OrderRepository
	storageChecker healthcheck.Checker
	closeFn        func() error
}

func initStorage(ctx context.Context, cfg Config, logger *log.Entry) (*repositories, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if driver == "" {
		driver = StorageDriverMemory
	}

	switch driver {
	case StorageDriverMemory:
		store := memory.NewStore()
		logger.Info("using in-memory storage")
		return &repositories{
			clients:  store.Clients(),
			articles: store.Articles(),
			orders:   store.Orders(),
		}, nil

	case StorageDriverPostgres:
		dsn := strings.TrimSpace(cfg.PostgresDSN)
		if dsn == "" {
			return nil, errors.New("postgres storage requires ORDERDESK_POSTGRES_DSN")
		}
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		}
		logger.WithField("auto_migrate", cfg.PostgresAutoMigrate).Info("using postgres storage")
		return &repositories{
			clients:        store.Clients(),
			articles:       store.Articles(),
			orders:         store.Orders(),
			storageChecker: healthcheck.NewPingChecker("postgres", store.Ping, 0),
			closeFn:        store.Close,
		}, nil

	case StorageDriverSQLite, StorageDriverMySQL:
		dsn := strings.TrimSpace(cfg.GormDSN)
		if dsn == "" {
			return nil, fmt.Errorf("%s storage requires ORDERDESK_GORM_DSN", driver)
		}
		store, err := gormstore.Open(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		logger.WithField("driver", driver).Info("using gorm storage")
		return &repositories{
			clients:        store.Clients(),
			articles:       store.Articles(),
			orders:         store.Orders(),
			storageChecker: healthcheck.NewPingChecker(driver, store.Ping, 0),
			closeFn:        store.Close,
		}, nil

	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedDriver, cfg.StorageDriver)
	}
}

// Runtime: собранные сервисы поверх выбранного хранилища.
type Runtime struct {
	Clients  *clients.Service
	Articles *articles.Service
	Orders   *orders.Service

	storageChecker healthcheck.Checker
	closeFn        func() error
}

// NewRuntime открывает хранилище из cfg и собирает сервисы. m может быть nil.
func NewRuntime(ctx context.Context, cfg Config, logger *log.Entry, m *metrics.OrderMetrics) (*Runtime, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	repos, err := initStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	articleSvc := articles.NewService(repos.articles, logger.WithField("component", "articles"), articles.WithMetrics(m))
	clientSvc := clients.NewService(repos.clients, logger.WithField("component", "clients"), clients.WithMetrics(m))
	orderSvc := orders.NewService(repos.orders, clientSvc, articleSvc, logger.WithField("component", "orders"),
		orders.WithMetrics(m),
		orders.WithLowStockNotifier(articleSvc),
	)

	return &Runtime{
		Clients:        clientSvc,
		Articles:       articleSvc,
		Orders:         orderSvc,
		storageChecker: repos.storageChecker,
		closeFn:        repos.closeFn,
	}, nil
}

// Close освобождает подключение к хранилищу.
func (r *Runtime) Close() error {
	if r == nil || r.closeFn == nil {
		return nil
	}
	return r.closeFn()
}
