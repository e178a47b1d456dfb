package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ClientFilter сужает выборку клиентов. Пустой фильтр возвращает всех.
type ClientFilter struct {
	ActiveOnly bool
	// Search: подстрока для поиска по фамилии или имени без учёта регистра.
	Search string
}

// ClientRepository описывает требования к хранилищу клиентов.
type ClientRepository interface {
	// Create сохраняет нового клиента.
	Create(ctx context.Context, client Client) error
	// Update перезаписывает изменяемые поля или возвращает ErrClientNotFound.
	Update(ctx context.Context, client Client) error
	// Get возвращает клиента по идентификатору или ErrClientNotFound.
	Get(ctx context.Context, id string) (Client, error)
	// List возвращает клиентов, упорядоченных по фамилии и имени.
	List(ctx context.Context, filter ClientFilter) ([]Client, error)
	// SetActive меняет только флаг активности.
	SetActive(ctx context.Context, id string, active bool) error
}

// ArticleFilter сужает выборку статей.
type ArticleFilter struct {
	ActiveOnly bool
	// LowStockOnly оставляет активные статьи с остатком не выше порога; сортировка по остатку.
	LowStockOnly bool
	// Search: подстрока для поиска по наименованию или категории без учёта регистра.
	Search string
}

// ArticleRepository описывает требования к хранилищу статей.
type ArticleRepository interface {
	Create(ctx context.Context, article Article) error
	// Update перезаписывает изменяемые поля или возвращает ErrArticleNotFound.
	Update(ctx context.Context, article Article) error
	Get(ctx context.Context, id string) (Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]Article, error)
	SetActive(ctx context.Context, id string, active bool, now time.Time) error
	// SetStock перезаписывает остаток; отрицательные значения отклоняются раньше, в сервисе.
	SetStock(ctx context.Context, id string, stock int, now time.Time) error
	// DecrementStockIfEnough атомарно списывает qty единиц с активной статьи.
	// Возвращает false без изменений, если статьи нет, она неактивна или остатка не хватает.
	DecrementStockIfEnough(ctx context.Context, id string, qty int, now time.Time) (bool, error)
}

// OrderFilter сужает выборку заказов. Нулевые поля не участвуют в фильтрации.
type OrderFilter struct {
	Type     OrderType
	Status   OrderStatus
	ClientID string
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	Create(ctx context.Context, order Order) error
	// UpdateInProgress сохраняет количество, цену, сумму и примечание, только пока заказ in_progress.
	// Иначе возвращает ErrAlreadyValidated или ErrOrderCancelled и ничего не пишет.
	UpdateInProgress(ctx context.Context, order Order) error
	// MarkCancelled переводит ещё не отменённый заказ в cancelled/cancelled; иначе ErrAlreadyCancelled.
	MarkCancelled(ctx context.Context, id string) error
	// MarkDelivered переводит заказ из validated/processed в delivered; иначе ErrNotDeliverable.
	MarkDelivered(ctx context.Context, id string) error
	// Get возвращает заказ с полями клиента и статьи или ErrOrderNotFound.
	Get(ctx context.Context, id string) (OrderView, error)
	// List возвращает заказы от новых к старым.
	List(ctx context.Context, filter OrderFilter) ([]OrderView, error)
	// CommitValidation в одной транзакции списывает остаток статьи и сохраняет проведённый заказ.
	// Если заказ уже не in_progress, возвращает ErrAlreadyValidated или ErrOrderCancelled;
	// если остатка не хватает, возвращает ErrInsufficientStock. В обоих случаях ничего не записывается.
	CommitValidation(ctx context.Context, order Order) error
	// ValidatedTotal суммирует сумму по проведённым заказам; 0, если таких нет.
	ValidatedTotal(ctx context.Context) (decimal.Decimal, error)
	// Stats считает заказы по статусам вместе с суммой проведённых.
	Stats(ctx context.Context) (OrderStats, error)
}
