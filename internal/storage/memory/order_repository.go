package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// orderRepositoryInMemory: in-memory реализация OrderRepository поверх общего Store.
type orderRepositoryInMemory struct {
	store *Store
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.orders[order.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.store.orders[order.ID] = cloneOrder(order)
	return nil
}

// UpdateInProgress меняет только изменяемые поля и только пока заказ в работе.
func (r *orderRepositoryInMemory) UpdateInProgress(_ context.Context, order domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	switch {
	case current.IsValidated():
		return domain.ErrAlreadyValidated
	case current.IsCancelled():
		return domain.ErrOrderCancelled
	}
	current.SetUnitPrice(order.UnitPrice())
	current.SetQuantity(order.Quantity())
	current.Notes = order.Notes
	r.store.orders[order.ID] = current
	return nil
}

func (r *orderRepositoryInMemory) MarkCancelled(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.IsCancelled() {
		return domain.ErrAlreadyCancelled
	}
	current.MarkCancelled()
	r.store.orders[id] = current
	return nil
}

func (r *orderRepositoryInMemory) MarkDelivered(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if !current.IsValidated() || current.Status != domain.OrderStatusProcessed {
		return domain.ErrNotDeliverable
	}
	current.MarkDelivered()
	r.store.orders[id] = current
	return nil
}

// Get возвращает заказ с отображаемыми полями клиента и статьи.
func (r *orderRepositoryInMemory) Get(_ context.Context, id string) (domain.OrderView, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, ok := r.store.orders[id]
	if !ok {
		return domain.OrderView{}, domain.ErrOrderNotFound
	}
	return r.store.viewLocked(order), nil
}

// List возвращает заказы по фильтру от новых к старым.
func (r *orderRepositoryInMemory) List(_ context.Context, filter domain.OrderFilter) ([]domain.OrderView, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.OrderView, 0, len(r.store.orders))
	for _, order := range r.store.orders {
		if filter.Type != "" && order.Type != filter.Type {
			continue
		}
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.ClientID != "" && order.ClientID != filter.ClientID {
			continue
		}
		result = append(result, r.store.viewLocked(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

// CommitValidation списывает остаток и сохраняет заказ под одной блокировкой.
func (r *orderRepositoryInMemory) CommitValidation(_ context.Context, order domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	switch {
	case current.IsValidated():
		return domain.ErrAlreadyValidated
	case current.IsCancelled():
		return domain.ErrOrderCancelled
	}

	now := time.Now().UTC()
	if order.ValidatedAt != nil {
		now = *order.ValidatedAt
	}
	if !r.store.decrementLocked(current.ArticleID, current.Quantity(), now) {
		return domain.ErrInsufficientStock
	}

	current.MarkValidated(now)
	r.store.orders[order.ID] = current
	return nil
}

func (r *orderRepositoryInMemory) ValidatedTotal(_ context.Context) (decimal.Decimal, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.validatedTotalLocked(), nil
}

func (r *orderRepositoryInMemory) Stats(_ context.Context) (domain.OrderStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var stats domain.OrderStats
	for _, order := range r.store.orders {
		switch order.Status {
		case domain.OrderStatusPending:
			stats.Pending++
		case domain.OrderStatusProcessed:
			stats.Processed++
		case domain.OrderStatusDelivered:
			stats.Delivered++
		case domain.OrderStatusCancelled:
			stats.Cancelled++
		}
	}
	stats.ValidatedAmount = r.store.validatedTotalLocked()
	return stats, nil
}

func (s *Store) validatedTotalLocked() decimal.Decimal {
	total := decimal.Zero
	for _, order := range s.orders {
		if order.IsValidated() {
			total = total.Add(order.Total())
		}
	}
	return total
}

func (s *Store) viewLocked(order domain.Order) domain.OrderView {
	view := domain.OrderView{Order: cloneOrder(order)}
	if client, ok := s.clients[order.ClientID]; ok {
		view.ClientName = client.Name
		view.ClientFirstName = client.FirstName
	}
	if article, ok := s.articles[order.ArticleID]; ok {
		view.ArticleDesignation = article.Designation
	}
	return view
}

func cloneOrder(order domain.Order) domain.Order {
	if order.ValidatedAt != nil {
		validatedAt := *order.ValidatedAt
		order.ValidatedAt = &validatedAt
	}
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
