package memory

import (
	"context"
	"sort"
	"time"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type articleRepositoryInMemory struct {
	store *Store
}

func (r *articleRepositoryInMemory) Create(_ context.Context, article domain.Article) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.articles[article.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.store.articles[article.ID] = article
	return nil
}

// Update перезаписывает описательные поля и цену; остаток и активность меняются отдельными методами.
func (r *articleRepositoryInMemory) Update(_ context.Context, article domain.Article) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.articles[article.ID]
	if !ok {
		return domain.ErrArticleNotFound
	}
	article.CreatedAt = current.CreatedAt
	article.Active = current.Active
	article.Stock = current.Stock
	r.store.articles[article.ID] = article
	return nil
}

func (r *articleRepositoryInMemory) Get(_ context.Context, id string) (domain.Article, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	article, ok := r.store.articles[id]
	if !ok {
		return domain.Article{}, domain.ErrArticleNotFound
	}
	return article, nil
}

func (r *articleRepositoryInMemory) List(_ context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Article, 0, len(r.store.articles))
	for _, article := range r.store.articles {
		if (filter.ActiveOnly || filter.LowStockOnly) && !article.Active {
			continue
		}
		if filter.LowStockOnly && !article.IsLowStock() {
			continue
		}
		if filter.Search != "" && !containsFold(article.Designation, filter.Search) && !containsFold(article.Category, filter.Search) {
			continue
		}
		result = append(result, article)
	}

	sort.Slice(result, func(i, j int) bool {
		if filter.LowStockOnly && result[i].Stock != result[j].Stock {
			return result[i].Stock < result[j].Stock
		}
		if result[i].Designation != result[j].Designation {
			return result[i].Designation < result[j].Designation
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *articleRepositoryInMemory) SetActive(_ context.Context, id string, active bool, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	article, ok := r.store.articles[id]
	if !ok {
		return domain.ErrArticleNotFound
	}
	if active {
		article.Activate(now)
	} else {
		article.Deactivate(now)
	}
	r.store.articles[id] = article
	return nil
}

func (r *articleRepositoryInMemory) SetStock(_ context.Context, id string, stock int, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	article, ok := r.store.articles[id]
	if !ok {
		return domain.ErrArticleNotFound
	}
	if err := article.SetStock(stock, now); err != nil {
		return err
	}
	r.store.articles[id] = article
	return nil
}

func (r *articleRepositoryInMemory) DecrementStockIfEnough(_ context.Context, id string, qty int, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.decrementLocked(id, qty, now), nil
}

// decrementLocked списывает остаток; вызывается под s.mu.
func (s *Store) decrementLocked(id string, qty int, now time.Time) bool {
	article, ok := s.articles[id]
	if !ok || !article.Usable() {
		return false
	}
	if err := article.RemoveStock(qty, now); err != nil {
		return false
	}
	s.articles[id] = article
	return true
}

var _ domain.ArticleRepository = (*articleRepositoryInMemory)(nil)
