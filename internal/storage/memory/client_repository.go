package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type clientRepositoryInMemory struct {
	store *Store
}

// Create сохраняет нового клиента, если ID ещё не занят.
func (r *clientRepositoryInMemory) Create(_ context.Context, client domain.Client) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.clients[client.ID]; exists {
		return domain.ErrDuplicateID
	}
	r.store.clients[client.ID] = client
	return nil
}

func (r *clientRepositoryInMemory) Update(_ context.Context, client domain.Client) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, ok := r.store.clients[client.ID]
	if !ok {
		return domain.ErrClientNotFound
	}
	// Дата создания и флаг активности меняются только своими операциями.
	client.CreatedAt = current.CreatedAt
	client.Active = current.Active
	r.store.clients[client.ID] = client
	return nil
}

func (r *clientRepositoryInMemory) Get(_ context.Context, id string) (domain.Client, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	client, ok := r.store.clients[id]
	if !ok {
		return domain.Client{}, domain.ErrClientNotFound
	}
	return client, nil
}

func (r *clientRepositoryInMemory) List(_ context.Context, filter domain.ClientFilter) ([]domain.Client, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]domain.Client, 0, len(r.store.clients))
	for _, client := range r.store.clients {
		if filter.ActiveOnly && !client.Active {
			continue
		}
		if filter.Search != "" && !containsFold(client.Name, filter.Search) && !containsFold(client.FirstName, filter.Search) {
			continue
		}
		result = append(result, client)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		if result[i].FirstName != result[j].FirstName {
			return result[i].FirstName < result[j].FirstName
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (r *clientRepositoryInMemory) SetActive(_ context.Context, id string, active bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	client, ok := r.store.clients[id]
	if !ok {
		return domain.ErrClientNotFound
	}
	client.Active = active
	r.store.clients[id] = client
	return nil
}

var _ domain.ClientRepository = (*clientRepositoryInMemory)(nil)
