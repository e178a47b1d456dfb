package memory

import (
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// Store хранит клиентов, статьи и заказы в памяти процесса.
// Один мьютекс на все три коллекции: проведение заказа меняет статью и заказ атомарно.
type Store struct {
	mu       sync.RWMutex
	clients  map[string]domain.Client
	articles map[string]domain.Article
	orders   map[string]domain.Order
}

// NewStore возвращает пустое хранилище для локальной разработки и тестов.
func NewStore() *Store {
	return &Store{
		clients:  make(map[string]domain.Client),
		articles: make(map[string]domain.Article),
		orders:   make(map[string]domain.Order),
	}
}

// Clients возвращает репозиторий клиентов поверх общего хранилища.
func (s *Store) Clients() domain.ClientRepository {
	return &clientRepositoryInMemory{store: s}
}

// Articles возвращает репозиторий статей поверх общего хранилища.
func (s *Store) Articles() domain.ArticleRepository {
	return &articleRepositoryInMemory{store: s}
}

// Orders возвращает репозиторий заказов поверх общего хранилища.
func (s *Store) Orders() domain.OrderRepository {
	return &orderRepositoryInMemory{store: s}
}

func containsFold(value, term string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}
