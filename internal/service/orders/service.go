// Package orders реализует жизненный цикл заказа и согласованность склада:
// оформление, проведение со списанием остатка, отмену, изменение, доставку и отчёты.
package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/svcerr"
	"github.com/vladislavdragonenkov/orderdesk/internal/validation"
)

// ClientLookup: чтение клиента для проверки ссылок.
type ClientLookup interface {
	Get(ctx context.Context, id string) (domain.Client, error)
}

// ArticleLookup: чтение статьи для проверки остатка и фиксации цены.
type ArticleLookup interface {
	Get(ctx context.Context, id string) (domain.Article, error)
}

// LowStockNotifier получает статью после списания остатка.
type LowStockNotifier interface {
	WarnIfLowStock(article domain.Article)
}

// CreateInput: параметры оформления заказа.
type CreateInput struct {
	ClientID  string `json:"client_id" validate:"required"`
	ArticleID string `json:"article_id" validate:"required"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

// ModifyInput: изменение заказа в работе: nil оставляет текущее значение.
type ModifyInput struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics подключает метрики жизненного цикла.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLowStockNotifier подключает оповещение о низком остатке после проведения.
func WithLowStockNotifier(n LowStockNotifier) Option {
	return func(s *Service) { s.lowStock = n }
}

// Service: машина состояний заказа. Единственный компонент, который проверяет
// инварианты сразу между клиентом, статьёй и заказом.
type Service struct {
	orders    domain.OrderRepository
	clients   ClientLookup
	articles  ArticleLookup
	lowStock  LowStockNotifier
	validator *validation.Validator
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	now       func() time.Time
	newID     func() string
}

// NewService создаёт сервис заказов.
func NewService(orders domain.OrderRepository, clients ClientLookup, articles ArticleLookup, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	s := &Service{
		orders:    orders,
		clients:   clients,
		articles:  articles,
		validator: validation.New(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create оформляет заказ в состоянии in_progress/pending. Остаток только проверяется,
// списание происходит при проведении. При любой ошибке ничего не сохраняется.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.OrderView, error) {
	const op = "create_order"
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(op, time.Since(start)) }()

	in.ClientID = strings.TrimSpace(in.ClientID)
	in.ArticleID = strings.TrimSpace(in.ArticleID)
	fields := log.Fields{"client_id": in.ClientID, "article_id": in.ArticleID, "quantity": in.Quantity}

	if err := s.validator.Struct(in); err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}

	client, err := s.clients.Get(ctx, in.ClientID)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	if !client.Usable() {
		return domain.OrderView{}, s.reject(op, domain.ErrClientInactive, fields)
	}

	article, err := s.articles.Get(ctx, in.ArticleID)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	if !article.Usable() {
		return domain.OrderView{}, s.reject(op, domain.ErrArticleInactive, fields)
	}

	if in.Quantity <= 0 {
		return domain.OrderView{}, s.reject(op, domain.ErrInvalidQuantity, fields)
	}
	if in.Quantity > article.Stock {
		return domain.OrderView{}, s.reject(op, domain.ErrInsufficientStock, fields)
	}

	order := domain.NewOrder(s.newID(), client.ID, article.ID, in.Quantity, article.Price, strings.TrimSpace(in.Notes), s.now())
	if err := s.orders.Create(ctx, order); err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}

	s.metrics.RecordOrderCreated()
	s.logger.WithFields(fields).WithField("order_id", order.ID).WithField("total", order.Total().StringFixed(2)).Info("order created")

	return domain.OrderView{
		Order:              order,
		ClientName:         client.Name,
		ClientFirstName:    client.FirstName,
		ArticleDesignation: article.Designation,
	}, nil
}

// Validate проводит заказ: повторно читает статью, проверяет остаток и одной транзакцией
// списывает его и переводит заказ в validated/processed.
func (s *Service) Validate(ctx context.Context, id string) (domain.OrderView, error) {
	const op = "validate_order"
	start := time.Now()
	defer func() { s.metrics.ObserveOperation(op, time.Since(start)) }()
	fields := log.Fields{"order_id": id}

	view, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	switch {
	case view.IsValidated():
		return domain.OrderView{}, s.reject(op, domain.ErrAlreadyValidated, fields)
	case view.IsCancelled():
		return domain.OrderView{}, s.reject(op, domain.ErrOrderCancelled, fields)
	}

	// Остаток мог измениться с момента оформления.
	article, err := s.articles.Get(ctx, view.ArticleID)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	if !article.Usable() {
		return domain.OrderView{}, s.reject(op, domain.ErrArticleInactive, fields)
	}
	if article.Stock < view.Quantity() {
		return domain.OrderView{}, s.reject(op, domain.ErrInsufficientStock, fields)
	}

	order := view.Order
	order.MarkValidated(s.now())
	if err := s.orders.CommitValidation(ctx, order); err != nil {
		if domain.Kind(err) == domain.ErrInsufficientStock {
			s.metrics.RecordStockDecrement(false)
		}
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	s.metrics.RecordStockDecrement(true)
	s.metrics.RecordTransition("validate")

	view.Order = order
	logger := s.logger.WithFields(fields).WithField("article_id", article.ID)

	// Остаток перечитывается после коммита: параллельные проведения могли списать ещё.
	fresh, err := s.articles.Get(ctx, article.ID)
	if err != nil {
		logger.WithError(err).Warn("order validated, stock re-read failed")
		return view, nil
	}
	if s.lowStock != nil {
		s.lowStock.WarnIfLowStock(fresh)
	}

	logger.WithField("stock_left", fresh.Stock).Info("order validated")
	return view, nil
}

// Cancel отменяет заказ. Проведённый заказ тоже можно отменить, но остаток не возвращается.
func (s *Service) Cancel(ctx context.Context, id string) (domain.OrderView, error) {
	const op = "cancel_order"
	fields := log.Fields{"order_id": id}

	view, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	if view.IsCancelled() {
		return domain.OrderView{}, s.reject(op, domain.ErrAlreadyCancelled, fields)
	}

	wasValidated := view.IsValidated()
	if err := s.orders.MarkCancelled(ctx, id); err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}

	view.MarkCancelled()
	s.metrics.RecordTransition("cancel")
	s.logger.WithFields(fields).WithField("was_validated", wasValidated).Info("order cancelled")
	return view, nil
}

// Modify меняет количество и примечание заказа в работе. Остаток при этом не проверяется:
// проверка выполняется при проведении.
func (s *Service) Modify(ctx context.Context, id string, in ModifyInput) (domain.OrderView, error) {
	const op = "modify_order"
	fields := log.Fields{"order_id": id}

	view, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	switch {
	case view.IsValidated():
		return domain.OrderView{}, s.reject(op, domain.ErrAlreadyValidated, fields)
	case view.IsCancelled():
		return domain.OrderView{}, s.reject(op, domain.ErrOrderCancelled, fields)
	}

	if in.Quantity != nil {
		if *in.Quantity <= 0 {
			return domain.OrderView{}, s.reject(op, domain.ErrInvalidQuantity, fields)
		}
		view.SetQuantity(*in.Quantity)
	}
	if in.Notes != nil {
		view.Notes = strings.TrimSpace(*in.Notes)
	}

	// Запись условная: если заказ успели провести или отменить после чтения, ничего не меняется.
	if err := s.orders.UpdateInProgress(ctx, view.Order); err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}

	s.metrics.RecordTransition("modify")
	return view, nil
}

// Deliver отмечает проведённый заказ доставленным; тип заказа остаётся validated.
func (s *Service) Deliver(ctx context.Context, id string) (domain.OrderView, error) {
	const op = "deliver_order"
	fields := log.Fields{"order_id": id}

	view, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	if !view.IsValidated() || view.Status != domain.OrderStatusProcessed {
		return domain.OrderView{}, s.reject(op, domain.ErrNotDeliverable, fields)
	}

	if err := s.orders.MarkDelivered(ctx, id); err != nil {
		return domain.OrderView{}, s.reject(op, err, fields)
	}
	view.MarkDelivered()

	s.metrics.RecordTransition("deliver")
	s.logger.WithFields(fields).Info("order delivered")
	return view, nil
}

// Get возвращает заказ с полями клиента и статьи.
func (s *Service) Get(ctx context.Context, id string) (domain.OrderView, error) {
	view, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.OrderView{}, s.reject("get_order", err, log.Fields{"order_id": id})
	}
	return view, nil
}

// ListAll возвращает все заказы от новых к старым.
func (s *Service) ListAll(ctx context.Context) ([]domain.OrderView, error) {
	return s.list(ctx, "list_orders", domain.OrderFilter{})
}

// ListByStatus возвращает заказы с указанным статусом.
func (s *Service) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.OrderView, error) {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return nil, s.reject("list_orders_by_status", err, log.Fields{"status": status})
	}
	return s.list(ctx, "list_orders_by_status", domain.OrderFilter{Status: status})
}

// ListByType возвращает заказы указанного типа.
func (s *Service) ListByType(ctx context.Context, orderType domain.OrderType) ([]domain.OrderView, error) {
	if _, err := domain.ParseOrderType(string(orderType)); err != nil {
		return nil, s.reject("list_orders_by_type", err, log.Fields{"type": orderType})
	}
	return s.list(ctx, "list_orders_by_type", domain.OrderFilter{Type: orderType})
}

// ListByClient возвращает заказы клиента.
func (s *Service) ListByClient(ctx context.Context, clientID string) ([]domain.OrderView, error) {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return nil, s.reject("list_orders_by_client", domain.ErrIDRequired, nil)
	}
	return s.list(ctx, "list_orders_by_client", domain.OrderFilter{ClientID: clientID})
}

// TotalValidatedAmount суммирует сумму проведённых заказов; 0, если таких нет.
func (s *Service) TotalValidatedAmount(ctx context.Context) (decimal.Decimal, error) {
	total, err := s.orders.ValidatedTotal(ctx)
	if err != nil {
		return decimal.Zero, s.reject("total_validated_amount", err, nil)
	}
	return total, nil
}

// Stats возвращает количество заказов по статусам и сумму проведённых.
func (s *Service) Stats(ctx context.Context) (domain.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return domain.OrderStats{}, s.reject("order_stats", err, nil)
	}
	return stats, nil
}

func (s *Service) list(ctx context.Context, op string, filter domain.OrderFilter) ([]domain.OrderView, error) {
	views, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.reject(op, err, nil)
	}
	return views, nil
}

func (s *Service) reject(op string, err error, fields log.Fields) error {
	return svcerr.Reject(s.logger, s.metrics, op, err, fields)
}
