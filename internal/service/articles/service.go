// Package articles управляет складскими позициями: карточки, остатки, низкий остаток
// и атомарное списание под заказ.
package articles

import (
	"context"
	"errors"
	"fmt"
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

// CreateInput: поля новой статьи.
type CreateInput struct {
	Designation  string          `json:"designation" validate:"required"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock" validate:"gte=0"`
	StockMinimum int             `json:"stock_minimum" validate:"gte=0"`
	Description  string          `json:"description"`
}

// UpdateInput: частичное обновление: nil оставляет текущее значение.
// Остаток меняется отдельной операцией SetStock.
type UpdateInput struct {
	Designation  *string          `json:"designation,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	StockMinimum *int             `json:"stock_minimum,omitempty"`
	Description  *string          `json:"description,omitempty"`
}

var errBlankDesignation = fmt.Errorf("%w: designation must not be empty", domain.ErrInvalidArgument)

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics подключает метрики склада.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service оркестрирует операции над статьями поверх ArticleRepository.
type Service struct {
	repo      domain.ArticleRepository
	validator *validation.Validator
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	now       func() time.Time
	newID     func() string
}

// NewService создаёт сервис статей.
func NewService(repo domain.ArticleRepository, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "articles")
	}
	s := &Service{
		repo:      repo,
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

// Create сохраняет активную статью с новым идентификатором.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Article, error) {
	in.Designation = strings.TrimSpace(in.Designation)
	if err := s.validator.Struct(in); err != nil {
		return domain.Article{}, s.reject("create_article", err, nil)
	}

	now := s.now()
	article := domain.Article{
		ID:           s.newID(),
		Designation:  in.Designation,
		Category:     strings.TrimSpace(in.Category),
		Price:        in.Price,
		Stock:        in.Stock,
		StockMinimum: in.StockMinimum,
		Description:  strings.TrimSpace(in.Description),
		CreatedAt:    now,
		ModifiedAt:   now,
		Active:       true,
	}
	if errs := article.Validate(); len(errs) > 0 {
		return domain.Article{}, s.reject("create_article", errors.Join(errs...), nil)
	}

	if err := s.repo.Create(ctx, article); err != nil {
		return domain.Article{}, s.reject("create_article", err, log.Fields{"article_id": article.ID})
	}

	s.logger.WithField("article_id", article.ID).Info("article created")
	return article, nil
}

// Update применяет частичное обновление описательных полей и цены.
// Цена уже оформленных заказов не меняется: она зафиксирована в заказе.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (domain.Article, error) {
	fields := log.Fields{"article_id": id}
	if in.Designation != nil && strings.TrimSpace(*in.Designation) == "" {
		return domain.Article{}, s.reject("update_article", errBlankDesignation, fields)
	}

	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Article{}, s.reject("update_article", err, fields)
	}

	if in.Designation != nil {
		article.Designation = strings.TrimSpace(*in.Designation)
	}
	if in.Category != nil {
		article.Category = strings.TrimSpace(*in.Category)
	}
	if in.Price != nil {
		article.Price = *in.Price
	}
	if in.StockMinimum != nil {
		article.StockMinimum = *in.StockMinimum
	}
	if in.Description != nil {
		article.Description = strings.TrimSpace(*in.Description)
	}
	if errs := article.Validate(); len(errs) > 0 {
		return domain.Article{}, s.reject("update_article", errors.Join(errs...), fields)
	}
	article.ModifiedAt = s.now()

	if err := s.repo.Update(ctx, article); err != nil {
		return domain.Article{}, s.reject("update_article", err, fields)
	}
	return article, nil
}

// SetActive включает или выключает статью. Неактивную статью нельзя заказать.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active, s.now()); err != nil {
		return s.reject("set_article_active", err, log.Fields{"article_id": id})
	}
	s.logger.WithFields(log.Fields{"article_id": id, "active": active}).Info("article activity changed")
	return nil
}

// SetStock перезаписывает остаток. Отрицательное значение отклоняется до обращения к хранилищу.
func (s *Service) SetStock(ctx context.Context, id string, stock int) (domain.Article, error) {
	fields := log.Fields{"article_id": id, "stock": stock}
	if stock < 0 {
		return domain.Article{}, s.reject("set_article_stock", domain.ErrNegativeStock, fields)
	}
	if err := s.repo.SetStock(ctx, id, stock, s.now()); err != nil {
		return domain.Article{}, s.reject("set_article_stock", err, fields)
	}

	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Article{}, s.reject("set_article_stock", err, fields)
	}
	s.WarnIfLowStock(article)
	return article, nil
}

// Get возвращает статью независимо от активности.
func (s *Service) Get(ctx context.Context, id string) (domain.Article, error) {
	article, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Article{}, s.reject("get_article", err, log.Fields{"article_id": id})
	}
	return article, nil
}

// List возвращает все статьи, включая неактивные.
func (s *Service) List(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, "list_articles", domain.ArticleFilter{})
}

// ListActive возвращает только активные статьи.
func (s *Service) ListActive(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, "list_active_articles", domain.ArticleFilter{ActiveOnly: true})
}

// ListLowStock возвращает активные статьи с остатком не выше порога, по возрастанию остатка.
func (s *Service) ListLowStock(ctx context.Context) ([]domain.Article, error) {
	return s.list(ctx, "list_low_stock_articles", domain.ArticleFilter{LowStockOnly: true})
}

// Search ищет подстроку в наименовании или категории без учёта регистра.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Article, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, s.reject("search_articles", domain.ErrSearchTermRequired, nil)
	}
	return s.list(ctx, "search_articles", domain.ArticleFilter{Search: term})
}

// CheckAndDecrementStock списывает qty единиц, если статья существует, активна и остатка хватает.
// Проверка и списание выполняются одним условным обновлением в хранилище.
//
// Это самостоятельный примитив склада для списаний вне заказов (инвентаризация, внешние
// интеграции). Проведение заказа его не вызывает: orders.Service.Validate списывает остаток
// через OrderRepository.CommitValidation, в одной транзакции со сменой состояния заказа.
func (s *Service) CheckAndDecrementStock(ctx context.Context, articleID string, qty int) (bool, error) {
	fields := log.Fields{"article_id": articleID, "quantity": qty}
	if qty <= 0 {
		return false, s.reject("decrement_stock", domain.ErrInvalidQuantity, fields)
	}

	granted, err := s.repo.DecrementStockIfEnough(ctx, articleID, qty, s.now())
	if err != nil {
		return false, s.reject("decrement_stock", err, fields)
	}
	s.metrics.RecordStockDecrement(granted)
	if !granted {
		s.logger.WithFields(fields).Info("stock decrement denied")
		return false, nil
	}

	if article, err := s.repo.Get(ctx, articleID); err == nil {
		s.WarnIfLowStock(article)
	}
	return true, nil
}

// WarnIfLowStock пишет предупреждение, когда остаток опустился до порога.
func (s *Service) WarnIfLowStock(article domain.Article) {
	if !article.Active || !article.IsLowStock() {
		return
	}
	s.metrics.RecordLowStock()
	s.logger.WithFields(log.Fields{
		"article_id":    article.ID,
		"stock":         article.Stock,
		"stock_minimum": article.StockMinimum,
	}).Warn("article stock is low")
}

func (s *Service) list(ctx context.Context, op string, filter domain.ArticleFilter) ([]domain.Article, error) {
	articles, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.reject(op, err, nil)
	}
	return articles, nil
}

func (s *Service) reject(op string, err error, fields log.Fields) error {
	return svcerr.Reject(s.logger, s.metrics, op, err, fields)
}
