// Package clients управляет карточками клиентов: создание, частичное обновление,
// мягкое удаление через флаг активности и поиск.
package clients

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
	"github.com/vladislavdragonenkov/orderdesk/internal/metrics"
	"github.com/vladislavdragonenkov/orderdesk/internal/service/svcerr"
	"github.com/vladislavdragonenkov/orderdesk/internal/validation"
)

// CreateInput: поля нового клиента. Формат email и контакта не проверяется.
type CreateInput struct {
	Name      string `json:"name" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	Sex       string `json:"sex" validate:"required"`
	Type      string `json:"type" validate:"required"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// UpdateInput: частичное обновление: nil оставляет текущее значение.
type UpdateInput struct {
	Name      *string `json:"name,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	Sex       *string `json:"sex,omitempty"`
	Type      *string `json:"type,omitempty"`
	Contact   *string `json:"contact,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// Option настраивает Service.
type Option func(*Service)

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics подключает метрики отказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service оркестрирует операции над клиентами поверх ClientRepository.
type Service struct {
	repo      domain.ClientRepository
	validator *validation.Validator
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	now       func() time.Time
	newID     func() string
}

// NewService создаёт сервис клиентов.
func NewService(repo domain.ClientRepository, logger *log.Entry, opts ...Option) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "clients")
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

// Create сохраняет клиента с новым идентификатором; клиент активен с момента создания.
// При ошибке хранилища частично созданный объект не возвращается.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.Client, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.FirstName = strings.TrimSpace(in.FirstName)
	if err := s.validator.Struct(in); err != nil {
		return domain.Client{}, s.reject("create_client", err, nil)
	}

	sex, err := domain.ParseSex(in.Sex)
	if err != nil {
		return domain.Client{}, s.reject("create_client", err, nil)
	}
	clientType, err := domain.ParseClientType(in.Type)
	if err != nil {
		return domain.Client{}, s.reject("create_client", err, nil)
	}

	client := domain.Client{
		ID:        s.newID(),
		Name:      in.Name,
		FirstName: in.FirstName,
		Sex:       sex,
		Type:      clientType,
		Contact:   strings.TrimSpace(in.Contact),
		Email:     strings.TrimSpace(in.Email),
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: s.now(),
		Active:    true,
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return domain.Client{}, s.reject("create_client", err, log.Fields{"client_id": client.ID})
	}

	s.logger.WithField("client_id", client.ID).Info("client created")
	return client, nil
}

// Update применяет частичное обновление. Активность меняется только через SetActive.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (domain.Client, error) {
	fields := log.Fields{"client_id": id}
	if blank(in.Name) || blank(in.FirstName) {
		return domain.Client{}, s.reject("update_client", errBlankName, fields)
	}

	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Client{}, s.reject("update_client", err, fields)
	}

	if in.Name != nil {
		client.Name = strings.TrimSpace(*in.Name)
	}
	if in.FirstName != nil {
		client.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.Sex != nil {
		if client.Sex, err = domain.ParseSex(*in.Sex); err != nil {
			return domain.Client{}, s.reject("update_client", err, fields)
		}
	}
	if in.Type != nil {
		if client.Type, err = domain.ParseClientType(*in.Type); err != nil {
			return domain.Client{}, s.reject("update_client", err, fields)
		}
	}
	if in.Contact != nil {
		client.Contact = strings.TrimSpace(*in.Contact)
	}
	if in.Email != nil {
		client.Email = strings.TrimSpace(*in.Email)
	}
	if in.Address != nil {
		client.Address = strings.TrimSpace(*in.Address)
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return domain.Client{}, s.reject("update_client", err, fields)
	}
	return client, nil
}

// SetActive включает или выключает клиента. Существующие заказы не затрагиваются.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return s.reject("set_client_active", err, log.Fields{"client_id": id})
	}
	s.logger.WithFields(log.Fields{"client_id": id, "active": active}).Info("client activity changed")
	return nil
}

// Get возвращает клиента независимо от активности.
func (s *Service) Get(ctx context.Context, id string) (domain.Client, error) {
	client, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Client{}, s.reject("get_client", err, log.Fields{"client_id": id})
	}
	return client, nil
}

// List возвращает всех клиентов, включая неактивных.
func (s *Service) List(ctx context.Context) ([]domain.Client, error) {
	return s.list(ctx, "list_clients", domain.ClientFilter{})
}

// ListActive возвращает только активных клиентов.
func (s *Service) ListActive(ctx context.Context) ([]domain.Client, error) {
	return s.list(ctx, "list_active_clients", domain.ClientFilter{ActiveOnly: true})
}

// Search ищет подстроку в фамилии или имени без учёта регистра.
func (s *Service) Search(ctx context.Context, term string) ([]domain.Client, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, s.reject("search_clients", domain.ErrSearchTermRequired, nil)
	}
	return s.list(ctx, "search_clients", domain.ClientFilter{Search: term})
}

func (s *Service) list(ctx context.Context, op string, filter domain.ClientFilter) ([]domain.Client, error) {
	clients, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.reject(op, err, nil)
	}
	return clients, nil
}

var errBlankName = fmt.Errorf("%w: name and first name must not be empty", domain.ErrInvalidArgument)

func blank(value *string) bool {
	return value != nil && strings.TrimSpace(*value) == ""
}

func (s *Service) reject(op string, err error, fields log.Fields) error {
	return svcerr.Reject(s.logger, s.metrics, op, err, fields)
}
