package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

type clientRepository struct {
	db *gorm.DB
}

func (r *clientRepository) Create(ctx context.Context, client domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	record := clientToRecord(client)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert client: %w", err)
	}
	return nil
}

func (r *clientRepository) Update(ctx context.Context, client domain.Client) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&clientRecord{}).Where("id = ?", client.ID).Updates(map[string]any{
		"name":        client.Name,
		"first_name":  client.FirstName,
		"sex":         string(client.Sex),
		"client_type": string(client.Type),
		"contact":     client.Contact,
		"email":       client.Email,
		"address":     client.Address,
	})
	if err := ensureAffected(db, result, &clientRecord{}, client.ID, domain.ErrClientNotFound); err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return err
		}
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id string) (domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var record clientRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Client{}, domain.ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("select client: %w", err)
	}
	return record.toDomain(), nil
}

func (r *clientRepository) List(ctx context.Context, filter domain.ClientFilter) ([]domain.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := r.db.WithContext(ctx).Model(&clientRecord{})
	if filter.ActiveOnly {
		query = query.Where("active = ?", true)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("("+likeClause("name")+" OR "+likeClause("first_name")+")", pattern, pattern)
	}

	var records []clientRecord
	if err := query.Order("name").Order("first_name").Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	clients := make([]domain.Client, 0, len(records))
	for _, record := range records {
		clients = append(clients, record.toDomain())
	}
	return clients, nil
}

func (r *clientRepository) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&clientRecord{}).Where("id = ?", id).Update("active", active)
	if err := ensureAffected(db, result, &clientRecord{}, id, domain.ErrClientNotFound); err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			return err
		}
		return fmt.Errorf("set client active: %w", err)
	}
	return nil
}

var _ domain.ClientRepository = (*clientRepository)(nil)
