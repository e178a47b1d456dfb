package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const orderViewColumns = `o.id, o.client_id, o.article_id, o.quantity, o.unit_price, o.created_at,
	o.order_type, o.status, o.notes, o.validated_at,
	c.name AS client_name, c.first_name AS client_first_name, a.designation AS article_designation`

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	record := orderToRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrDuplicateID
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateInProgress пишет изменяемые поля условным UPDATE: строка меняется, только пока заказ in_progress.
func (r *orderRepository) UpdateInProgress(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&orderRecord{}).
		Where("id = ? AND order_type = ?", order.ID, string(domain.OrderTypeInProgress)).
		Updates(map[string]any{
			"quantity":   order.Quantity(),
			"unit_price": order.UnitPrice(),
			"total":      order.Total(),
			"notes":      order.Notes,
		})
	if result.Error != nil {
		return fmt.Errorf("update order: %w", result.Error)
	}
	return explainSkipped(db, result, order.ID, func(current orderRecord) error {
		switch domain.OrderType(current.OrderType) {
		case domain.OrderTypeInProgress:
			return nil
		case domain.OrderTypeCancelled:
			return domain.ErrOrderCancelled
		default:
			return domain.ErrAlreadyValidated
		}
	})
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&orderRecord{}).
		Where("id = ? AND order_type <> ?", id, string(domain.OrderTypeCancelled)).
		Updates(map[string]any{
			"order_type": string(domain.OrderTypeCancelled),
			"status":     string(domain.OrderStatusCancelled),
		})
	if result.Error != nil {
		return fmt.Errorf("cancel order: %w", result.Error)
	}
	return explainSkipped(db, result, id, func(orderRecord) error {
		return domain.ErrAlreadyCancelled
	})
}

func (r *orderRepository) MarkDelivered(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)
	result := db.Model(&orderRecord{}).
		Where("id = ? AND order_type = ? AND status = ?",
			id, string(domain.OrderTypeValidated), string(domain.OrderStatusProcessed)).
		Update("status", string(domain.OrderStatusDelivered))
	if result.Error != nil {
		return fmt.Errorf("deliver order: %w", result.Error)
	}
	return explainSkipped(db, result, id, func(orderRecord) error {
		return domain.ErrNotDeliverable
	})
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rows []orderViewRow
	if err := r.viewQuery(ctx).Where("o.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return domain.OrderView{}, fmt.Errorf("select order: %w", err)
	}
	if len(rows) == 0 {
		return domain.OrderView{}, domain.ErrOrderNotFound
	}
	return rows[0].toDomain(), nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := r.viewQuery(ctx)
	if filter.Type != "" {
		query = query.Where("o.order_type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		query = query.Where("o.status = ?", string(filter.Status))
	}
	if filter.ClientID != "" {
		query = query.Where("o.client_id = ?", filter.ClientID)
	}

	var rows []orderViewRow
	if err := query.Order("o.created_at DESC").Order("o.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	views := make([]domain.OrderView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toDomain())
	}
	return views, nil
}

// CommitValidation переводит заказ условным UPDATE (только из in_progress) и списывает остаток
// в одной транзакции; при нехватке остатка транзакция откатывается целиком.
func (r *orderRepository) CommitValidation(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	now := time.Now().UTC()
	if order.ValidatedAt != nil {
		now = *order.ValidatedAt
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current orderRecord
		if err := tx.Where("id = ?", order.ID).Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrOrderNotFound
			}
			return fmt.Errorf("select order: %w", err)
		}

		result := tx.Model(&orderRecord{}).
			Where("id = ? AND order_type = ?", order.ID, string(domain.OrderTypeInProgress)).
			Updates(map[string]any{
				"order_type":   string(domain.OrderTypeValidated),
				"status":       string(domain.OrderStatusProcessed),
				"validated_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("mark order validated: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			if domain.OrderType(current.OrderType) == domain.OrderTypeCancelled {
				return domain.ErrOrderCancelled
			}
			return domain.ErrAlreadyValidated
		}

		decremented, err := decrementStock(tx, current.ArticleID, current.Quantity, now)
		if err != nil {
			return err
		}
		if !decremented {
			return domain.ErrInsufficientStock
		}
		return nil
	})
}

func (r *orderRepository) ValidatedTotal(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	return validatedTotal(r.db.WithContext(ctx))
}

func (r *orderRepository) Stats(ctx context.Context) (domain.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db := r.db.WithContext(ctx)

	var counts []struct {
		Status string
		Count  int
	}
	if err := db.Model(&orderRecord{}).Select("status, COUNT(*) AS count").Group("status").Scan(&counts).Error; err != nil {
		return domain.OrderStats{}, fmt.Errorf("count orders by status: %w", err)
	}

	var stats domain.OrderStats
	for _, c := range counts {
		switch domain.OrderStatus(c.Status) {
		case domain.OrderStatusPending:
			stats.Pending = c.Count
		case domain.OrderStatusProcessed:
			stats.Processed = c.Count
		case domain.OrderStatusDelivered:
			stats.Delivered = c.Count
		case domain.OrderStatusCancelled:
			stats.Cancelled = c.Count
		}
	}

	total, err := validatedTotal(db)
	if err != nil {
		return domain.OrderStats{}, err
	}
	stats.ValidatedAmount = total
	return stats, nil
}

func (r *orderRepository) viewQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("orders AS o").
		Select(orderViewColumns).
		Joins("JOIN clients c ON c.id = o.client_id").
		Joins("JOIN articles a ON a.id = o.article_id")
}

// validatedTotal суммирует в decimal на стороне приложения: SQLite вернул бы SUM как float.
func validatedTotal(db *gorm.DB) (decimal.Decimal, error) {
	var totals []decimal.Decimal
	if err := db.Model(&orderRecord{}).Where("order_type = ?", string(domain.OrderTypeValidated)).Pluck("total", &totals).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum validated orders: %w", err)
	}

	sum := decimal.Zero
	for _, total := range totals {
		sum = sum.Add(total)
	}
	return sum, nil
}

// explainSkipped разбирает условный UPDATE без затронутых строк: нет строки даёт ErrOrderNotFound,
// иначе решает reject по текущему состоянию (nil, если MySQL просто не счёл строку изменённой).
func explainSkipped(db *gorm.DB, result *gorm.DB, id string, reject func(orderRecord) error) error {
	if result.RowsAffected > 0 {
		return nil
	}
	var current orderRecord
	if err := db.Where("id = ?", id).Take(&current).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("select order state: %w", err)
	}
	return reject(current)
}

var _ domain.OrderRepository = (*orderRepository)(nil)
