package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

const orderViewQuery = `
	SELECT o.id, o.client_id, o.article_id, o.quantity, o.unit_price, o.created_at,
	       o.order_type, o.status, o.notes, o.validated_at,
	       c.name, c.first_name, a.designation
	FROM orders o
	JOIN clients c ON c.id = o.client_id
	JOIN articles a ON a.id = o.article_id`

type orderRepository struct {
	db *sql.DB
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (
			id, client_id, article_id, quantity, unit_price, total,
			created_at, order_type, status, notes, validated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		order.ID, order.ClientID, order.ArticleID, order.Quantity(), order.UnitPrice(), order.Total(),
		order.CreatedAt, string(order.Type), string(order.Status), order.Notes, order.ValidatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
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

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET quantity = $1,
		    unit_price = $2,
		    total = $3,
		    notes = $4
		WHERE id = $5 AND order_type = $6
	`,
		order.Quantity(), order.UnitPrice(), order.Total(), order.Notes,
		order.ID, string(domain.OrderTypeInProgress),
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	return r.explainSkipped(ctx, res, order.ID, inProgressRejection)
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET order_type = $1, status = $2
		WHERE id = $3 AND order_type <> $1
	`, string(domain.OrderTypeCancelled), string(domain.OrderStatusCancelled), id)
	if err != nil {
		return fmt.Errorf("cancel order: %w", err)
	}
	return r.explainSkipped(ctx, res, id, func(domain.OrderType, domain.OrderStatus) error {
		return domain.ErrAlreadyCancelled
	})
}

func (r *orderRepository) MarkDelivered(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1
		WHERE id = $2 AND order_type = $3 AND status = $4
	`, string(domain.OrderStatusDelivered), id,
		string(domain.OrderTypeValidated), string(domain.OrderStatusProcessed))
	if err != nil {
		return fmt.Errorf("deliver order: %w", err)
	}
	return r.explainSkipped(ctx, res, id, func(domain.OrderType, domain.OrderStatus) error {
		return domain.ErrNotDeliverable
	})
}

// explainSkipped превращает условный UPDATE без затронутых строк в доменную ошибку:
// ErrOrderNotFound, если строки нет, иначе результат reject по текущему состоянию.
func (r *orderRepository) explainSkipped(
	ctx context.Context,
	res sql.Result,
	id string,
	reject func(domain.OrderType, domain.OrderStatus) error,
) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var orderType, status string
	err = r.db.QueryRowContext(ctx, `SELECT order_type, status FROM orders WHERE id = $1`, id).
		Scan(&orderType, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("select order state: %w", err)
	}
	return reject(domain.OrderType(orderType), domain.OrderStatus(status))
}

func inProgressRejection(orderType domain.OrderType, _ domain.OrderStatus) error {
	if orderType == domain.OrderTypeCancelled {
		return domain.ErrOrderCancelled
	}
	return domain.ErrAlreadyValidated
}

func (r *orderRepository) Get(ctx context.Context, id string) (domain.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	view, err := scanOrderView(r.db.QueryRowContext(ctx, orderViewQuery+` WHERE o.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OrderView{}, domain.ErrOrderNotFound
		}
		return domain.OrderView{}, fmt.Errorf("select order: %w", err)
	}
	return view, nil
}

func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("o.order_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		where = append(where, fmt.Sprintf("o.client_id = $%d", len(args)))
	}

	query := orderViewQuery
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.created_at DESC, o.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	views := make([]domain.OrderView, 0)
	for rows.Next() {
		view, err := scanOrderView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return views, nil
}

// CommitValidation блокирует строку заказа, списывает остаток условным UPDATE и сохраняет заказ.
// Любая ошибка откатывает обе записи.
func (r *orderRepository) CommitValidation(ctx context.Context, order domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer rollback(tx)

	var (
		orderType string
		articleID string
		quantity  int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT order_type, article_id, quantity
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, order.ID).Scan(&orderType, &articleID, &quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrOrderNotFound
		}
		return fmt.Errorf("lock order: %w", err)
	}
	switch domain.OrderType(orderType) {
	case domain.OrderTypeValidated:
		return domain.ErrAlreadyValidated
	case domain.OrderTypeCancelled:
		return domain.ErrOrderCancelled
	}

	now := time.Now().UTC()
	if order.ValidatedAt != nil {
		now = *order.ValidatedAt
	}

	decremented, err := decrementStock(ctx, tx, articleID, quantity, now)
	if err != nil {
		return err
	}
	if !decremented {
		return domain.ErrInsufficientStock
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE orders
		SET order_type = $1,
		    status = $2,
		    validated_at = $3
		WHERE id = $4
	`, string(domain.OrderTypeValidated), string(domain.OrderStatusProcessed), now, order.ID); err != nil {
		return fmt.Errorf("mark order validated: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit validation: %w", err)
	}
	return nil
}

func (r *orderRepository) ValidatedTotal(ctx context.Context) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(total), 0) FROM orders WHERE order_type = $1`,
		string(domain.OrderTypeValidated),
	).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum validated orders: %w", err)
	}
	return total, nil
}

func (r *orderRepository) Stats(ctx context.Context) (domain.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var stats domain.OrderStats
	if err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'processed'),
			COUNT(*) FILTER (WHERE status = 'delivered'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COALESCE(SUM(total) FILTER (WHERE order_type = 'validated'), 0)
		FROM orders
	`).Scan(&stats.Pending, &stats.Processed, &stats.Delivered, &stats.Cancelled, &stats.ValidatedAmount); err != nil {
		return domain.OrderStats{}, fmt.Errorf("order stats: %w", err)
	}
	return stats, nil
}

func scanOrderView(row rowScanner) (domain.OrderView, error) {
	var (
		view        domain.OrderView
		quantity    int
		unitPrice   decimal.Decimal
		orderType   string
		status      string
		validatedAt sql.NullTime
	)
	if err := row.Scan(
		&view.ID, &view.ClientID, &view.ArticleID, &quantity, &unitPrice, &view.CreatedAt,
		&orderType, &status, &view.Notes, &validatedAt,
		&view.ClientName, &view.ClientFirstName, &view.ArticleDesignation,
	); err != nil {
		return domain.OrderView{}, err
	}
	view.SetUnitPrice(unitPrice)
	view.SetQuantity(quantity)
	view.Type = domain.OrderType(orderType)
	view.Status = domain.OrderStatus(status)
	if validatedAt.Valid {
		at := validatedAt.Time
		view.ValidatedAt = &at
	}
	return view, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
