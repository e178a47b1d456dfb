package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType: основная ось жизненного цикла заказа.
type OrderType string

const (
	// OrderTypeInProgress: заказ оформлен, склад ещё не списан.
	OrderTypeInProgress OrderType = "in_progress"
	// OrderTypeValidated: заказ проведён, остаток списан.
	OrderTypeValidated OrderType = "validated"
	// OrderTypeCancelled: заказ отменён; конечное состояние.
	OrderTypeCancelled OrderType = "cancelled"
)

// ParseOrderType отклоняет значения вне закрытого набора.
func ParseOrderType(raw string) (OrderType, error) {
	switch t := OrderType(strings.ToLower(strings.TrimSpace(raw))); t {
	case OrderTypeInProgress, OrderTypeValidated, OrderTypeCancelled:
		return t, nil
	default:
		return "", ErrUnknownOrderType
	}
}

// OrderStatus: вторичная метка для отображения и отчётов, меняется вместе с OrderType.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusProcessed OrderStatus = "processed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus отклоняет значения вне закрытого набора.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch s := OrderStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case OrderStatusPending, OrderStatusProcessed, OrderStatusDelivered, OrderStatusCancelled:
		return s, nil
	default:
		return "", ErrUnknownOrderStatus
	}
}

// Order связывает клиента и статью. Количество, цена и сумма доступны только через методы,
// чтобы сумма всегда равнялась цене, умноженной на количество.
type Order struct {
	ID          string
	ClientID    string
	ArticleID   string
	CreatedAt   time.Time
	Type        OrderType
	Status      OrderStatus
	Notes       string
	ValidatedAt *time.Time

	quantity  int
	unitPrice decimal.Decimal
	total     decimal.Decimal
}

// NewOrder создаёт заказ в состоянии in_progress/pending с зафиксированной ценой.
func NewOrder(id, clientID, articleID string, quantity int, unitPrice decimal.Decimal, notes string, now time.Time) Order {
	order := Order{
		ID:        id,
		ClientID:  clientID,
		ArticleID: articleID,
		CreatedAt: now,
		Notes:     notes,
	}
	order.SetUnitPrice(unitPrice)
	order.SetQuantity(quantity)
	order.MarkInProgress()
	return order
}

// Quantity возвращает количество единиц.
func (o *Order) Quantity() int { return o.quantity }

// UnitPrice возвращает цену за единицу на момент оформления.
func (o *Order) UnitPrice() decimal.Decimal { return o.unitPrice }

// Total возвращает сумму заказа.
func (o *Order) Total() decimal.Decimal { return o.total }

// SetQuantity меняет количество и сразу пересчитывает сумму.
func (o *Order) SetQuantity(quantity int) {
	o.quantity = quantity
	o.recomputeTotal()
}

// SetUnitPrice меняет цену и сразу пересчитывает сумму.
func (o *Order) SetUnitPrice(price decimal.Decimal) {
	o.unitPrice = price
	o.recomputeTotal()
}

func (o *Order) recomputeTotal() {
	o.total = o.unitPrice.Mul(decimal.NewFromInt(int64(o.quantity)))
}

// MarkInProgress переводит заказ в in_progress/pending.
func (o *Order) MarkInProgress() {
	o.Type = OrderTypeInProgress
	o.Status = OrderStatusPending
}

// MarkValidated переводит заказ в validated/processed и фиксирует момент валидации.
func (o *Order) MarkValidated(now time.Time) {
	o.Type = OrderTypeValidated
	o.Status = OrderStatusProcessed
	validatedAt := now
	o.ValidatedAt = &validatedAt
}

// MarkCancelled переводит заказ в cancelled/cancelled.
func (o *Order) MarkCancelled() {
	o.Type = OrderTypeCancelled
	o.Status = OrderStatusCancelled
}

// MarkDelivered меняет только вторичный статус: заказ остаётся проведённым.
func (o *Order) MarkDelivered() {
	o.Status = OrderStatusDelivered
}

func (o *Order) IsInProgress() bool { return o.Type == OrderTypeInProgress }
func (o *Order) IsValidated() bool  { return o.Type == OrderTypeValidated }
func (o *Order) IsCancelled() bool  { return o.Type == OrderTypeCancelled }

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ClientID == "" || o.ArticleID == "" {
		errs = append(errs, ErrIDRequired)
	}
	if o.quantity <= 0 {
		errs = append(errs, ErrInvalidQuantity)
	}
	if o.unitPrice.IsNegative() {
		errs = append(errs, ErrNegativePrice)
	}
	if _, err := ParseOrderType(string(o.Type)); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseOrderStatus(string(o.Status)); err != nil {
		errs = append(errs, err)
	}

	return errs
}

// OrderView: заказ с денормализованными полями клиента и статьи (только для чтения).
type OrderView struct {
	Order
	ClientName         string
	ClientFirstName    string
	ArticleDesignation string
}

// OrderStats: агрегаты по заказам.
type OrderStats struct {
	Pending         int
	Processed       int
	Delivered       int
	Cancelled       int
	ValidatedAmount decimal.Decimal
}
