package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceScale: число знаков после запятой, которое хранится для цены и суммы.
const PriceScale = 2

// Article: складская позиция, доступная для заказа.
type Article struct {
	ID           string
	Designation  string
	Category     string
	Price        decimal.Decimal
	Stock        int
	StockMinimum int
	Description  string
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Active       bool
}

// Validate проверяет числовые инварианты статьи и возвращает список замечаний.
func (a *Article) Validate() []error {
	var errs []error

	if a.Price.IsNegative() {
		errs = append(errs, ErrNegativePrice)
	}
	// Хранилища держат цену и сумму как NUMERIC(.., 2); лишние знаки округлились бы по-разному.
	if !a.Price.Equal(a.Price.Round(PriceScale)) {
		errs = append(errs, ErrPriceScale)
	}
	if a.Stock < 0 {
		errs = append(errs, ErrNegativeStock)
	}
	if a.StockMinimum < 0 {
		errs = append(errs, ErrNegativeStockMin)
	}

	return errs
}

// Usable сообщает, можно ли ссылаться на статью из нового заказа.
func (a *Article) Usable() bool {
	return a.Active
}

// IsLowStock: остаток опустился до порога оповещения или ниже.
func (a *Article) IsLowStock() bool {
	return a.Stock <= a.StockMinimum
}

// AddStock увеличивает остаток без верхней границы.
func (a *Article) AddStock(qty int, now time.Time) {
	a.Stock += qty
	a.ModifiedAt = now
}

// RemoveStock списывает qty единиц. При нехватке состояние не меняется.
func (a *Article) RemoveStock(qty int, now time.Time) error {
	if a.Stock < qty {
		return ErrInsufficientStock
	}
	a.Stock -= qty
	a.ModifiedAt = now
	return nil
}

// SetStock перезаписывает остаток.
func (a *Article) SetStock(stock int, now time.Time) error {
	if stock < 0 {
		return ErrNegativeStock
	}
	a.Stock = stock
	a.ModifiedAt = now
	return nil
}

// Activate включает статью.
func (a *Article) Activate(now time.Time) {
	a.Active = true
	a.ModifiedAt = now
}

// Deactivate выключает статью.
func (a *Article) Deactivate(now time.Time) {
	a.Active = false
	a.ModifiedAt = now
}
