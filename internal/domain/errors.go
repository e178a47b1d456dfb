package domain

import (
	"errors"
	"fmt"
)

// Корневые категории ошибок. Любая ошибка сервисного слоя оборачивает ровно одну из них.
var (
	// ErrNotFound: запись отсутствует или не может участвовать в новой ссылке.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument: некорректные входные данные (количество, остаток, перечисления).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientStock: на складе меньше единиц, чем требуется.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrIllegalStateTransition: операция недопустима в текущем состоянии заказа.
	ErrIllegalStateTransition = errors.New("illegal state transition")
	// ErrPersistence: сбой хранилища.
	ErrPersistence = errors.New("persistence error")
)

var (
	ErrClientNotFound  = fmt.Errorf("client %w", ErrNotFound)
	ErrClientInactive  = fmt.Errorf("%w: client is inactive", ErrNotFound)
	ErrArticleNotFound = fmt.Errorf("article %w", ErrNotFound)
	ErrArticleInactive = fmt.Errorf("%w: article is inactive", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)

	ErrInvalidQuantity    = fmt.Errorf("%w: quantity must be greater than zero", ErrInvalidArgument)
	ErrNegativeStock      = fmt.Errorf("%w: stock must be non-negative", ErrInvalidArgument)
	ErrNegativeStockMin   = fmt.Errorf("%w: stock minimum must be non-negative", ErrInvalidArgument)
	ErrNegativePrice      = fmt.Errorf("%w: price must be non-negative", ErrInvalidArgument)
	ErrPriceScale         = fmt.Errorf("%w: price must have at most 2 decimal places", ErrInvalidArgument)
	ErrUnknownSex         = fmt.Errorf("%w: unknown sex", ErrInvalidArgument)
	ErrUnknownClientType  = fmt.Errorf("%w: unknown client type", ErrInvalidArgument)
	ErrUnknownOrderType   = fmt.Errorf("%w: unknown order type", ErrInvalidArgument)
	ErrUnknownOrderStatus = fmt.Errorf("%w: unknown order status", ErrInvalidArgument)
	ErrIDRequired         = fmt.Errorf("%w: id is required", ErrInvalidArgument)
	ErrSearchTermRequired = fmt.Errorf("%w: search term is required", ErrInvalidArgument)

	// ErrAlreadyValidated возвращается при повторной валидации и при попытке изменить проведённый заказ.
	ErrAlreadyValidated = fmt.Errorf("%w: order already validated", ErrIllegalStateTransition)
	// ErrOrderCancelled: отменённый заказ нельзя валидировать или изменять.
	ErrOrderCancelled = fmt.Errorf("%w: order is cancelled", ErrIllegalStateTransition)
	// ErrAlreadyCancelled: повторная отмена, изменений не производится.
	ErrAlreadyCancelled = fmt.Errorf("%w: order already cancelled", ErrIllegalStateTransition)
	// ErrNotDeliverable: доставить можно только проведённый и ещё не доставленный заказ.
	ErrNotDeliverable = fmt.Errorf("%w: order is not deliverable", ErrIllegalStateTransition)
)

// ErrDuplicateID: запись с таким идентификатором уже сохранена.
var ErrDuplicateID = fmt.Errorf("%w: duplicate id", ErrPersistence)

var kinds = []error{
	ErrNotFound,
	ErrInvalidArgument,
	ErrInsufficientStock,
	ErrIllegalStateTransition,
	ErrPersistence,
}

// Kind возвращает корневую категорию ошибки или nil, если ошибка не классифицирована.
func Kind(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// PersistenceError оборачивает ошибку хранилища, скрывая её от вызывающей стороны.
// Уже классифицированные ошибки возвращаются как есть.
func PersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, ErrPersistence)
}
