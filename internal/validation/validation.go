// Package validation проверяет входные структуры сервисов тегами validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vladislavdragonenkov/orderdesk/internal/domain"
)

// Validator: потокобезопасная обёртка над validator.Validate с кешем схем структур.
type Validator struct {
	validate *validator.Validate
}

// New создаёт валидатор, использующий имена полей из json-тегов в сообщениях.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct проверяет структуру и возвращает ErrInvalidArgument с перечнем нарушенных полей.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: invalid fields: %s", domain.ErrInvalidArgument, strings.Join(fields, ", "))
}
