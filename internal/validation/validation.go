// Package validation содержит проверки входных данных панели администратора.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Error описывает нарушение требований к входным данным: критериям выборки,
// параметрам страницы или полезной нагрузке мутации.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Errorf создаёт ошибку валидации для поля field.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// As извлекает ошибку валидации из цепочки err.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// First возвращает первую ненулевую ошибку.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Required проверяет, что строка не пуста после обрезки пробелов.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Errorf(field, "is required")
	}
	return nil
}

// MinLength проверяет минимальную длину строки в символах.
func MinLength(field, value string, n int) error {
	if len([]rune(value)) < n {
		return Errorf(field, "must be at least %d characters", n)
	}
	return nil
}

// Positive проверяет, что сумма строго больше нуля.
func Positive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return Errorf(field, "must be greater than zero")
	}
	return nil
}

// NonNegative проверяет, что сумма не отрицательна.
func NonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return Errorf(field, "must not be negative")
	}
	return nil
}

// PositiveInt проверяет, что целое значение строго больше нуля.
func PositiveInt(field string, v int) error {
	if v <= 0 {
		return Errorf(field, "must be greater than zero")
	}
	return nil
}

// Email проверяет адрес электронной почты.
func Email(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return Errorf(field, "is not a valid e-mail address")
	}
	return nil
}

// OneOf проверяет, что значение входит в список допустимых.
func OneOf[T ~string](field string, value T, allowed ...T) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return Errorf(field, "unsupported value %q", string(value))
}

// Форматы дат, принимаемые в границах диапазона.
const (
	DateLayout     = "2006-01-02"
	MinuteLayout   = "2006-01-02 15:04"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var dateLayouts = []string{DateLayout, MinuteLayout, DateTimeLayout}

// ParseDate разбирает дату в одном из поддерживаемых форматов и возвращает
// использованный формат.
func ParseDate(field, value string) (time.Time, string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout, nil
		}
	}
	return time.Time{}, "", Errorf(field, "unparseable date %q", value)
}
