// Package errs содержит типизированные ошибки сервиса и их маппинг на HTTP-статусы.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind - машинный код ошибки.
type Kind string

// Коды ошибок.
const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindConflict     Kind = "CONFLICT"
	KindAccessDenied Kind = "ACCESS_DENIED"
	KindNotFound     Kind = "NOT_FOUND"
	KindInternal     Kind = "INTERNAL_ERROR"
)

// statusByKind - HTTP-статусы по коду.
var statusByKind = map[Kind]int{
	KindValidation:   http.StatusBadRequest,
	KindConflict:     http.StatusConflict,
	KindAccessDenied: http.StatusForbidden,
	KindNotFound:     http.StatusNotFound,
	KindInternal:     http.StatusInternalServerError,
}

// Error - ошибка приложения: машинный код плюс человекочитаемое сообщение.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error реализует error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap отдаёт обёрнутую ошибку для errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus возвращает подходящий HTTP-статус для кода ошибки.
func (e *Error) HTTPStatus() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Validation - ошибка валидации входных данных (4xx, мутаций не было).
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict - нарушение уникальности; вызывающий может повторить с новой аллокацией.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// AccessDenied - у вызывающего нет гранта на запрошенный scope.
func AccessDenied(format string, args ...any) *Error {
	return &Error{Kind: KindAccessDenied, Message: fmt.Sprintf(format, args...)}
}

// NotFound - ссылка на отсутствующий тикет/спринт/проект.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal оборачивает ошибку хранилища; наружу уходит непрозрачное сообщение.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// KindOf возвращает код ошибки или KindInternal для нетипизированных ошибок.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind сообщает, имеет ли ошибка указанный код.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
