package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind — класс ошибки предметной области. Обработчики переводят Kind
// в HTTP-статус, сами операции оперируют только классами.
type Kind int

const (
	// Пользователь авторизован, но не привязан к компании
	Authorization Kind = iota
	// База компании недоступна; безопасно повторить следующим запросом
	Infrastructure
	// Запись не найдена
	NotFound
	// Операция запрещена бизнес-инвариантом (не правами доступа)
	Permission
	// Входные данные нарушают бизнес-правило
	Validation
	// Отсутствует обязательная конфигурация (нет активной версии, нет курса)
	Domain
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New создает ошибку заданного класса с готовым сообщением для пользователя.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap сохраняет исходную причину для логов, наружу уходит только Msg.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Is сообщает, относится ли err к классу kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// HTTPStatus возвращает статус ответа для ошибки.
// Неклассифицированные ошибки считаются внутренними.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case Authorization:
		return http.StatusForbidden
	case Infrastructure:
		return http.StatusInternalServerError
	case NotFound:
		return http.StatusNotFound
	case Permission:
		return http.StatusConflict
	case Validation:
		return http.StatusBadRequest
	case Domain:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
