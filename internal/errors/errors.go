package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind категория ошибки конвейера
type Kind string

const (
	KindDecode         Kind = "decode"         // битые или пустые байты изображения
	KindInvalidInput   Kind = "invalid_input"  // отрицательный возраст/недели, некорректные признаки
	KindModelLoad      Kind = "model_load"     // пакет модели не читается или неполный
	KindClassification Kind = "classification" // модель упала на корректном векторе
	KindInternal       Kind = "internal"       // нарушение внутреннего инварианта
)

// Error структурированная ошибка: категория + сообщение.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// NewDecodeError создаёт ошибку декодирования изображения
func NewDecodeError(message string, cause error) *Error {
	return newError(KindDecode, message, cause)
}

// NewInvalidInputError создаёт ошибку входных данных
func NewInvalidInputError(message string, cause error) *Error {
	return newError(KindInvalidInput, message, cause)
}

// NewModelLoadError создаёт ошибку загрузки модели
func NewModelLoadError(message string, cause error) *Error {
	return newError(KindModelLoad, message, cause)
}

// NewClassificationError создаёт ошибку классификации
func NewClassificationError(message string, cause error) *Error {
	return newError(KindClassification, message, cause)
}

// NewInternalError создаёт внутреннюю ошибку
func NewInternalError(message string, cause error) *Error {
	return newError(KindInternal, message, cause)
}

// KindOf возвращает категорию первой *Error в цепочке.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// IsKind проверяет категорию ошибки
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// HTTPStatus сопоставляет категорию ошибки HTTP-коду.
func HTTPStatus(err error) int {
	kind, ok := KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case KindDecode:
		return http.StatusUnprocessableEntity
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindModelLoad:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
