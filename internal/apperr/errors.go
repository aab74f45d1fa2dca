package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind классифицирует ошибку согласно принятой таксономии:
// ошибка клиента, отсутствие записи, сбой внешнего API или временный сбой инфраструктуры.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindUpstream
	KindTransient
)

// FieldError описывает нарушение по конкретному полю запроса
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error представляет классифицированную ошибку приложения
type Error struct {
	Kind           Kind
	Message        string
	Fields         []FieldError
	UpstreamStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation создает ошибку валидации со списком нарушенных полей
func Validation(fields []FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NotFound создает ошибку отсутствия записи
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Upstream создает ошибку внешнего API с его статус-кодом
func Upstream(message string, status int, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, UpstreamStatus: status, Err: err}
}

// Transient создает ошибку временного сбоя инфраструктуры
func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Message: message, Err: err}
}

// HTTPStatus возвращает HTTP статус-код для ошибки.
// Сбои внешних API транслируют 429 и 402 как есть, остальные статусы становятся 500.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		switch e.UpstreamStatus {
		case http.StatusTooManyRequests:
			return http.StatusTooManyRequests
		case http.StatusPaymentRequired:
			return http.StatusPaymentRequired
		default:
			return http.StatusInternalServerError
		}
	default:
		return http.StatusInternalServerError
	}
}

// From извлекает *Error из цепочки ошибок, либо возвращает nil
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}
