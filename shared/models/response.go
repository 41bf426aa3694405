package models

// Коды ошибок, которые видит клиент.
const (
	ErrCodeBadRequest        = 40000
	ErrCodeValidation        = 40001
	ErrCodeInvalidCategory   = 40002
	ErrCodeNotFound          = 40400
	ErrCodeEventNotFound     = 40401
	ErrCodeUserNotFound      = 40402
	ErrCodeTicketNotFound    = 40403
	ErrCodeEventFull         = 40901
	ErrCodeAlreadyRegistered = 40902
	ErrCodeEventPast         = 40903
	ErrCodeDuplicateEmail    = 40904
	ErrCodeTooManyRequests   = 42900
	ErrCodeInternal          = 50000
)

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
