package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeAuthRequired  = "AUTH_REQUIRED"
	CodeForbidden     = "FORBIDDEN"
	CodeNotFound      = "NOT_FOUND"
	CodeStore         = "STORE_ERROR"
	CodeConfiguration = "CONFIGURATION_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

// AppError represents a classified application error
type AppError struct {
	Code    string
	Message string
	Field   string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// notFoundMessages keys are lowercased resource names.
var notFoundMessages = map[string]string{
	"user":     "Usuário não encontrado",
	"category": "Categoria não encontrada",
	"question": "Pergunta não encontrada",
	"answer":   "Resposta não encontrada",
	"reply":    "Comentário não encontrado",
	"badge":    "Medalha não encontrada",
}

// Predefined error constructors

// NewNotFoundError keeps the resource and id in Err for logs; the message is for users.
func NewNotFoundError(resource string, id interface{}) *AppError {
	msg, ok := notFoundMessages[strings.ToLower(resource)]
	if !ok {
		msg = "Recurso não encontrado"
	}
	return &AppError{
		Code:    CodeNotFound,
		Message: msg,
		Err:     fmt.Errorf("%s %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

// NewFieldValidationError ties a validation message to one input field.
func NewFieldValidationError(field, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

func NewAuthRequiredError(message string) *AppError {
	return &AppError{
		Code:    CodeAuthRequired,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewStoreError wraps a persistence failure. The message shown to users is sanitized;
// the raw error is only kept for logs.
func NewStoreError(err error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Message: SanitizeStoreError(err),
		Err:     err,
	}
}

// NewConfigurationError is for operator-facing problems such as a malformed badge catalog.
func NewConfigurationError(message string) *AppError {
	return &AppError{
		Code:    CodeConfiguration,
		Message: message,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeValidation:
		return fiber.StatusBadRequest
	case CodeAuthRequired:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	case CodeNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes a standardized error response. Raw store errors never reach the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
			Field: appErr.Field,
		}
		if appErr.Code == CodeConfiguration {
			response = ErrorResponse{Error: GenericErrorMessage, Code: CodeStore}
		}
	} else {
		response = ErrorResponse{
			Error: SanitizeStoreError(err),
			Code:  CodeStore,
		}
	}

	return c.Status(status).JSON(response)
}
