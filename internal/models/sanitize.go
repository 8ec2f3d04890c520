package models

import (
	"context"
	"errors"
	"strings"
)

// GenericErrorMessage is shown when an error matches no known pattern.
const GenericErrorMessage = "Ocorreu um erro. Por favor, tente novamente."

const (
	msgConnection = "Erro de conexão. Verifique sua internet e tente novamente."
	msgTimeout    = "A operação demorou muito. Por favor, tente novamente."
)

type messageRule struct {
	match   string
	message string
}

// Auth provider texts are matched exactly.
var authMessages = map[string]string{
	"Invalid login credentials":                        "Email ou senha incorretos",
	"Email not confirmed":                              "Por favor, confirme seu email antes de fazer login",
	"User already registered":                          "Este email já está cadastrado",
	"Password should be at least 6 characters":         "A senha deve ter no mínimo 6 caracteres",
	"Unable to validate email address: invalid format": "Formato de email inválido",
	"Signup requires a valid password":                 "Senha inválida",
	"Token has expired or is invalid":                  "Sessão expirada. Por favor, faça login novamente",
}

// Store texts are matched as lowercase substrings, in order.
var storeRules = []messageRule{
	{"duplicate key value violates unique constraint", "Este valor já está em uso"},
	{"unique constraint failed", "Este valor já está em uso"},
	{"violates foreign key constraint", "Referência inválida"},
	{"foreign key constraint failed", "Referência inválida"},
	{"violates not-null constraint", "Campo obrigatório não preenchido"},
	{"not null constraint failed", "Campo obrigatório não preenchido"},
	{"permission denied", "Você não tem permissão para realizar esta ação"},
	{"row-level security", "Você não tem permissão para acessar este recurso"},
	{"timeout", msgTimeout},
	{"deadline exceeded", msgTimeout},
	{"connection refused", msgConnection},
	{"connection reset", msgConnection},
	{"network", msgConnection},
	{"no such host", msgConnection},
	{"failed to connect", msgConnection},
}

// SanitizeAuthMessage translates a known authentication failure text.
func SanitizeAuthMessage(raw string) string {
	if msg, ok := authMessages[raw]; ok {
		return msg
	}
	return GenericErrorMessage
}

// SanitizeStoreError turns a persistence error into a localized message that
// never echoes backend text.
func SanitizeStoreError(err error) string {
	if err == nil {
		return GenericErrorMessage
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimeout
	}
	raw := strings.ToLower(err.Error())
	for _, rule := range storeRules {
		if strings.Contains(raw, rule.match) {
			return rule.message
		}
	}
	return GenericErrorMessage
}

// SanitizeInput removes NUL bytes and surrounding whitespace from user text.
func SanitizeInput(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
