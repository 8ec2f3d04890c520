// Package validation checks user input before it reaches the services.
// Every failure is a field-level validation error with a message fit for end users.
package validation

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"unajuda/internal/models"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
	minUsernameLen = 3
	maxUsernameLen = 30
	maxEmailLen    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return models.NewFieldValidationError("password", "A senha deve ter no mínimo 8 caracteres")
	}
	if len(password) > maxPasswordLen {
		return models.NewFieldValidationError("password", "A senha deve ter no máximo 128 caracteres")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSpecial = true
		}
	}

	switch {
	case !hasUpper:
		return models.NewFieldValidationError("password", "A senha deve conter pelo menos uma letra maiúscula")
	case !hasLower:
		return models.NewFieldValidationError("password", "A senha deve conter pelo menos uma letra minúscula")
	case !hasDigit:
		return models.NewFieldValidationError("password", "A senha deve conter pelo menos um número")
	case !hasSpecial:
		return models.NewFieldValidationError("password", "A senha deve conter pelo menos um caractere especial")
	}
	return nil
}

// ValidateUsername checks if a username meets requirements
func ValidateUsername(username string) error {
	if len(username) < minUsernameLen {
		return models.NewFieldValidationError("username", "O nome de usuário deve ter no mínimo 3 caracteres")
	}
	if len(username) > maxUsernameLen {
		return models.NewFieldValidationError("username", "O nome de usuário deve ter no máximo 30 caracteres")
	}
	if !usernameRegex.MatchString(username) {
		return models.NewFieldValidationError("username", "O nome de usuário deve conter apenas letras, números, _ e -")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return models.NewFieldValidationError("email", "Email é obrigatório")
	}
	if len(email) > maxEmailLen {
		return models.NewFieldValidationError("email", "Email inválido")
	}
	if !emailRegex.MatchString(email) {
		return models.NewFieldValidationError("email", "Email inválido")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.NewFieldValidationError("email", "Email inválido")
	}
	return nil
}
