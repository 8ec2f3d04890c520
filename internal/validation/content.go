package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"unajuda/internal/models"
)

// Length bounds for free text, counted in runes after trimming.
const (
	MinQuestionTitle   = 10
	MaxQuestionTitle   = 200
	MinQuestionContent = 20
	MaxQuestionContent = 5000
	MinAnswerContent   = 10
	MaxAnswerContent   = 5000
	MinReplyContent    = 10
	MaxReplyContent    = 1000
	MinFullName        = 2
	MaxFullName        = 100
	MaxHeadline        = 150
	MaxBio             = 500
	MaxUniversity      = 100
	MaxCourse          = 100
)

var fullNameRegex = regexp.MustCompile(`^[\p{L}\s]+$`)

func lengthBetween(field, label string, s string, lo, hi int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	if n < lo {
		return models.NewFieldValidationError(field, fmt.Sprintf("%s deve ter no mínimo %d caracteres", label, lo))
	}
	if n > hi {
		return models.NewFieldValidationError(field, fmt.Sprintf("%s deve ter no máximo %d caracteres", label, hi))
	}
	return nil
}

// ValidateQuestion checks title and content of a new question.
func ValidateQuestion(title, content string) error {
	if err := lengthBetween("title", "O título", title, MinQuestionTitle, MaxQuestionTitle); err != nil {
		return err
	}
	return lengthBetween("content", "O conteúdo", content, MinQuestionContent, MaxQuestionContent)
}

// ValidateAnswer checks the body of an answer.
func ValidateAnswer(content string) error {
	return lengthBetween("content", "A resposta", content, MinAnswerContent, MaxAnswerContent)
}

// ValidateReply checks the body of a reply to an answer.
func ValidateReply(content string) error {
	return lengthBetween("content", "A resposta", content, MinReplyContent, MaxReplyContent)
}

// ValidateFullName allows letters (accented included) and spaces.
func ValidateFullName(name string) error {
	if err := lengthBetween("full_name", "O nome", name, MinFullName, MaxFullName); err != nil {
		return err
	}
	if !fullNameRegex.MatchString(strings.TrimSpace(name)) {
		return models.NewFieldValidationError("full_name", "O nome deve conter apenas letras e espaços")
	}
	return nil
}

// ValidateOptionalMax checks an optional field against an upper bound.
func ValidateOptionalMax(field, label, value string, max int) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > max {
		return models.NewFieldValidationError(field, fmt.Sprintf("%s deve ter no máximo %d caracteres", label, max))
	}
	return nil
}

// ValidateAvatarURL accepts an empty value or an absolute http(s) URL.
func ValidateAvatarURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.NewFieldValidationError("avatar_url", "URL de avatar inválida")
	}
	return nil
}
