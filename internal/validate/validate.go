package validate

import (
	"fmt"
	"regexp"
	"strings"

	"promo-pulse/internal/apperr"
)

// emailRegexp проверяет базовый формат адреса: local@domain.tld
var emailRegexp = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldSpec описывает требования к одному полю запроса
type FieldSpec struct {
	Name     string
	Required bool
	MaxLen   int
	Email    bool
}

// Record представляет нормализованный результат валидации:
// строки обрезаны, email-поля приведены к нижнему регистру
type Record map[string]string

// Fields проверяет payload против спецификации полей.
// Возвращает нормализованную запись либо ошибку валидации
// со списком всех нарушенных полей. Никогда не паникует.
func Fields(payload map[string]any, specs []FieldSpec) (Record, *apperr.Error) {
	record := make(Record, len(specs))
	var violations []apperr.FieldError

	for _, spec := range specs {
		raw, ok := payload[spec.Name]

		value := ""
		if ok {
			switch v := raw.(type) {
			case string:
				value = strings.TrimSpace(v)
			case nil:
				value = ""
			default:
				violations = append(violations, apperr.FieldError{
					Field:   spec.Name,
					Message: "must be a string",
				})
				continue
			}
		}

		if value == "" {
			if spec.Required {
				violations = append(violations, apperr.FieldError{
					Field:   spec.Name,
					Message: "is required",
				})
			}
			continue
		}

		if spec.MaxLen > 0 && len(value) > spec.MaxLen {
			violations = append(violations, apperr.FieldError{
				Field:   spec.Name,
				Message: fmt.Sprintf("must be at most %d characters", spec.MaxLen),
			})
			continue
		}

		if spec.Email {
			value = strings.ToLower(value)
			if !emailRegexp.MatchString(value) {
				violations = append(violations, apperr.FieldError{
					Field:   spec.Name,
					Message: "must be a valid email address",
				})
				continue
			}
		}

		record[spec.Name] = value
	}

	if len(violations) > 0 {
		return nil, apperr.Validation(violations)
	}

	return record, nil
}

// NormalizeEmail приводит email к каноничному виду
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsEmail проверяет формат email адреса
func IsEmail(value string) bool {
	return emailRegexp.MatchString(value)
}
