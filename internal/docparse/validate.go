package docparse

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"petidocs/internal/models"
)

var validate = validator.New()

// FieldError is one rejected field of a form submission.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidateSubmission checks submitted values against the form schema and
// returns the per-field error list. An empty list means the submission is
// accepted; validation always completes the full schema so the caller can
// show every problem at once.
func ValidateSubmission(schema FormSchema, data map[string]string) []FieldError {
	var errs []FieldError
	forEachField(schema, func(f Field) {
		value := strings.TrimSpace(data[f.Key])
		if value == "" {
			if f.Required {
				errs = append(errs, FieldError{Field: f.Key, Message: "campo obrigatório"})
			}
			return
		}
		if msg := validateValue(f, value); msg != "" {
			errs = append(errs, FieldError{Field: f.Key, Message: msg})
		}
	})
	return errs
}

func forEachField(schema FormSchema, fn func(Field)) {
	for _, group := range schema.Categories {
		for _, f := range group.Fields {
			fn(f)
		}
	}
	for _, persona := range schema.Personas {
		for _, f := range persona.Dados {
			fn(f)
		}
		for _, f := range persona.Endereco {
			fn(f)
		}
	}
}

func validateValue(f Field, value string) string {
	lower := strings.ToLower(f.Key)
	switch {
	case strings.Contains(lower, "cpf"):
		if !ValidCPF(value) {
			return "CPF inválido"
		}
	case strings.Contains(lower, "cep"):
		if len(digitsOnly(value)) != 8 {
			return "CEP deve ter 8 dígitos"
		}
	}

	switch f.Type {
	case models.FieldEmail:
		if err := validate.Var(value, "email"); err != nil {
			return "e-mail inválido"
		}
	case models.FieldTel:
		if n := len(digitsOnly(value)); n < 10 || n > 11 {
			return "telefone deve ter 10 ou 11 dígitos"
		}
	case models.FieldSelect:
		if len(f.Options) > 0 && !containsOption(f.Options, value) {
			return fmt.Sprintf("valor deve ser uma das opções: %s", strings.Join(f.Options, ", "))
		}
	}
	return ""
}

// ValidCPF verifies the two check digits of a Brazilian CPF. Formatting
// characters are stripped first; the repeated-digit sequences the algorithm
// technically accepts (000... etc) are rejected.
func ValidCPF(value string) bool {
	cpf := digitsOnly(value)
	if len(cpf) != 11 {
		return false
	}
	allSame := true
	for i := 1; i < 11; i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	digit := func(upto int) byte {
		sum := 0
		for i := 0; i < upto; i++ {
			sum += int(cpf[i]-'0') * (upto + 1 - i)
		}
		rest := (sum * 10) % 11
		if rest == 10 {
			rest = 0
		}
		return byte('0' + rest)
	}

	return cpf[9] == digit(9) && cpf[10] == digit(10)
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func containsOption(options []string, value string) bool {
	for _, opt := range options {
		if strings.EqualFold(opt, value) {
			return true
		}
	}
	return false
}
