package docparse

import (
	"testing"

	"petidocs/internal/models"
)

func schemaWith(fields ...Field) FormSchema {
	return FormSchema{Categories: []CategoryGroup{{Category: models.CategoryCliente, Fields: fields}}}
}

func TestValidateSubmissionRequired(t *testing.T) {
	schema := schemaWith(
		Field{Key: "nome", Type: models.FieldText, Required: true},
		Field{Key: "apelido", Type: models.FieldText},
	)
	errs := ValidateSubmission(schema, map[string]string{"apelido": "Zé"})
	if len(errs) != 1 || errs[0].Field != "nome" {
		t.Fatalf("got %v, want one error on nome", errs)
	}
	if errs = ValidateSubmission(schema, map[string]string{"nome": "Maria"}); len(errs) != 0 {
		t.Fatalf("expected valid submission, got %v", errs)
	}
}

func TestValidateSubmissionWhitespaceIsEmpty(t *testing.T) {
	schema := schemaWith(Field{Key: "nome", Type: models.FieldText, Required: true})
	if errs := ValidateSubmission(schema, map[string]string{"nome": "   "}); len(errs) != 1 {
		t.Fatalf("whitespace-only value must fail required check, got %v", errs)
	}
}

func TestValidateSubmissionCollectsAllErrors(t *testing.T) {
	schema := schemaWith(
		Field{Key: "nome", Type: models.FieldText, Required: true},
		Field{Key: "email", Type: models.FieldEmail, Required: true},
		Field{Key: "cpf", Type: models.FieldText, Required: true},
	)
	errs := ValidateSubmission(schema, map[string]string{
		"email": "nao-e-email",
		"cpf":   "123",
	})
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %v", errs)
	}
}

func TestValidateSubmissionEmail(t *testing.T) {
	schema := schemaWith(Field{Key: "email", Type: models.FieldEmail})
	if errs := ValidateSubmission(schema, map[string]string{"email": "a@b.com"}); len(errs) != 0 {
		t.Fatalf("valid e-mail rejected: %v", errs)
	}
	if errs := ValidateSubmission(schema, map[string]string{"email": "a@@b"}); len(errs) != 1 {
		t.Fatalf("invalid e-mail accepted")
	}
}

func TestValidateSubmissionPhone(t *testing.T) {
	schema := schemaWith(Field{Key: "telefone", Type: models.FieldTel})
	for _, ok := range []string{"(11) 98765-4321", "1133334444"} {
		if errs := ValidateSubmission(schema, map[string]string{"telefone": ok}); len(errs) != 0 {
			t.Fatalf("valid phone %q rejected: %v", ok, errs)
		}
	}
	for _, bad := range []string{"12345", "123456789012"} {
		if errs := ValidateSubmission(schema, map[string]string{"telefone": bad}); len(errs) != 1 {
			t.Fatalf("invalid phone %q accepted", bad)
		}
	}
}

func TestValidateSubmissionSelect(t *testing.T) {
	schema := schemaWith(Field{
		Key: "estado_civil", Type: models.FieldSelect,
		Options: []string{"Solteiro(a)", "Casado(a)"},
	})
	if errs := ValidateSubmission(schema, map[string]string{"estado_civil": "casado(a)"}); len(errs) != 0 {
		t.Fatalf("option match must be case-insensitive: %v", errs)
	}
	if errs := ValidateSubmission(schema, map[string]string{"estado_civil": "Viúvo(a)"}); len(errs) != 1 {
		t.Fatalf("off-list option accepted")
	}
}

func TestValidateSubmissionWalksPersonaFields(t *testing.T) {
	schema := FormSchema{Personas: []PersonaGroup{{
		Type: "autor", Index: 1,
		Dados:    []Field{{Key: "autor_1_nome", Type: models.FieldText, Required: true}},
		Endereco: []Field{{Key: "autor_1_cep", Type: models.FieldText}},
	}}}
	errs := ValidateSubmission(schema, map[string]string{"autor_1_cep": "123"})
	if len(errs) != 2 {
		t.Fatalf("expected missing name and bad CEP, got %v", errs)
	}
}

func TestValidCPF(t *testing.T) {
	valid := []string{
		"52998224725",
		"529.982.247-25",
		"11144477735",
	}
	for _, cpf := range valid {
		if !ValidCPF(cpf) {
			t.Fatalf("ValidCPF(%q) = false, want true", cpf)
		}
	}
	invalid := []string{
		"52998224724", // wrong check digit
		"00000000000", // repeated digits
		"11111111111",
		"1234567890",   // too short
		"123456789012", // too long
		"",
	}
	for _, cpf := range invalid {
		if ValidCPF(cpf) {
			t.Fatalf("ValidCPF(%q) = true, want false", cpf)
		}
	}
}

func TestValidateSubmissionCEP(t *testing.T) {
	schema := schemaWith(Field{Key: "cep", Type: models.FieldText})
	if errs := ValidateSubmission(schema, map[string]string{"cep": "01310-100"}); len(errs) != 0 {
		t.Fatalf("valid CEP rejected: %v", errs)
	}
	if errs := ValidateSubmission(schema, map[string]string{"cep": "1310-100"}); len(errs) != 1 {
		t.Fatalf("short CEP accepted")
	}
}
