package docparse

import (
	"sort"
	"strings"

	"petidocs/internal/models"
)

// Field is one renderable input of a dynamic form.
type Field struct {
	Key      string           `json:"key"`
	Label    string           `json:"label"`
	Hint     string           `json:"hint,omitempty"`
	Type     models.FieldType `json:"type"`
	Required bool             `json:"required"`
	Pattern  string           `json:"pattern,omitempty"`
	Options  []string         `json:"options,omitempty"`
	Order    int              `json:"order"`
}

// CategoryGroup is one category bucket of the form.
type CategoryGroup struct {
	Category models.Category `json:"category"`
	Fields   []Field         `json:"fields"`
}

// PersonaGroup collects the fields of one numbered party, split into
// personal data and address sub-groups.
type PersonaGroup struct {
	Type     string  `json:"type"`
	Index    int     `json:"index"`
	Dados    []Field `json:"dados"`
	Endereco []Field `json:"endereco"`
}

// FormSchema is the data-driven form description: a generic renderer walks
// it instead of a per-template form type being generated at runtime.
type FormSchema struct {
	Categories []CategoryGroup `json:"categories"`
	Personas   []PersonaGroup  `json:"personas"`
}

// categoryOrder fixes the section order of rendered forms and makes
// BuildForm deterministic.
var categoryOrder = []models.Category{
	models.CategoryCliente,
	models.CategoryEndereco,
	models.CategoryProcesso,
	models.CategoryPoloAtivo,
	models.CategoryPoloPassivo,
	models.CategoryTerceiros,
	models.CategoryAutoridades,
	models.CategoryOutros,
}

// essentialKeys are always mandatory regardless of the stored required flag.
var essentialKeys = map[string]bool{
	"nome":            true,
	"cpf":             true,
	"email":           true,
	"autor_1_nome":    true,
	"autor_1_cpf":     true,
	"processo_numero": true,
	"numero_processo": true,
}

// labelOverrides fixes the words plain title-casing gets wrong.
var labelOverrides = map[string]string{
	"cpf":      "CPF",
	"rg":       "RG",
	"cnh":      "CNH",
	"cep":      "CEP",
	"uf":       "UF",
	"oab":      "OAB",
	"email":    "E-mail",
	"endereco": "Endereço",
	"numero":   "Número",
	"orgao":    "Órgão",
	"transito": "Trânsito",
}

var brazilianStates = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA", "MT",
	"MS", "MG", "PA", "PB", "PR", "PE", "PI", "RJ", "RN", "RS", "RO",
	"RR", "SC", "SP", "SE", "TO",
}

var selectOptions = map[string][]string{
	"estado_civil": {"Solteiro(a)", "Casado(a)", "Divorciado(a)", "Viúvo(a)", "União Estável"},
	"sexo":         {"Masculino", "Feminino", "Outro"},
	"tipo_pessoa":  {"Pessoa Física", "Pessoa Jurídica"},
	"uf":           brazilianStates,
}

// BuildForm turns an ordered placeholder list into the form schema. Every
// placeholder lands in exactly one bucket: numbered-party keys go to their
// persona sub-group, everything else to its category group. Re-invoking with
// the same placeholders yields an identical schema.
func BuildForm(placeholders []models.Placeholder) FormSchema {
	buckets := make(map[models.Category][]Field)
	personas := make(map[string]map[int]*PersonaGroup)

	for _, p := range placeholders {
		key, ok := NormalizeKey(p.Key)
		if !ok {
			continue
		}
		field := buildField(key, p)

		if ptype, idx, pfield, isPersona := personaKeyParts(key); isPersona {
			if personas[ptype] == nil {
				personas[ptype] = make(map[int]*PersonaGroup)
			}
			group := personas[ptype][idx]
			if group == nil {
				group = &PersonaGroup{Type: ptype, Index: idx}
				personas[ptype][idx] = group
			}
			if containsAny(pfield, enderecoKeywords) {
				group.Endereco = append(group.Endereco, field)
			} else {
				group.Dados = append(group.Dados, field)
			}
			continue
		}

		cat := Classify(key)
		buckets[cat] = append(buckets[cat], field)
	}

	// Self-correcting pass: a key that slipped into a non-authority bucket
	// despite carrying authority keywords moves to the authorities bucket.
	for cat, fields := range buckets {
		if cat == models.CategoryAutoridades {
			continue
		}
		kept := fields[:0]
		for _, f := range fields {
			lower := strings.ToLower(f.Key)
			if containsAny(lower, authorityKeywords) || containsAny(lower, authorityFallbackKeywords) {
				buckets[models.CategoryAutoridades] = append(buckets[models.CategoryAutoridades], f)
			} else {
				kept = append(kept, f)
			}
		}
		buckets[cat] = kept
	}

	var schema FormSchema
	for _, cat := range categoryOrder {
		if fields := buckets[cat]; len(fields) > 0 {
			schema.Categories = append(schema.Categories, CategoryGroup{Category: cat, Fields: fields})
		}
	}

	var types []string
	for ptype := range personas {
		types = append(types, ptype)
	}
	sort.Strings(types)
	for _, ptype := range types {
		var indexes []int
		for idx := range personas[ptype] {
			indexes = append(indexes, idx)
		}
		sort.Ints(indexes)
		for _, idx := range indexes {
			schema.Personas = append(schema.Personas, *personas[ptype][idx])
		}
	}

	return schema
}

// personaKeyParts reports whether key belongs to a numbered party group.
// "autor_1_nome" -> ("autor", 1, "nome", true); the unnumbered single-party
// form "autor_nome" maps to index 1.
func personaKeyParts(key string) (string, int, string, bool) {
	lower := strings.ToLower(key)
	if m := personaKeyPattern.FindStringSubmatch(lower); m != nil {
		if idx := atoiSafe(m[2]); idx >= 1 && isPersonaType(m[1]) {
			return m[1], idx, m[3], true
		}
	}
	for _, prefix := range personaPrefixes {
		if strings.HasPrefix(lower, prefix+"_") {
			field := strings.TrimPrefix(lower, prefix+"_")
			if field != "" {
				return prefix, 1, field, true
			}
		}
	}
	return "", 0, "", false
}

func buildField(key string, p models.Placeholder) Field {
	ftype := p.FieldType
	if ftype == "" {
		ftype = InferFieldType(key)
	}
	field := Field{
		Key:      key,
		Label:    Humanize(key),
		Type:     ftype,
		Required: p.Required || essentialKeys[strings.ToLower(key)],
		Order:    p.Order,
	}
	switch ftype {
	case models.FieldEmail:
		field.Hint = "exemplo@dominio.com"
	case models.FieldTel:
		field.Pattern = `\d{10,11}`
		field.Hint = "(11) 98765-4321"
	case models.FieldSelect:
		field.Options = OptionsFor(key)
	}
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "cpf"):
		field.Pattern = `\d{11}`
		field.Hint = "Somente números"
	case strings.Contains(lower, "cep"):
		field.Pattern = `\d{8}`
		field.Hint = "Somente números"
	}
	return field
}

// InferFieldType maps a key to the input type it renders as. Used at sync
// time to seed Placeholder.FieldType and as a fallback when the stored type
// is empty.
func InferFieldType(key string) models.FieldType {
	lower := strings.ToLower(key)
	switch {
	case strings.Contains(lower, "email"):
		return models.FieldEmail
	case strings.Contains(lower, "telefone"), strings.Contains(lower, "celular"), strings.Contains(lower, "fone"):
		return models.FieldTel
	case strings.Contains(lower, "data"), strings.Contains(lower, "nascimento"):
		return models.FieldDate
	case strings.Contains(lower, "observac"), strings.Contains(lower, "descric"), strings.Contains(lower, "relato"):
		return models.FieldTextarea
	case len(OptionsFor(lower)) > 0:
		return models.FieldSelect
	default:
		return models.FieldText
	}
}

// OptionsFor returns the fixed option set of an enumerable key, or nil when
// the key is free-form.
func OptionsFor(key string) []string {
	lower := strings.ToLower(key)
	if strings.Contains(lower, "estado_civil") {
		return selectOptions["estado_civil"]
	}
	if strings.Contains(lower, "tipo_pessoa") {
		return selectOptions["tipo_pessoa"]
	}
	// "uf" must match as a whole key segment so "ufa" style keys don't turn
	// into state selects.
	for _, part := range strings.Split(lower, "_") {
		if part == "uf" {
			return selectOptions["uf"]
		}
		if part == "sexo" {
			return selectOptions["sexo"]
		}
	}
	return nil
}

// Humanize builds the human label for a key: separators become spaces,
// words are title-cased and domain abbreviations keep their canonical form.
func Humanize(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, part := range parts {
		lower := strings.ToLower(part)
		if override, ok := labelOverrides[lower]; ok {
			parts[i] = override
			continue
		}
		if isNumeric(part) {
			parts[i] = part
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
