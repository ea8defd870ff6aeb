package docparse

import (
	"regexp"
	"strings"

	"petidocs/internal/models"
)

// Keyword tiers of the classification cascade. Order matters: several sets
// overlap as substrings ("estado" is an address term, "estado_civil" is
// personal data, "autoridade" shares a prefix with "autor"), so the first
// matching tier wins and tiers are checked strictly in this order.
var (
	authorityKeywords = []string{"orgao_transito", "autoridade"}

	poloAtivoKeywords = []string{
		"requerente", "impetrante", "exequente", "reclamante",
		"embargante", "agravante", "apelante", "demandante",
	}
	poloPassivoKeywords = []string{
		"reu", "requerido", "impetrado", "executado", "reclamado",
		"embargado", "agravado", "apelado", "demandado",
	}
	terceirosKeywords = []string{
		"assistente", "curador", "tutor", "terceiro",
		"interessado", "litisconsorte",
	}

	clienteKeywords = []string{
		"nome", "cpf", "rg", "cnh", "email", "telefone", "celular",
		"data_nascimento", "nascimento", "nacionalidade", "estado_civil",
		"profissao", "sexo",
	}
	enderecoKeywords = []string{
		"endereco", "logradouro", "numero", "complemento", "bairro",
		"cidade", "estado", "uf", "cep",
	}
	processoKeywords = []string{
		"processo", "autos", "comarca", "vara", "juizo", "tribunal",
		"acao", "artigo", "lei", "peticao", "audiencia", "valor_causa",
		"prazo",
	}
	authorityFallbackKeywords = []string{
		"detran", "denatran", "jari", "ciretran", "policia", "delegacia",
	}
)

// personaPrefixes are the party roles that may appear numbered
// ("autor_2_nome") or unnumbered ("autor_nome" = exactly one).
var personaPrefixes = []string{
	"autor", "reu", "requerente", "requerido", "impetrante", "impetrado",
	"exequente", "executado", "reclamante", "reclamado", "terceiro",
}

var (
	personaKeyPattern = regexp.MustCompile(`^(\w+?)_(\d+)_(\w+)$`)
	leadingIndex      = regexp.MustCompile(`^\d+_`)
)

// Classify maps a placeholder key to its category. Pure function: the same
// key always lands in exactly one category, and a key nothing matches falls
// through to "outros". Malformed keys are normalized first and an
// unnormalizable key classifies as "outros" rather than failing.
func Classify(key string) models.Category {
	k, ok := NormalizeKey(key)
	if !ok {
		return models.CategoryOutros
	}
	k = strings.ToLower(k)

	if containsAny(k, authorityKeywords) {
		return models.CategoryAutoridades
	}

	// Numbered plaintiff fields ("autor_1_cpf") and their unnumbered
	// single-plaintiff forms ("autor_cpf") split into data vs address.
	if k == "autor" || strings.HasPrefix(k, "autor_") {
		if field := autorField(k); containsAny(field, enderecoKeywords) {
			return models.CategoryAutorEndereco
		}
		return models.CategoryAutorDados
	}

	if containsAny(k, poloAtivoKeywords) {
		return models.CategoryPoloAtivo
	}
	if containsAny(k, poloPassivoKeywords) {
		return models.CategoryPoloPassivo
	}
	if containsAny(k, terceirosKeywords) {
		return models.CategoryTerceiros
	}
	if containsAny(k, clienteKeywords) {
		return models.CategoryCliente
	}
	// "processo_numero" carries the address term "numero" as its field
	// suffix; a process-prefixed key skips the address tier so the process
	// tier below can claim it.
	if containsAny(k, enderecoKeywords) && !hasProcessPrefix(k) {
		return models.CategoryEndereco
	}
	if containsAny(k, processoKeywords) {
		return models.CategoryProcesso
	}
	if containsAny(k, authorityFallbackKeywords) {
		return models.CategoryAutoridades
	}
	return models.CategoryOutros
}

// autorField strips the "autor" prefix and an optional numeric index,
// leaving the field part examined for address terms.
func autorField(key string) string {
	field := strings.TrimPrefix(key, "autor")
	field = strings.TrimPrefix(field, "_")
	if m := leadingIndex.FindString(field); m != "" {
		field = field[len(m):]
	}
	return field
}

func hasProcessPrefix(key string) bool {
	return strings.HasPrefix(key, "processo") || strings.HasPrefix(key, "autos")
}

func containsAny(key string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

// PersonaInfo aggregates numbered-party structure detected in a key list.
type PersonaInfo struct {
	// Patterns maps persona type -> index -> field names seen for that
	// index, e.g. Patterns["autor"][1] = ["nome", "cpf"].
	Patterns map[string]map[int][]string `json:"patterns"`
	// Counts maps persona type -> highest index seen.
	Counts map[string]int `json:"counts"`
	// TotalPersonas is the sum of Counts across types.
	TotalPersonas int `json:"total_personas"`
}

// DetectPersonas scans keys for the numbered shape "<type>_<n>_<field>" and
// for unnumbered single-persona keys like "autor_nome" (which imply exactly
// one persona of that type). Keys are normalized before matching; anything
// that does not normalize is skipped.
func DetectPersonas(keys []string) PersonaInfo {
	info := PersonaInfo{
		Patterns: make(map[string]map[int][]string),
		Counts:   make(map[string]int),
	}

	for _, raw := range keys {
		key, ok := NormalizeKey(raw)
		if !ok {
			continue
		}
		key = strings.ToLower(key)

		if m := personaKeyPattern.FindStringSubmatch(key); m != nil {
			ptype, field := m[1], m[3]
			idx := atoiSafe(m[2])
			if idx < 1 || !isPersonaType(ptype) {
				continue
			}
			info.add(ptype, idx, field)
			continue
		}

		// Unnumbered form: "autor_nome" counts as persona 1 of "autor".
		for _, prefix := range personaPrefixes {
			if strings.HasPrefix(key, prefix+"_") {
				field := strings.TrimPrefix(key, prefix+"_")
				if field != "" {
					info.add(prefix, 1, field)
				}
				break
			}
		}
	}

	for _, max := range info.Counts {
		info.TotalPersonas += max
	}
	return info
}

func (p *PersonaInfo) add(ptype string, idx int, field string) {
	if p.Patterns[ptype] == nil {
		p.Patterns[ptype] = make(map[int][]string)
	}
	for _, existing := range p.Patterns[ptype][idx] {
		if existing == field {
			return
		}
	}
	p.Patterns[ptype][idx] = append(p.Patterns[ptype][idx], field)
	if idx > p.Counts[ptype] {
		p.Counts[ptype] = idx
	}
}

func isPersonaType(ptype string) bool {
	for _, p := range personaPrefixes {
		if ptype == p {
			return true
		}
	}
	// Authorities can also appear numbered (orgao_transito_1_nome) but are
	// not parties; they stay out of persona counts.
	return false
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
