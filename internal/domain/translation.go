package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperror "gocatalog/internal/errors"
)

// Localized é o contrato comum a todas as traduções (marca, categoria, atributo,
// valor de atributo, produto e variante).
type Localized interface {
	LanguageCode() string
	// FilledFields devolve quantos campos localizáveis estão preenchidos e o total.
	FilledFields() (filled, total int)
	// HasRequiredFields informa se todos os campos obrigatórios estão preenchidos.
	HasRequiredFields() bool
}

// Relocatable é uma tradução que pode ser copiada para outro idioma.
type Relocatable[T any] interface {
	Localized
	WithLanguage(code string) T
}

// Resolve escolhe a tradução para o Locale: idioma exato, depois o fallback e,
// por último, a tradução do idioma mais cedo na ordem do registro (empate pelo
// menor código). Coleção vazia devolve false.
func Resolve[T Localized](ts []T, loc Locale) (T, bool) {
	var zero T
	if len(ts) == 0 {
		return zero, false
	}
	if t, ok := FindTranslation(ts, loc.Code); ok {
		return t, true
	}
	if loc.Fallback != "" {
		if t, ok := FindTranslation(ts, loc.Fallback); ok {
			return t, true
		}
	}

	best := ts[0]
	for _, t := range ts[1:] {
		br, tr := loc.rank(best.LanguageCode()), loc.rank(t.LanguageCode())
		if tr < br || (tr == br && t.LanguageCode() < best.LanguageCode()) {
			best = t
		}
	}
	return best, true
}

// FindTranslation procura a tradução de um idioma exato.
func FindTranslation[T Localized](ts []T, code string) (T, bool) {
	for _, t := range ts {
		if t.LanguageCode() == code {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// UpsertTranslation substitui a tradução do mesmo idioma ou acrescenta uma nova.
// Nunca existem duas traduções para o mesmo idioma.
func UpsertTranslation[T Localized](ts []T, t T) []T {
	for i := range ts {
		if ts[i].LanguageCode() == t.LanguageCode() {
			ts[i] = t
			return ts
		}
	}
	return append(ts, t)
}

// RemoveTranslation remove a tradução do idioma, se existir.
func RemoveTranslation[T Localized](ts []T, code string) []T {
	out := ts[:0]
	for _, t := range ts {
		if t.LanguageCode() != code {
			out = append(out, t)
		}
	}
	return out
}

// DuplicateTranslation copia a tradução de from para to. Se to já existir,
// a tradução existente é mantida e devolvida sem alterações.
func DuplicateTranslation[T Relocatable[T]](ts []T, from, to string) ([]T, T, error) {
	if existing, ok := FindTranslation(ts, to); ok {
		return ts, existing, nil
	}
	src, ok := FindTranslation(ts, from)
	if !ok {
		var zero T
		return ts, zero, apperror.NewNotFoundError(fmt.Sprintf("tradução de origem '%s' inexistente", from))
	}
	dup := src.WithLanguage(to)
	return append(ts, dup), dup, nil
}

// CompletionPercentage = round(100 * preenchidos / total).
func CompletionPercentage(t Localized) int {
	filled, total := t.FilledFields()
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(filled) / float64(total)))
}

// IsComplete informa se os campos obrigatórios estão preenchidos.
func IsComplete(t Localized) bool { return t.HasRequiredFields() }

// IsPartial informa se ao menos um campo está preenchido.
func IsPartial(t Localized) bool {
	filled, _ := t.FilledFields()
	return filled > 0
}

// DuplicateLanguages devolve os códigos que aparecem mais de uma vez.
func DuplicateLanguages[T Localized](ts []T) []string {
	seen := make(map[string]int, len(ts))
	var dups []string
	for _, t := range ts {
		seen[t.LanguageCode()]++
		if seen[t.LanguageCode()] == 2 {
			dups = append(dups, t.LanguageCode())
		}
	}
	return dups
}

// TranslationStatus resume o estado de tradução de uma entidade em um idioma.
type TranslationStatus struct {
	Language   string `json:"language"`
	Exists     bool   `json:"exists"`
	Complete   bool   `json:"complete"`
	Partial    bool   `json:"partial"`
	Completion int    `json:"completion"`
}

// StatusFor calcula o estado para cada idioma ativo, na ordem do registro.
func StatusFor[T Localized](ts []T, langs Languages) []TranslationStatus {
	out := make([]TranslationStatus, 0, langs.Len())
	for _, code := range langs.Codes() {
		st := TranslationStatus{Language: code}
		if t, ok := FindTranslation(ts, code); ok {
			st.Exists = true
			st.Complete = IsComplete(t)
			st.Partial = IsPartial(t)
			st.Completion = CompletionPercentage(t)
		}
		out = append(out, st)
	}
	return out
}

// MissingLanguages devolve os idiomas ativos sem tradução.
func MissingLanguages[T Localized](ts []T, langs Languages) []string {
	var missing []string
	for _, code := range langs.Codes() {
		if _, ok := FindTranslation(ts, code); !ok {
			missing = append(missing, code)
		}
	}
	return missing
}

// SortedLanguageCodes devolve as chaves de um payload por idioma em ordem,
// para que as traduções sejam aplicadas de forma determinística.
func SortedLanguageCodes[V any](m map[string]V) []string {
	codes := make([]string, 0, len(m))
	for code := range m {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

func countFilled(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
