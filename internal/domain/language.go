package domain

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	apperror "gocatalog/internal/errors"
)

var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}([_-][A-Za-z]{2,4})?$`)

// Language é um idioma do catálogo. Traduções referenciam o idioma pelo Code.
type Language struct {
	Code       string    `json:"code" db:"code"`
	Name       string    `json:"name" db:"name"`
	NativeName string    `json:"native_name" db:"native_name"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	IsDefault  bool      `json:"is_default" db:"is_default"`
	SortOrder  int       `json:"sort_order" db:"sort_order"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Validate verifica os campos do idioma isoladamente.
func (l Language) Validate() error {
	var violations []string
	if !languageCodePattern.MatchString(l.Code) {
		violations = append(violations, fmt.Sprintf("código de idioma inválido: %q", l.Code))
	}
	if l.Name == "" {
		violations = append(violations, "o nome do idioma é obrigatório")
	}
	if l.IsDefault && !l.IsActive {
		violations = append(violations, "o idioma padrão precisa estar ativo")
	}
	if len(violations) > 0 {
		return apperror.NewValidationError("idioma inválido", violations...)
	}
	return nil
}

// Languages é um retrato imutável dos idiomas ativos, na ordem do registro
// (SortOrder, depois Code).
type Languages struct {
	active []Language
}

// NewLanguages monta o retrato a partir de todos os idiomas cadastrados,
// descartando os inativos.
func NewLanguages(all []Language) Languages {
	active := make([]Language, 0, len(all))
	for _, l := range all {
		if l.IsActive {
			active = append(active, l)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].SortOrder != active[j].SortOrder {
			return active[i].SortOrder < active[j].SortOrder
		}
		return active[i].Code < active[j].Code
	})
	return Languages{active: active}
}

// All devolve os idiomas ativos em ordem.
func (ls Languages) All() []Language {
	out := make([]Language, len(ls.active))
	copy(out, ls.active)
	return out
}

// Len devolve a quantidade de idiomas ativos.
func (ls Languages) Len() int { return len(ls.active) }

// Codes devolve os códigos ativos em ordem.
func (ls Languages) Codes() []string {
	codes := make([]string, len(ls.active))
	for i, l := range ls.active {
		codes[i] = l.Code
	}
	return codes
}

// Find procura um idioma ativo pelo código.
func (ls Languages) Find(code string) (Language, bool) {
	for _, l := range ls.active {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Require devolve NotFoundError para o primeiro código que não é um idioma ativo.
func (ls Languages) Require(codes ...string) error {
	for _, code := range codes {
		if _, ok := ls.Find(code); !ok {
			return apperror.NewNotFoundError(fmt.Sprintf("idioma ativo '%s'", code))
		}
	}
	return nil
}

// Default devolve o único idioma padrão entre os ativos.
// Zero ou mais de um padrão é uma inconsistência dos dados.
func (ls Languages) Default() (Language, error) {
	var found []Language
	for _, l := range ls.active {
		if l.IsDefault {
			found = append(found, l)
		}
	}
	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return Language{}, apperror.NewConsistencyError("nenhum idioma padrão configurado entre os idiomas ativos")
	default:
		return Language{}, apperror.NewConsistencyError(fmt.Sprintf("%d idiomas marcados como padrão", len(found)))
	}
}

// Locale monta a cadeia de resolução para o idioma pedido: o próprio código,
// o idioma padrão como fallback e a ordem do registro como último recurso.
// Sem padrão consistente o Locale sai sem Fallback; quem precisa distinguir
// esse caso consulta Default antes.
func (ls Languages) Locale(code string) Locale {
	loc := Locale{Code: code, Order: ls.Codes()}
	if def, err := ls.Default(); err == nil && def.Code != code {
		loc.Fallback = def.Code
	}
	return loc
}

// DefaultLocale é o Locale do idioma padrão.
func (ls Languages) DefaultLocale() (Locale, error) {
	def, err := ls.Default()
	if err != nil {
		return Locale{}, err
	}
	return ls.Locale(def.Code), nil
}

// Locale descreve como resolver uma tradução: idioma exato, fallback opcional e
// a ordem determinística usada quando nenhum dos dois existe.
type Locale struct {
	Code     string
	Fallback string
	Order    []string
}

// NewLocale cria um Locale sem ordem de registro; o último recurso passa a ser o menor código.
func NewLocale(code, fallback string) Locale {
	return Locale{Code: code, Fallback: fallback}
}

func (l Locale) rank(code string) int {
	for i, c := range l.Order {
		if c == code {
			return i
		}
	}
	return len(l.Order)
}
