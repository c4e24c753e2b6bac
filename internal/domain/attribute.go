package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	apperror "gocatalog/internal/errors"
)

var (
	attributeCodePattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	hexColorPattern      = regexp.MustCompile(`(?i)^#[0-9a-f]{6}$`)
	titleCaser           = cases.Title(language.Und)
)

// AttributeType é o tipo de dado de um atributo.
type AttributeType string

const (
	AttributeText    AttributeType = "text"
	AttributeNumber  AttributeType = "number"
	AttributeSelect  AttributeType = "select"
	AttributeColor   AttributeType = "color"
	AttributeBoolean AttributeType = "boolean"
)

func (t AttributeType) IsValid() bool {
	switch t {
	case AttributeText, AttributeNumber, AttributeSelect, AttributeColor, AttributeBoolean:
		return true
	}
	return false
}

// AttributeConfiguration é a configuração tipada de um atributo.
// Chaves desconhecidas ficam em Extra.
type AttributeConfiguration struct {
	Min     *decimal.Decimal  `json:"min,omitempty"`
	Max     *decimal.Decimal  `json:"max,omitempty"`
	Unit    string            `json:"unit,omitempty"`
	Options []string          `json:"options,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// ParseAttributeConfiguration lê a configuração a partir de JSON.
// Vazio ou "null" resultam em configuração vazia.
func ParseAttributeConfiguration(raw []byte) (AttributeConfiguration, error) {
	var cfg AttributeConfiguration
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cfg, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return cfg, apperror.NewValidationError("configuração do atributo não é um JSON válido", err.Error())
	}

	var violations []string
	for key, val := range fields {
		switch key {
		case "min", "max":
			d, err := decodeDecimal(val)
			if err != nil {
				violations = append(violations, fmt.Sprintf("'%s' deve ser numérico", key))
				continue
			}
			if key == "min" {
				cfg.Min = d
			} else {
				cfg.Max = d
			}
		case "unit":
			if err := json.Unmarshal(val, &cfg.Unit); err != nil {
				violations = append(violations, "'unit' deve ser texto")
			}
		case "options":
			if err := json.Unmarshal(val, &cfg.Options); err != nil {
				violations = append(violations, "'options' deve ser uma lista de textos")
			}
		case "extra":
			var extra map[string]string
			if err := json.Unmarshal(val, &extra); err != nil {
				violations = append(violations, "'extra' deve ser um mapa de textos")
				continue
			}
			for k, v := range extra {
				cfg.setExtra(k, v)
			}
		default:
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				s = string(val)
			}
			cfg.setExtra(key, s)
		}
	}

	if cfg.Min != nil && cfg.Max != nil && cfg.Min.GreaterThan(*cfg.Max) {
		violations = append(violations, "'min' não pode ser maior que 'max'")
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		return AttributeConfiguration{}, apperror.NewValidationError("configuração do atributo inválida", violations...)
	}
	return cfg, nil
}

func decodeDecimal(raw json.RawMessage) (*decimal.Decimal, error) {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *AttributeConfiguration) setExtra(k, v string) {
	if c.Extra == nil {
		c.Extra = make(map[string]string)
	}
	c.Extra[k] = v
}

// IsZero informa se nenhuma chave foi configurada.
func (c AttributeConfiguration) IsZero() bool {
	return c.Min == nil && c.Max == nil && c.Unit == "" && len(c.Options) == 0 && len(c.Extra) == 0
}

// Value grava a configuração como jsonb.
func (c AttributeConfiguration) Value() (driver.Value, error) {
	if c.IsZero() {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Scan lê a configuração a partir de jsonb.
func (c *AttributeConfiguration) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*c = AttributeConfiguration{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("tipo incompatível para configuração de atributo: %T", src)
	}
	cfg, err := ParseAttributeConfiguration(raw)
	if err != nil {
		return err
	}
	*c = cfg
	return nil
}

// Attribute é uma dimensão de variação (ex.: cor) ou faceta descritiva.
type Attribute struct {
	ID            string                 `json:"id"`
	Code          string                 `json:"code"`
	Type          AttributeType          `json:"type"`
	IsRequired    bool                   `json:"is_required"`
	IsVariant     bool                   `json:"is_variant"`
	IsFilterable  bool                   `json:"is_filterable"`
	IsActive      bool                   `json:"is_active"`
	SortOrder     int                    `json:"sort_order"`
	Configuration AttributeConfiguration `json:"configuration"`
	Translations  []AttributeTranslation `json:"translations"`
	Values        []*AttributeValue      `json:"values"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// AttributeValue é um valor discreto de um atributo. É compartilhado por várias variantes.
type AttributeValue struct {
	ID           string                      `json:"id"`
	AttributeID  string                      `json:"attribute_id"`
	Value        string                      `json:"value"`
	HexColor     string                      `json:"hex_color,omitempty"`
	ImageID      string                      `json:"image_id,omitempty"`
	IsActive     bool                        `json:"is_active"`
	SortOrder    int                         `json:"sort_order"`
	Translations []AttributeValueTranslation `json:"translations"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`

	Attribute *Attribute `json:"-"`
}

// AddValue anexa o valor ao atributo.
func (a *Attribute) AddValue(v *AttributeValue) {
	v.AttributeID = a.ID
	v.Attribute = a
	a.Values = append(a.Values, v)
}

// FindValue procura um valor pelo ID.
func (a *Attribute) FindValue(id string) (*AttributeValue, bool) {
	for _, v := range a.Values {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// ActiveValues devolve os valores ativos ordenados por SortOrder.
func (a *Attribute) ActiveValues() []*AttributeValue {
	var out []*AttributeValue
	for _, v := range a.Values {
		if v.IsActive {
			out = append(out, v)
		}
	}
	sortValues(out)
	return out
}

func sortValues(vs []*AttributeValue) {
	sort.SliceStable(vs, func(i, j int) bool {
		if vs[i].SortOrder != vs[j].SortOrder {
			return vs[i].SortOrder < vs[j].SortOrder
		}
		return vs[i].Value < vs[j].Value
	})
}

// Name devolve o nome traduzido ou o código em formato de título.
func (a *Attribute) Name(loc Locale) string {
	if t, ok := Resolve(a.Translations, loc); ok && filled(t.Name) {
		return t.Name
	}
	return titleCaser.String(strings.ReplaceAll(a.Code, "_", " "))
}

func (a *Attribute) Description(loc Locale) string {
	if t, ok := Resolve(a.Translations, loc); ok {
		return t.Description
	}
	return ""
}

func (a *Attribute) Placeholder(loc Locale) string {
	if t, ok := Resolve(a.Translations, loc); ok {
		return t.Placeholder
	}
	return ""
}

// Validate verifica o atributo e seus valores.
func (a *Attribute) Validate() error {
	var violations []string
	switch {
	case a.Code == "":
		violations = append(violations, "o código do atributo é obrigatório")
	case len(a.Code) > 100:
		violations = append(violations, "o código do atributo deve ter no máximo 100 caracteres")
	case !attributeCodePattern.MatchString(a.Code):
		violations = append(violations, "o código do atributo aceita apenas minúsculas, dígitos e '_'")
	}
	if !a.Type.IsValid() {
		violations = append(violations, fmt.Sprintf("tipo de atributo inválido: %q", a.Type))
	}
	if a.Configuration.Min != nil && a.Configuration.Max != nil && a.Configuration.Min.GreaterThan(*a.Configuration.Max) {
		violations = append(violations, "'min' não pode ser maior que 'max'")
	}
	for _, code := range DuplicateLanguages(a.Translations) {
		violations = append(violations, fmt.Sprintf("tradução duplicada para o idioma '%s'", code))
	}
	for _, t := range a.Translations {
		if !filled(t.Name) {
			violations = append(violations, fmt.Sprintf("o nome do atributo é obrigatório no idioma '%s'", t.Language))
		}
	}

	seen := make(map[string]bool, len(a.Values))
	for _, v := range a.Values {
		if seen[v.Value] {
			violations = append(violations, fmt.Sprintf("valor duplicado no atributo: %q", v.Value))
		}
		seen[v.Value] = true
		violations = append(violations, v.violations(a.Type)...)
	}

	if len(violations) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("atributo '%s' inválido", a.Code), violations...)
	}
	return nil
}

// Validate verifica o valor no contexto do tipo do seu atributo.
func (v *AttributeValue) Validate(attrType AttributeType) error {
	if violations := v.violations(attrType); len(violations) > 0 {
		return apperror.NewValidationError(fmt.Sprintf("valor de atributo '%s' inválido", v.Value), violations...)
	}
	return nil
}

func (v *AttributeValue) violations(attrType AttributeType) []string {
	var out []string
	if !filled(v.Value) {
		out = append(out, "o valor é obrigatório")
	} else if len(v.Value) > 255 {
		out = append(out, "o valor deve ter no máximo 255 caracteres")
	}
	if v.HexColor != "" {
		if attrType != AttributeColor {
			out = append(out, fmt.Sprintf("cor hexadecimal só se aplica a atributos do tipo cor (valor %q)", v.Value))
		} else if !IsValidHexColor(v.HexColor) {
			out = append(out, fmt.Sprintf("cor hexadecimal inválida: %q", v.HexColor))
		}
	}
	for _, code := range DuplicateLanguages(v.Translations) {
		out = append(out, fmt.Sprintf("tradução duplicada para o idioma '%s' (valor %q)", code, v.Value))
	}
	return out
}

// IsValidHexColor aceita o formato #RRGGBB, sem diferenciar maiúsculas.
func IsValidHexColor(s string) bool { return hexColorPattern.MatchString(s) }

// Name devolve o nome traduzido ou o valor bruto.
func (v *AttributeValue) Name(loc Locale) string {
	if t, ok := Resolve(v.Translations, loc); ok && filled(t.Name) {
		return t.Name
	}
	return v.Value
}

func (v *AttributeValue) Description(loc Locale) string {
	if t, ok := Resolve(v.Translations, loc); ok {
		return t.Description
	}
	return ""
}

// AttributeCode devolve o código do atributo dono, quando carregado.
func (v *AttributeValue) AttributeCode() string {
	if v.Attribute != nil {
		return v.Attribute.Code
	}
	return ""
}

// IsVariantCapable informa se o atributo dono pode definir variantes.
func (v *AttributeValue) IsVariantCapable() bool {
	return v.Attribute == nil || v.Attribute.IsVariant
}
