// Package slug gera identificadores de URL a partir de textos livres.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	apperror "gocatalog/internal/errors"
)

// MaxAttempts limita a busca por sufixos livres.
const MaxAttempts = 1000

// Scope responde se um slug já está em uso no escopo
// (slugs de produto, slugs de tradução em um idioma, marcas, categorias...).
type Scope interface {
	Exists(ctx context.Context, slug string) (bool, error)
}

// ScopeFunc adapta uma função ao Scope.
type ScopeFunc func(ctx context.Context, slug string) (bool, error)

func (f ScopeFunc) Exists(ctx context.Context, slug string) (bool, error) { return f(ctx, slug) }

// SetScope é um escopo em memória, útil para slugs reservados dentro de uma
// mesma operação.
type SetScope map[string]struct{}

func (s SetScope) Exists(_ context.Context, slug string) (bool, error) {
	_, ok := s[slug]
	return ok, nil
}

// Add reserva um slug.
func (s SetScope) Add(slug string) { s[slug] = struct{}{} }

// AnyScope considera um slug em uso se qualquer escopo o usar.
func AnyScope(scopes ...Scope) Scope {
	return ScopeFunc(func(ctx context.Context, slug string) (bool, error) {
		for _, sc := range scopes {
			used, err := sc.Exists(ctx, slug)
			if err != nil || used {
				return used, err
			}
		}
		return false, nil
	})
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize transforma um texto em token seguro para URL: minúsculas ASCII e
// dígitos, sequências de outros caracteres viram um único "-", sem "-" nas pontas.
func Normalize(text string) string {
	plain, _, err := transform.String(stripMarks, text)
	if err != nil {
		plain = text
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingSep := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Unique devolve o slug base de candidate, ou base-1, base-2... até achar um livre no escopo.
// Chamadas repetidas sem inserções no meio devolvem o mesmo resultado.
func Unique(ctx context.Context, candidate string, scope Scope) (string, error) {
	base := Normalize(candidate)
	if base == "" {
		return "", apperror.NewValidationError(fmt.Sprintf("não é possível gerar slug a partir de %q", candidate))
	}

	next := base
	for i := 1; i <= MaxAttempts; i++ {
		used, err := scope.Exists(ctx, next)
		if err != nil {
			return "", err
		}
		if !used {
			return next, nil
		}
		next = fmt.Sprintf("%s-%d", base, i)
	}
	return "", apperror.NewConflictError(fmt.Sprintf("nenhum slug livre para %q após %d tentativas", base, MaxAttempts))
}

// Claim devolve o slug para um registro: explicit, normalizado, precisa estar
// livre no escopo; vazio gera um slug único a partir de fallback.
func Claim(ctx context.Context, explicit, fallback string, scope Scope) (string, error) {
	if strings.TrimSpace(explicit) == "" {
		return Unique(ctx, fallback, scope)
	}
	s := Normalize(explicit)
	if s == "" {
		return "", apperror.NewValidationError(fmt.Sprintf("slug inválido: %q", explicit))
	}
	used, err := scope.Exists(ctx, s)
	if err != nil {
		return "", err
	}
	if used {
		return "", apperror.NewValidationError(fmt.Sprintf("o slug '%s' já está em uso", s))
	}
	return s, nil
}
