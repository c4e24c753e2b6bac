package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	apperror "gocatalog/internal/errors"
)

func TestMapToHTTPStatus(t *testing.T) {
	dbErr := stderrors.New("pq: connection refused")
	tests := []struct {
		name     string
		err      error
		status   int
		category string
		message  string
	}{
		{"validação", apperror.NewValidationError("produto inválido", "o preço é obrigatório"),
			http.StatusBadRequest, "VALIDATION_ERROR", "Erro de Validação: produto inválido (o preço é obrigatório)"},
		{"não encontrado", apperror.NewNotFoundError("idioma 'xx'"),
			http.StatusNotFound, "NOT_FOUND", "Recurso não encontrado: idioma 'xx'"},
		{"conflito", apperror.NewConflictError("valor em uso"),
			http.StatusConflict, "CONFLICT", "Conflito de estado: valor em uso"},
		{"consistência esconde detalhes", apperror.NewConsistencyError("dois idiomas padrão"),
			http.StatusInternalServerError, "CONSISTENCY_ERROR", "Ocorreu um erro interno."},
		{"banco esconde detalhes", apperror.NewDBError("falha ao salvar", dbErr),
			http.StatusInternalServerError, "INTERNAL_ERROR", "Ocorreu um erro interno."},
		{"embrulhado", fmt.Errorf("salvando: %w", apperror.NewNotFoundError("marca")),
			http.StatusNotFound, "NOT_FOUND", "Recurso não encontrado: marca"},
		{"desconhecido", stderrors.New("boom"),
			http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, category, message := apperror.MapToHTTPStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.message, message)
		})
	}
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := stderrors.New("timeout")
	err := apperror.NewDBError("falha ao buscar", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, apperror.IsAppError(err))
	assert.False(t, apperror.IsAppError(cause))
}

func TestViolations(t *testing.T) {
	err := fmt.Errorf("camada: %w", apperror.NewValidationError("x", "a", "b"))

	assert.Equal(t, []string{"a", "b"}, apperror.Violations(err))
	assert.Nil(t, apperror.Violations(apperror.NewNotFoundError("y")))
}
