package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperror "gocatalog/internal/errors"
)

// uniqueViolation é o SQLSTATE do Postgres para violação de índice único.
const uniqueViolation = "23505"

// foreignKeyViolation é o SQLSTATE para violação de chave estrangeira.
const foreignKeyViolation = "23503"

// NewPostgresDB abre o pool de conexões com o PostgreSQL e valida com um ping.
func NewPostgresDB(dataSourceName string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	return db, nil
}

// IsUniqueViolation informa se err é uma violação de índice único.
// constraint vazio aceita qualquer índice.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}

// IsForeignKeyViolation informa se err é uma violação de chave estrangeira.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == foreignKeyViolation
}

// IsNoRows informa se a consulta não retornou linhas.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// MapWriteError traduz violações de integridade em ConflictError; o resto vira erro de DB.
func MapWriteError(msg string, err error) error {
	switch {
	case IsUniqueViolation(err, ""):
		return apperror.NewConflictError(fmt.Sprintf("%s: registro duplicado", msg))
	case IsForeignKeyViolation(err):
		return apperror.NewConflictError(fmt.Sprintf("%s: registro referenciado ou referência inexistente", msg))
	}
	return apperror.NewDBError(msg, err)
}
