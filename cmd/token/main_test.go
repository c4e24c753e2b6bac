package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/pkg/token"
)

func TestIssue_TokenValidatesWithSameSecret(t *testing.T) {
	svc := token.NewService("s3cr3t", time.Hour)

	tok, err := issue(svc, "maria", token.RoleAdmin)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "maria", claims.UserID)
	assert.Equal(t, token.RoleAdmin, claims.Role)

	_, err = token.NewService("outra-chave", time.Hour).ValidateToken(tok)
	assert.Error(t, err)
}

func TestIssue_UnknownRole(t *testing.T) {
	_, err := issue(token.NewService("s3cr3t", time.Hour), "maria", "viewer")
	assert.Error(t, err)
}
