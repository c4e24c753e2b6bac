// Comando token emite um JWT de operador para chamar as rotas de escrita.
//
//	go run ./cmd/token -subject maria -role editor
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gocatalog/internal/pkg/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Warning: .env file not found or failed to read. Loading configs from system environment only: %v", err)
	}

	var subject, role, secret string
	var expiry time.Duration
	flag.StringVar(&subject, "subject", "", "operator id written to the token (required)")
	flag.StringVar(&role, "role", token.RoleEditor, "operator role: admin or editor")
	flag.StringVar(&secret, "secret", os.Getenv("JWT_SECRET_KEY"), "signing key (default $JWT_SECRET_KEY)")
	flag.DurationVar(&expiry, "expiry", time.Hour, "token lifetime")
	flag.Parse()

	if subject == "" {
		log.Fatal("token: -subject must be set")
	}
	if secret == "" {
		log.Fatal("token: JWT_SECRET_KEY or -secret must be set")
	}

	tok, err := issue(token.NewService(secret, expiry), subject, role)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	fmt.Println(tok)
}

func issue(svc token.TokenService, subject, role string) (string, error) {
	if role != token.RoleAdmin && role != token.RoleEditor {
		return "", fmt.Errorf("papel desconhecido %q (use %s ou %s)", role, token.RoleAdmin, token.RoleEditor)
	}
	return svc.GenerateToken(subject, role)
}
