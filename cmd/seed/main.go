// Command seed creates demo accounts in the configured database.
// Usage: go run ./cmd/seed [-password secret]
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"github.com/mrlokans/stockcast/internal/auth"
	"github.com/mrlokans/stockcast/internal/config"
	"github.com/mrlokans/stockcast/internal/entrypoint"
)

type demoAccount struct {
	Name  string
	Email string
}

var demoAccounts = []demoAccount{
	{Name: "Ann", Email: "ann@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
	{Name: "Carol", Email: "carol@example.com"},
}

func main() {
	password := flag.String("password", "demo-password", "password for every demo account")
	flag.Parse()

	cfg := config.NewConfig()
	ctx := context.Background()

	storage, err := entrypoint.OpenStorage(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer storage.Close()

	// Tokens issued here are discarded, so any key will do.
	codec, err := auth.NewTokenCodec([]byte(strings.Repeat("s", auth.MinSecretLength)))
	if err != nil {
		log.Fatalf("Failed to create token codec: %v", err)
	}
	service := auth.NewService(storage.Users, auth.NewBcryptHasher(cfg.Auth.BcryptCost), codec, nil)

	created := 0
	for _, acc := range demoAccounts {
		_, err := service.Register(ctx, auth.RegisterInput{
			Name:     acc.Name,
			Email:    acc.Email,
			Password: *password,
		})
		switch {
		case err == nil:
			created++
			log.Printf("Created: %s <%s>", acc.Name, acc.Email)
		case auth.KindOf(err) == auth.KindConflict:
			log.Printf("Skipped: %s already exists", acc.Email)
		default:
			log.Fatalf("Failed to create %s: %v", acc.Email, err)
		}
	}

	log.Printf("Seeded %d of %d demo accounts", created, len(demoAccounts))
}
