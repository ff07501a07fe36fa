package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/tabbli/accounts/config"
	"github.com/tabbli/accounts/pkg/helpers"
)

// Seeds a superuser account and the default groups for a fresh install.

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@tabbli.com"
	password := "changeme123"
	name := "Tabbli Admin"

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	token, err := helpers.NewActivationToken()
	if err != nil {
		log.Fatalf("failed to build activation token: %v", err)
	}

	newID := uuid.NewString()
	var id string
	err = db.QueryRow(`
		INSERT INTO users (id, email, password_hash, name, avatar_text, avatar_color,
			is_administrator, is_staff, is_superuser, permanent_activation_token)
		VALUES ($1, $2, $3, $4, $5, $6, true, true, true, $7)
		ON CONFLICT (lower(email)) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, newID, email, hash, name,
		helpers.DeriveInitials(name),
		helpers.DeriveColor(newID, &helpers.AvatarMixBase),
		token).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", id, email, password)

	for _, group := range []string{"Administrators", "Members"} {
		if _, err := db.Exec(`
			INSERT INTO user_groups (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, group); err != nil {
			log.Fatalf("failed to seed group %s: %v", group, err)
		}
	}
	fmt.Println("default groups ensured")
}
