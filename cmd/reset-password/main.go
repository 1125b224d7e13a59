package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go-order-ws/internal/repository"
	"go-order-ws/internal/service"
	"go-order-ws/pkg/config"
	"go-order-ws/pkg/database"
)

func main() {
	email := flag.String("email", "admin@example.com", "account to reset")
	password := flag.String("password", "", "new password (at least 6 characters)")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := service.NewUserService(repository.NewUserRepo(db), repository.NewRoleRepo(db))
	if err := users.ResetPassword(ctx, *email, *password); err != nil {
		log.Fatalf("reset password for %s: %v", *email, err)
	}

	log.Printf("password for %s has been reset; open sessions were revoked", *email)
}
