package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"loopline.social/internal/auth"
	"loopline.social/internal/ids"
	"loopline.social/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn      = flag.String("dsn", os.Getenv("LOOPLINE_PG_DSN"), "PostgreSQL DSN")
		id       = flag.String("id", "", "Profile id (generated when empty)")
		username = flag.String("username", "", "Unique username")
		password = flag.String("password", os.Getenv("LOOPLINE_USERADD_PASSWORD"), "Initial password")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or LOOPLINE_PG_DSN")
	}
	if *username == "" || *password == "" {
		log.Fatal("username and password are required")
	}
	userID := *id
	if userID == "" {
		userID = ids.New()
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	if err := store.CreateAccount(ctx, userID, *username, hash); err != nil {
		log.Fatalf("create account: %v", err)
	}
	log.Printf("created account %s (%s)", *username, userID)
}
