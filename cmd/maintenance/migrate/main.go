package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"time"

	"github.com/hostelite/hostel-backend/internal/config"
	"github.com/hostelite/hostel-backend/internal/database"
	"github.com/hostelite/hostel-backend/migrations"
	"github.com/joho/godotenv"
)

func main() {
	var dbURLFlag string
	var dryRun bool
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.NewConnection(ctx, config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     2,
		MaxIdleConnections: 1,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	const ensureTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := db.ExecContext(ctx, ensureTable); err != nil {
		log.Fatalf("failed to create schema_migrations: %v", err)
	}

	applied := []string{}
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		log.Fatalf("failed to read applied migrations: %v", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	files, err := fs.Glob(migrations.Files, "*.sql")
	if err != nil {
		log.Fatalf("failed to list migrations: %v", err)
	}
	sort.Strings(files)

	pending := 0
	for _, name := range files {
		if done[name] {
			continue
		}
		pending++

		if dryRun {
			fmt.Printf("pending: %s\n", name)
			continue
		}

		body, err := fs.ReadFile(migrations.Files, name)
		if err != nil {
			log.Fatalf("failed to read %s: %v", name, err)
		}
		if err := apply(ctx, db, name, string(body)); err != nil {
			log.Fatalf("failed to apply %s: %v", name, err)
		}
		fmt.Printf("applied: %s\n", name)
	}

	if pending == 0 {
		fmt.Println("Database schema is up to date.")
	}
}

// apply runs one migration and records it in the same transaction
func apply(ctx context.Context, db database.DB, name, body string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return err
	}
	return tx.Commit()
}
