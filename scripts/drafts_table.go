package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"coursecraft/internal/config"
	"coursecraft/internal/repository/postgres"
)

// Usage: go run ./scripts create|drop
func main() {
	_ = godotenv.Load()

	if len(os.Args) != 2 {
		log.Fatal("usage: drafts_table create|drop")
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}
	tables := postgres.NewTableNames(cfg.TablePrefix)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }() // Error ignored: script exiting

	var stmt string
	switch os.Args[1] {
	case "create":
		stmt = postgres.DraftsTableDDL(tables)
	case "drop":
		stmt = fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tables.Drafts)
	default:
		log.Fatalf("unknown command %q", os.Args[1])
	}

	if _, err := db.Exec(stmt); err != nil {
		log.Fatalf("Failed to %s %s: %v", os.Args[1], tables.Drafts, err)
	}
	fmt.Printf("%s: %s done\n", tables.Drafts, os.Args[1])
}
