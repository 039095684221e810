package main

import (
	"database/sql"
	"log"
	"os"
	"strings"

	"lims-assign/internal/config"

	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <migration_file.sql>", os.Args[0])
	}

	sqlContent, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to read migration file: %v", err)
	}

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.Database.GetDSN())
	if err != nil {
		log.Fatalf("Cannot open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Cannot connect to database %s: %v", cfg.Database.Database, err)
	}

	// Split on semicolons and run each statement on its own. Good enough for
	// our migration files, which keep one statement per semicolon and no
	// function bodies.
	statements := strings.Split(string(sqlContent), ";")
	executed := 0
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("Failed to execute statement %d: %v", executed+1, err)
		}
		executed++
	}

	log.Printf("Migration applied: %d statements executed", executed)
}
