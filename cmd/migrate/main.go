// Command migrate creates or updates the huddle schema.
package main

import (
	"fmt"
	"log"

	"huddle/internal/config"
	"huddle/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Connect skips migrations in production, so run them explicitly.
	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Println("migrations applied")
	return nil
}
