// Command seed fills the configured database with demo characters and
// activity, then prints a token for each active character.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"huddle/internal/config"
	"huddle/internal/database"
	"huddle/internal/middleware"
	"huddle/internal/seed"
)

func main() {
	opts := seed.DefaultOptions
	flag.IntVar(&opts.Characters, "characters", opts.Characters, "Number of characters to create")
	flag.IntVar(&opts.Teams, "teams", opts.Teams, "Number of teams")
	flag.IntVar(&opts.Posts, "posts", opts.Posts, "Number of posts to create")
	flag.IntVar(&opts.Polls, "polls", opts.Polls, "Percentage of posts created as polls")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed (0 uses the clock)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed tokens")
	flag.Parse()

	if opts.Characters < 2 {
		log.Fatal("at least two characters are required")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, opts)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d characters, %d posts, %d follows, %d likes, %d comments, %d votes",
		len(res.Characters), len(res.Posts), res.Follows, res.Likes, res.Comments, res.Votes)
	for _, c := range res.Characters {
		if !c.IsActive {
			continue
		}
		token, err := middleware.IssueToken(cfg.JWTSecret, c.ID, c.AccountID, *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token for %s: %v", c.DisplayName, err)
		}
		fmt.Printf("%-20s character=%d account=%d token=%s\n", c.DisplayName, c.ID, c.AccountID, token)
	}
}
