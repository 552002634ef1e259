// Command main runs the database seeder for Phora.
package main

import (
	"flag"
	"log"

	"phora/internal/config"
	"phora/internal/database"
	"phora/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixturesPath := flag.String("fixtures", "", "YAML file of curated users and subs to create first")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	users, subs, err := s.SeedCommunity(*numUsers)
	if err != nil {
		log.Fatalf("Community seeding failed: %v", err)
	}

	if *fixturesPath != "" {
		fixtures, err := seed.LoadFixtures(*fixturesPath)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		fu, fs, err := s.ApplyFixtures(fixtures)
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
		log.Printf("Applied %d fixture users and %d fixture subs", len(fu), len(fs))
		users = append(users, fu...)
		subs = append(subs, fs...)
	}

	if err := s.SeedContent(users, subs, *numPosts); err != nil {
		log.Fatalf("Content seeding failed: %v", err)
	}

	log.Println("All done. Every seeded user has the password: password123")
}
