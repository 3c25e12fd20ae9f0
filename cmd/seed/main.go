// Command seed populates the database with demo data.
package main

import (
	"flag"
	"log"

	"levelforum/internal/config"
	"levelforum/internal/database"
	"levelforum/internal/seed"
)

func main() {
	users := flag.Int("users", 25, "number of users to create")
	topics := flag.Int("topics", 8, "number of topics to create")
	posts := flag.Int("posts", 6, "posts per topic")
	clean := flag.Bool("clean", false, "delete existing data first")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:      *users,
		NumTopics:     *topics,
		PostsPerTopic: *posts,
		ShouldClean:   *clean,
	}
	if err := seed.Run(db, opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}
