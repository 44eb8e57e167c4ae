// Command main runs the database seeder for the AI marketplace.
package main

import (
	"flag"
	"log"

	"aimarket/internal/config"
	"aimarket/internal/database"
	"aimarket/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numProjects := flag.Int("projects", 40, "Number of projects to create")
	numDemands := flag.Int("demands", 25, "Number of demands to create")
	numTools := flag.Int("tools", 15, "Number of tools to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plain passwords (fast local seeding)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.Seed(db, seed.Options{
		NumUsers:    *numUsers,
		NumProjects: *numProjects,
		NumDemands:  *numDemands,
		NumTools:    *numTools,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *skipBcrypt,
	}); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Println("📧 All seeded users have the password: password123")
}
