package main

import (
	"log"

	"github.com/joho/godotenv"

	"thesis-tracker-api/config"
)

// One-shot migration runner, invoked at deploy time. The API process never
// touches the schema.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config.InitDB()

	if err := config.RunMigrations(config.DB); err != nil {
		log.Fatal("Migration failed: ", err)
	}

	log.Println("Migrations applied successfully")
}
