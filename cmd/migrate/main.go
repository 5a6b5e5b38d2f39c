package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"resume-intake/config"
	"resume-intake/internal/repository"
	"resume-intake/pkg/database"

	"gorm.io/gorm"
)

const usage = `
Resume Intake - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create or update the user_resumes table and its indexes
  status      Show database connection status and table row count

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer database.Close(db)

	switch command {
	case "up":
		runMigrationsUp(db)
	case "status":
		showStatus(db)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(db *gorm.DB) {
	log.Println("🚀 Running migrations UP...")

	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus(db *gorm.DB) {
	log.Println("🔍 Checking database status...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.HealthCheck(ctx, db); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	exists, count, err := repository.SchemaStatus(db)
	switch {
	case err != nil:
		log.Printf("⚠️  Error checking table user_resumes: %v", err)
	case exists:
		log.Printf("✅ Table %-20s exists (%d rows)", "user_resumes", count)
	default:
		log.Printf("❌ Table %-20s does not exist", "user_resumes")
	}
}
