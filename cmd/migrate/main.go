// Package main - schema and rotation maintenance CLI
//
// Usage:
//
//	go run ./cmd/migrate up                  # Create or update every table
//	go run ./cmd/migrate status              # Show which tables exist
//	go run ./cmd/migrate rotation SERVICE    # Show the credential rotation row
//	go run ./cmd/migrate reset-rotation SERVICE  # Point SERVICE back at key #1
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"codeplay/internal/config"
	"codeplay/internal/db"
	"codeplay/internal/logging"
	"codeplay/internal/store"
	"codeplay/pkg/models"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../.env"); err != nil {
			_ = godotenv.Load("../../.env")
		}
	}
	logging.Init()
	defer logging.Sync()
	log := logging.L()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("configuration rejected", zap.Error(err))
	}

	// NewDatabase migrates on connect, so "up" is implied by every command
	database, err := db.NewDatabase(cfg.Database, false)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	ctx := context.Background()
	switch os.Args[1] {
	case "up":
		fmt.Println("schema is up to date")
	case "status":
		m := database.DB.Migrator()
		for _, model := range []interface{}{&models.Project{}, &models.KeyRotation{}, &models.ProjectLike{}, &models.Article{}} {
			fmt.Printf("%-24T present=%v\n", model, m.HasTable(model))
		}
	case "rotation":
		service := requireArg("rotation")
		row, err := store.NewRotationStore(database.DB).Get(ctx, service)
		if err != nil {
			log.Fatal("failed to read rotation", zap.String("service", service), zap.Error(err))
		}
		fmt.Printf("%s: key #%d since %s\n", row.ServiceName, row.CurrentKeyIndex, row.LastRotationTime.Format(time.RFC3339))
	case "reset-rotation":
		service := requireArg("reset-rotation")
		if err := store.NewRotationStore(database.DB).Update(ctx, service, 1, time.Now().UTC()); err != nil {
			log.Fatal("failed to reset rotation", zap.String("service", service), zap.Error(err))
		}
		fmt.Printf("%s reset to key #1\n", service)
	default:
		printUsage()
		os.Exit(1)
	}
}

func requireArg(command string) string {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: migrate %s SERVICE\n", command)
		os.Exit(1)
	}
	return os.Args[2]
}

func printUsage() {
	fmt.Println(`Usage: migrate <command> [args]

Commands:
  up                      Create or update every table
  status                  Show which tables exist
  rotation SERVICE        Show the credential rotation row
  reset-rotation SERVICE  Point SERVICE back at key #1`)
}
