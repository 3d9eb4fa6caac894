package main

import (
	"log"

	"chatbot-widget/internal/config"
	"chatbot-widget/internal/model"
	"chatbot-widget/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	if cfg.Storage.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(cfg.Storage.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// 3. Schema
	log.Println("Migrating widget storage table...")
	if err := db.AutoMigrate(&model.StorageEntry{}); err != nil {
		log.Fatalf("Error: Migration failed: %v", err)
	}

	log.Println("✅ Migration complete")
}
