package main

import (
	"context"
	"flag"
	"log"

	"assetfolio/src/config"
	"assetfolio/src/database"
	aws_handler "assetfolio/src/utils/aws"

	"github.com/pressly/goose/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	dir := flag.String("dir", "./migrations", "directory holding the goose SQL files")
	command := flag.String("command", "up", "goose command: up, down, status")
	flag.Parse()

	cfg, err := config.LoadConfig("./settings", config.Env())
	if err != nil {
		log.Fatalf("Error loading config for environment: %v", err)
	}
	if cfg.Databases.SQL.Driver == config.DriverMemory {
		log.Println("Memory driver configured, nothing to migrate")
		return
	}

	sqlCfg := cfg.Databases.SQL
	if sqlCfg.PasswordSecretID != "" {
		awsHandler, err := aws_handler.NewAWSHandler(cfg.AWS.Region)
		if err != nil {
			log.Fatalf("Failed to create AWS session: %v", err)
		}
		sqlCfg, err = database.ResolveSQLConfig(context.Background(), sqlCfg, awsHandler.SecretManager)
		if err != nil {
			log.Fatalf("Failed to resolve database password: %v", err)
		}
	}

	db, err := gorm.Open(postgres.Open(sqlCfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB from GORM DB: %v", err)
	}
	defer sqlDB.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("Failed to set goose dialect: %v", err)
	}
	if err := goose.RunContext(context.Background(), *command, sqlDB, *dir); err != nil {
		log.Fatalf("Failed to run migrations (%s): %v", *command, err)
	}

	log.Printf("Database migration %q completed successfully", *command)
}
