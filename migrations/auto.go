package main

import (
	"log"

	"github.com/kiselevos/lingua_practice_bot/internal/config"
	"github.com/kiselevos/lingua_practice_bot/internal/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {

	err := godotenv.Load(".env")
	if err != nil {
		log.Println("Error loading .env file", err)
	}

	dsn, err := config.GetDsn()
	if err != nil {
		log.Fatal(err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	db.AutoMigrate(&models.Group{}, &models.PracticeSession{})
}
