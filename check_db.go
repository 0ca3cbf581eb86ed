package main

import (
	"fmt"
	"log"
	"os"

	"apartment-finder/internal/app/ds"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Утилита для быстрой проверки управляющей базы: выводит список
// зарегистрированных компаний и состояние их подключений.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("CONTROL_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=password dbname=control_db port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	var companies []ds.Company
	err = db.Find(&companies).Error
	if err != nil {
		log.Fatal("Failed to get companies:", err)
	}

	fmt.Println("Companies in database:")
	for _, company := range companies {
		remote := "нет"
		if company.HasRemoteStore() {
			remote = "да"
		}
		fmt.Printf("ID: %d, Name: %s, Subdomain: %s, операционная база: %s\n",
			company.ID, company.Name, company.Subdomain, remote)
	}
}
