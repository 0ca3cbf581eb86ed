package main

import (
	"crypto/sha1"
	"encoding/hex"
	"log"
	"os"

	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dsn"
	"apartment-finder/internal/app/repository"

	"github.com/joho/godotenv"
)

// Миграция управляющей базы: компании, пользователи, роли и права.
// Локальные базы компаний мигрируются при регистрации компании.
// При заданных SUPERADMIN_* переменных дополнительно заводится
// стартовая компания с суперадминистратором.
func main() {
	// Загрузка переменных окружения из .env файла
	_ = godotenv.Load()

	dsnStr := dsn.FromEnv()
	if dsnStr == "" {
		log.Fatal("DSN string is empty. Check your .env file")
	}

	repo, err := repository.New(dsnStr)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	log.Println("Database migration completed successfully")

	username := os.Getenv("SUPERADMIN_USERNAME")
	password := os.Getenv("SUPERADMIN_PASSWORD")
	if username == "" || password == "" {
		return
	}

	company := &ds.Company{
		Name:       envOr("BOOTSTRAP_COMPANY_NAME", "Головная компания"),
		Subdomain:  envOr("BOOTSTRAP_COMPANY_SUBDOMAIN", "main"),
		LocalDBURI: os.Getenv("BOOTSTRAP_LOCAL_DB_URI"),
	}

	h := sha1.New()
	h.Write([]byte(password))
	passwordHash := hex.EncodeToString(h.Sum(nil))

	if err := repo.BootstrapSuperAdmin(company, username, os.Getenv("SUPERADMIN_EMAIL"), passwordHash); err != nil {
		log.Fatalf("Failed to bootstrap super admin: %v", err)
	}
	log.Println("Super admin is ready")
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
