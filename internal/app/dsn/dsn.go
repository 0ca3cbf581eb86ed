package dsn

import (
	"fmt"
	"os"
)

// FromEnv собирает DSN управляющей базы из переменных окружения.
// Если задан CONTROL_DATABASE_URL, он используется как есть.
func FromEnv() string {
	if uri := os.Getenv("CONTROL_DATABASE_URL"); uri != "" {
		return uri
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	dbname := os.Getenv("DB_NAME")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, pass, dbname)
}
