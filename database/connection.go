package database

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect opens the PostgreSQL connection for the assistant. A full
// DATABASE_URL wins; on Cloud Run the Cloud SQL unix socket is used;
// otherwise a TCP DSN is built from the DB_* variables.
func Connect() {
	var err error

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := envOr("DB_USER", "postgres")
		pass := os.Getenv("DB_PASS")
		name := envOr("DB_NAME", "arogyax")

		if instance := os.Getenv("INSTANCE_CONNECTION_NAME"); instance != "" {
			dsn = fmt.Sprintf("host=/cloudsql/%s user=%s password=%s dbname=%s sslmode=disable",
				instance, user, pass, name)
			log.Printf("Connecting to Cloud SQL via socket: %s", instance)
		} else {
			dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				envOr("DB_HOST", "localhost"), user, pass, name, envOr("DB_PORT", "5432"))
			log.Println("Connecting to local PostgreSQL")
		}
	}

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		panic(err)
	}

	log.Println("✅ Database connected successfully!")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
