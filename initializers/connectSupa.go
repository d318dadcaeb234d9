package initializers

import (
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB // migrations also use this handle

// ConnectDB opens the GORM connection against the Supabase direct URL.
func ConnectDB() error {
	log.Println("Connecting to database")

	dsn := os.Getenv("DIRECT_URL")
	if dsn == "" {
		log.Println("DIRECT_URL variable not loading...")
		return fmt.Errorf("env variable DIRECT_URL is empty")
	}

	// Supabase's pooler dislikes prepared statements, so stick to the
	// simple protocol.
	pgConfig := postgres.Config{
		PreferSimpleProtocol: true,
		DriverName:           "postgres",
		DSN:                  dsn,
	}

	var err error
	DB, err = gorm.Open(postgres.New(pgConfig), &gorm.Config{
		PrepareStmt:          false,
		DisableAutomaticPing: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	log.Println("Database connection successful")
	return nil
}
