package initializers

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv pulls variables from a local .env file into the process
// environment. Missing files are fine in deployed environments where the
// variables come from the platform.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("env not loading: %w", err)
	}
	log.Println("Env loaded successfully")
	return nil
}
