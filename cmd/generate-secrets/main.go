package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hostelite/hostel-backend/internal/config"
	"github.com/hostelite/hostel-backend/internal/utils"
)

func main() {
	var length int
	flag.IntVar(&length, "length", config.MinProductionSecretLength*2, "Minimum length of each secret in characters")
	flag.Parse()

	if length < config.MinProductionSecretLength {
		log.Fatalf("length must be at least %d to pass production validation", config.MinProductionSecretLength)
	}

	secrets, err := utils.NewSigningSecrets(length)
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("# Hostelite token signing secrets")
	fmt.Println("# Add these to your .env file and keep them out of version control.")
	fmt.Printf("%s=%s\n", config.EnvJWTSecret, secrets.Access)
	fmt.Printf("%s=%s\n", config.EnvJWTRefreshSecret, secrets.Refresh)
}
